package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"mit.edu/dsg/godb/common"
	"mit.edu/dsg/godb/relations"
	"mit.edu/dsg/godb/storage"
)

func TestEnvironmentResolvesAgainstFirstMatchingSchema(t *testing.T) {
	left := relations.NewSchema(relations.ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType})
	right := relations.NewSchema(relations.ColumnInfo{Name: "id", Qualifier: "b", Type: common.IntType})

	env := NewEnvironment()
	env.AddTuple(left, storage.FromValues(common.NewIntValue(1)))
	env.AddTuple(right, storage.FromValues(common.NewIntValue(2)))

	// Same column name in two DIFFERENT bindings is not ambiguous: the first
	// binding whose schema contains a match wins.
	val, err := env.Resolve("", "id")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), val.IntValue())

	val, err = env.Resolve("b", "id")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), val.IntValue())
}

func TestEnvironmentUnknownColumn(t *testing.T) {
	env := NewEnvironment()
	env.AddTuple(relations.NewSchema(relations.ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType}),
		storage.FromValues(common.NewIntValue(1)))

	_, err := env.Resolve("", "missing")
	assert.True(t, common.IsCode(err, common.UnknownColumnError))
}

func TestEnvironmentAmbiguousWithinOneSchema(t *testing.T) {
	schema := relations.NewSchema(
		relations.ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType},
		relations.ColumnInfo{Name: "id", Qualifier: "b", Type: common.IntType},
	)
	env := NewEnvironment()
	env.AddTuple(schema, storage.FromValues(common.NewIntValue(1), common.NewIntValue(2)))

	_, err := env.Resolve("", "id")
	assert.True(t, common.IsCode(err, common.AmbiguousColumnError))
}

func TestEnvironmentClearResetsBindings(t *testing.T) {
	env := NewEnvironment()
	schema := relations.NewSchema(relations.ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType})
	env.AddTuple(schema, storage.FromValues(common.NewIntValue(1)))

	env.Clear()
	_, err := env.Resolve("", "id")
	assert.True(t, common.IsCode(err, common.UnknownColumnError), "cleared environment should have no bindings left")
}
