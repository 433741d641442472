package relations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"mit.edu/dsg/godb/common"
)

func TestFindColumnUnqualified(t *testing.T) {
	schema := NewSchema(
		ColumnInfo{Name: "id", Qualifier: "employees", Type: common.IntType},
		ColumnInfo{Name: "name", Qualifier: "employees", Type: common.StringType},
	)

	idx, err := schema.FindColumn("", "name")
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestFindColumnUnknown(t *testing.T) {
	schema := NewSchema(ColumnInfo{Name: "id", Qualifier: "t", Type: common.IntType})

	_, err := schema.FindColumn("", "missing")
	assert.True(t, common.IsCode(err, common.UnknownColumnError))
}

func TestFindColumnAmbiguous(t *testing.T) {
	schema := NewSchema(
		ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType},
		ColumnInfo{Name: "id", Qualifier: "b", Type: common.IntType},
	)

	_, err := schema.FindColumn("", "id")
	assert.True(t, common.IsCode(err, common.AmbiguousColumnError))
}

func TestFindColumnQualifierDisambiguates(t *testing.T) {
	schema := NewSchema(
		ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType},
		ColumnInfo{Name: "id", Qualifier: "b", Type: common.IntType},
	)

	idx, err := schema.FindColumn("b", "id")
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestFindColumnsByQualifier(t *testing.T) {
	schema := NewSchema(
		ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType},
		ColumnInfo{Name: "id", Qualifier: "b", Type: common.IntType},
		ColumnInfo{Name: "name", Qualifier: "a", Type: common.StringType},
	)

	assert.Equal(t, []int{0, 2}, schema.FindColumnsByQualifier("a"))
}

func TestSchemaAppendAndProject(t *testing.T) {
	left := NewSchema(ColumnInfo{Name: "id", Qualifier: "a", Type: common.IntType})
	right := NewSchema(ColumnInfo{Name: "name", Qualifier: "b", Type: common.StringType})

	merged := left.Append(right)
	assert.Equal(t, 2, merged.NumColumns())

	projected := merged.Project([]int{1, 0})
	assert.Equal(t, "name", projected.Columns[0].Name)
	assert.Equal(t, "id", projected.Columns[1].Name)
	// Inputs must not be mutated by Append/Project.
	assert.Equal(t, 1, left.NumColumns())
}
