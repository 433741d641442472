package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mit.edu/dsg/godb/common"
	"mit.edu/dsg/godb/relations"
	"mit.edu/dsg/godb/storage"
)

func setupScanFixture(t *testing.T, numRows int) (*TableScanNode, []int64) {
	sm := storage.NewDiskStorageManager(t.TempDir())
	bp := storage.NewBufferPool(4, sm)
	codec := storage.NewRawTupleCodec([]common.Type{common.IntType, common.StringType})
	hf, err := storage.NewHeapFile(common.ObjectID(1), codec, bp)
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < numRows; i++ {
		row := make(storage.RawTuple, codec.BytesPerTuple())
		codec.SetValue(row, 0, common.NewIntValue(int64(i)))
		codec.SetValue(row, 1, common.NewStringValue(fmt.Sprintf("row-%d", i)))
		_, err := hf.InsertTuple(row)
		require.NoError(t, err)
		ids = append(ids, int64(i))
	}

	schema := relations.NewSchema(
		relations.ColumnInfo{Name: "id", Qualifier: "t", Type: common.IntType},
		relations.ColumnInfo{Name: "label", Qualifier: "t", Type: common.StringType},
	)
	node := NewTableScanNode(common.ObjectID(1), schema, hf)
	require.NoError(t, node.Prepare())
	return node, ids
}

func TestTableScanNodeYieldsAllLiveTuplesInOrder(t *testing.T) {
	node, ids := setupScanFixture(t, 50)
	require.NoError(t, node.Initialize())

	var seen []int64
	for {
		ok, err := node.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, node.GetCurrentTuple().GetValue(0).IntValue())
	}
	assert.Equal(t, ids, seen)
}

func TestTableScanNodeReinitializeRestarts(t *testing.T) {
	node, ids := setupScanFixture(t, 5)
	require.NoError(t, node.Initialize())

	ok, err := node.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ids[0], node.GetCurrentTuple().GetValue(0).IntValue())

	require.NoError(t, node.Initialize())
	ok, err = node.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ids[0], node.GetCurrentTuple().GetValue(0).IntValue())
}

func TestTableScanNodeExhaustionStaysFalse(t *testing.T) {
	node, _ := setupScanFixture(t, 1)
	require.NoError(t, node.Initialize())

	ok, err := node.Next()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = node.Next()
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = node.Next()
	require.NoError(t, err)
	assert.False(t, ok, "Next should keep returning false once exhausted")
}

func TestTableScanNodeMarkAndReset(t *testing.T) {
	node, ids := setupScanFixture(t, 10)
	require.NoError(t, node.Initialize())
	require.True(t, node.SupportsMarking())

	ok, err := node.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, node.MarkCurrentPosition())
	marked := node.GetCurrentTuple().GetValue(0).IntValue()
	assert.Equal(t, ids[0], marked)

	for i := 0; i < 3; i++ {
		ok, err = node.Next()
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.NotEqual(t, marked, node.GetCurrentTuple().GetValue(0).IntValue())

	require.NoError(t, node.ResetToLastMark())
	assert.Equal(t, marked, node.GetCurrentTuple().GetValue(0).IntValue())
}

func TestTableScanNodeSchemaAndEquals(t *testing.T) {
	nodeA, _ := setupScanFixture(t, 1)
	nodeB := NewTableScanNode(common.ObjectID(2), nodeA.Schema(), nodeA.heapFile)

	assert.Equal(t, 2, nodeA.Schema().NumColumns())
	assert.True(t, nodeA.Equals(nodeA))
	assert.False(t, nodeA.Equals(nodeB), "distinct table oids should not be equal")
}

func TestTableScanNodeDuplicateIsIndependent(t *testing.T) {
	node, ids := setupScanFixture(t, 5)
	require.NoError(t, node.Initialize())
	ok, err := node.Next()
	require.NoError(t, err)
	require.True(t, ok)

	dup := node.Duplicate()
	require.NoError(t, dup.Initialize())

	var seen []int64
	for {
		ok, err := dup.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, dup.GetCurrentTuple().GetValue(0).IntValue())
	}
	assert.Equal(t, ids, seen, "duplicate should scan independently from scratch")
}
