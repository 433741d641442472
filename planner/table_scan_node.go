package planner

import (
	"fmt"

	"mit.edu/dsg/godb/common"
	"mit.edu/dsg/godb/relations"
	"mit.edu/dsg/godb/storage"
)

// TableScanNode is the leaf PlanNode that walks every live tuple of one
// table's heap file, in on-disk order, via a storage.TupleCursor.
type TableScanNode struct {
	TableOid common.ObjectID
	schema   *relations.Schema
	heapFile *storage.HeapFile

	cursor       *storage.TupleCursor
	currentRID   common.RecordID
	hasCurrent   bool
	currentTuple storage.Tuple

	markedRID common.RecordID
	hasMark   bool

	stats *relations.TableStats
	cost  relations.PlanCost
}

// NewTableScanNode builds a scan over heapFile, whose rows have the given schema.
func NewTableScanNode(tableOid common.ObjectID, schema *relations.Schema, heapFile *storage.HeapFile) *TableScanNode {
	return &TableScanNode{TableOid: tableOid, schema: schema, heapFile: heapFile}
}

// Prepare estimates this scan's output cardinality from the heap file's page
// count. There is no persistent per-column statistics store in this engine,
// so NumUniqueValues is left at its zero value -- any consumer that needs a
// better estimate is expected to have collected one out-of-band.
func (n *TableScanNode) Prepare() error {
	numPages, err := n.heapFile.NumPages()
	if err != nil {
		return err
	}

	const slottedPageOverhead = 2 // numSlots header
	bytesPerTuple := n.heapFile.Codec().BytesPerTuple()
	tuplesPerPage := float64(0)
	if bytesPerTuple > 0 {
		// Each live tuple also costs 2 bytes of slot-directory entry; this
		// is a coarse estimate, not an exact count of a partially-full page.
		tuplesPerPage = float64(common.PageSize-slottedPageOverhead) / float64(bytesPerTuple+2)
	}
	numTuples := tuplesPerPage * float64(numPages)

	columnStats := make([]relations.ColumnStats, n.schema.NumColumns())
	n.stats = relations.NewTableStats(columnStats...)
	n.cost = relations.PlanCost{
		CPUCost:   numTuples,
		IOCost:    float64(numPages),
		NumTuples: numTuples,
		TupleSize: float64(bytesPerTuple),
	}
	return nil
}

func (n *TableScanNode) Schema() *relations.Schema       { return n.schema }
func (n *TableScanNode) Stats() *relations.TableStats     { return n.stats }
func (n *TableScanNode) Cost() relations.PlanCost         { return n.cost }

// Initialize (re)starts the scan from the first live tuple in the heap file.
func (n *TableScanNode) Initialize() error {
	n.cursor = storage.NewTupleCursor(n.heapFile)
	n.hasCurrent = false
	n.currentTuple = storage.Tuple{}
	return nil
}

// Next advances to the next live tuple, in RecordID order.
func (n *TableScanNode) Next() (bool, error) {
	var rid common.RecordID
	var ok bool
	var err error
	if !n.hasCurrent {
		rid, ok, err = n.cursor.First()
	} else {
		rid, ok, err = n.cursor.NextAfter(n.currentRID)
	}
	if err != nil {
		return false, err
	}
	if !ok {
		// Keep the last position so further calls keep reporting exhaustion
		// instead of restarting from First().
		return false, nil
	}

	tup, err := n.cursor.TupleAt(rid)
	if err != nil {
		return false, err
	}
	n.currentRID = rid
	n.hasCurrent = true
	n.currentTuple = tup
	return true, nil
}

func (n *TableScanNode) GetCurrentTuple() storage.Tuple {
	return n.currentTuple
}

// SupportsMarking is always true: a table scan's position is just a
// RecordID, trivial to remember and seek back to.
func (n *TableScanNode) SupportsMarking() bool { return true }

func (n *TableScanNode) MarkCurrentPosition() error {
	common.Assert(n.hasCurrent, "MarkCurrentPosition called with no current tuple")
	n.markedRID = n.currentRID
	n.hasMark = true
	return nil
}

func (n *TableScanNode) ResetToLastMark() error {
	if !n.hasMark {
		return common.NewGoDBError(common.InvalidStateError, "ResetToLastMark called before any MarkCurrentPosition")
	}
	tup, err := n.cursor.TupleAt(n.markedRID)
	if err != nil {
		return err
	}
	n.currentRID = n.markedRID
	n.hasCurrent = true
	n.currentTuple = tup
	return nil
}

// CleanUp is a no-op: TupleCursor pins and releases pages per tuple and
// holds nothing across calls.
func (n *TableScanNode) CleanUp() error { return nil }

func (n *TableScanNode) Children() []PlanNode { return nil }

// Duplicate returns a fresh, independently-initializable scan of the same
// table. It does not carry over any iteration or mark state.
func (n *TableScanNode) Duplicate() PlanNode {
	dup := NewTableScanNode(n.TableOid, n.schema, n.heapFile)
	dup.stats = n.stats
	dup.cost = n.cost
	return dup
}

func (n *TableScanNode) Equals(other PlanNode) bool {
	o, ok := other.(*TableScanNode)
	return ok && o.TableOid == n.TableOid
}

func (n *TableScanNode) String() string {
	return fmt.Sprintf("TableScan[oid=%d]", n.TableOid)
}
