package relations

// ColumnStats holds a single cardinality estimate for one column, aligned
// 1:1 with the Schema it describes: stats[i] always describes Columns[i].
// This engine only tracks NumUniqueValues; it is enough to let an operator
// like projection carry a coarse estimate forward without inventing one out
// of thin air.
type ColumnStats struct {
	NumUniqueValues float64
}

// TableStats is the aligned sibling of a Schema: one ColumnStats per column.
type TableStats struct {
	Columns []ColumnStats
}

// NewTableStats builds a TableStats with one entry per column, in order.
func NewTableStats(columns ...ColumnStats) *TableStats {
	return &TableStats{Columns: columns}
}

// Append returns a new TableStats whose entries are t's entries followed by
// other's, mirroring Schema.Append.
func (t *TableStats) Append(other *TableStats) *TableStats {
	merged := make([]ColumnStats, 0, len(t.Columns)+len(other.Columns))
	merged = append(merged, t.Columns...)
	merged = append(merged, other.Columns...)
	return &TableStats{Columns: merged}
}

// Project returns a new TableStats containing only the entries at the given
// indexes, in the order given, mirroring Schema.Project.
func (t *TableStats) Project(indexes []int) *TableStats {
	out := make([]ColumnStats, len(indexes))
	for i, idx := range indexes {
		out[i] = t.Columns[idx]
	}
	return &TableStats{Columns: out}
}

// PlanCost is the running cost estimate a plan node accumulates from its
// inputs. CPUCost and IOCost are abstract units, not wall-clock time; they
// exist to let operators compare candidate plans, not to predict latency.
type PlanCost struct {
	CPUCost   float64
	IOCost    float64
	NumTuples float64
	TupleSize float64
}
