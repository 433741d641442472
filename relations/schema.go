// Package relations describes the shape and estimated content of the rows
// flowing between plan nodes: column names and types (Schema), per-column
// cardinality estimates (ColumnStats), and the running cost estimate a node
// accumulates from its inputs (PlanCost). None of this package performs I/O;
// it is the bookkeeping prepare() passes up and down the plan tree.
package relations

import (
	"fmt"

	"mit.edu/dsg/godb/common"
)

// ColumnInfo names one column of a Schema. Qualifier is the table (or
// subquery alias) the column came from, and is empty for purely computed
// columns that were never attached to a table.
type ColumnInfo struct {
	Name      string
	Qualifier string
	Type      common.Type
}

func (ci ColumnInfo) String() string {
	if ci.Qualifier == "" {
		return ci.Name
	}
	return fmt.Sprintf("%s.%s", ci.Qualifier, ci.Name)
}

// Schema is an ordered list of columns. Column order is significant: it is
// the order values appear in the corresponding Tuple.
type Schema struct {
	Columns []ColumnInfo
}

// NewSchema builds a Schema from its columns, in order.
func NewSchema(columns ...ColumnInfo) *Schema {
	return &Schema{Columns: columns}
}

// NumColumns returns the number of columns in the schema.
func (s *Schema) NumColumns() int {
	return len(s.Columns)
}

// FindColumn resolves name (optionally qualified by table) to its index in
// the schema. It returns UnknownColumnError if no column matches, and
// AmbiguousColumnError if more than one does.
func (s *Schema) FindColumn(qualifier, name string) (int, error) {
	found := -1
	for i, col := range s.Columns {
		if col.Name != name {
			continue
		}
		if qualifier != "" && col.Qualifier != qualifier {
			continue
		}
		if found != -1 {
			return -1, common.NewGoDBError(common.AmbiguousColumnError,
				"column reference %q matches more than one column in scope", name)
		}
		found = i
	}
	if found == -1 {
		return -1, common.NewGoDBError(common.UnknownColumnError,
			"column reference %q does not match any column in scope", name)
	}
	return found, nil
}

// FindColumnsByQualifier returns, in schema order, the indexes of every
// column carrying the given table qualifier. Used to expand a qualified
// wildcard such as `t.*`.
func (s *Schema) FindColumnsByQualifier(qualifier string) []int {
	var indexes []int
	for i, col := range s.Columns {
		if col.Qualifier == qualifier {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Append returns a new Schema whose columns are s's columns followed by
// other's. Neither input is mutated.
func (s *Schema) Append(other *Schema) *Schema {
	merged := make([]ColumnInfo, 0, len(s.Columns)+len(other.Columns))
	merged = append(merged, s.Columns...)
	merged = append(merged, other.Columns...)
	return &Schema{Columns: merged}
}

// Project returns a new Schema containing only the columns at the given
// indexes, in the order given.
func (s *Schema) Project(indexes []int) *Schema {
	out := make([]ColumnInfo, len(indexes))
	for i, idx := range indexes {
		out[i] = s.Columns[idx]
	}
	return &Schema{Columns: out}
}

func (s *Schema) String() string {
	return fmt.Sprintf("%v", s.Columns)
}
