package planner

import (
	"fmt"
	"math"
	"strings"

	"mit.edu/dsg/godb/common"
	"mit.edu/dsg/godb/relations"
	"mit.edu/dsg/godb/storage"
)

// ProjectionNode evaluates a projection list against each tuple its child
// produces: SELECT <projectionSpec> FROM <child>. The projection list is an
// ordered mix of wildcards and expressions; the output schema is built in
// that same order.
type ProjectionNode struct {
	Child          PlanNode
	ProjectionSpec []SelectValue

	// wildcardIndexes[i] holds, for a wildcard entry at ProjectionSpec[i],
	// the input-schema column indexes it expands to. nil for every other entry.
	wildcardIndexes [][]int

	schema *relations.Schema
	stats  *relations.TableStats
	cost   relations.PlanCost

	env          *Environment
	currentTuple storage.Tuple
	done         bool
}

// NewProjectionNode builds a ProjectionNode evaluating spec over child's output.
func NewProjectionNode(child PlanNode, spec []SelectValue) *ProjectionNode {
	return &ProjectionNode{Child: child, ProjectionSpec: spec}
}

// isTrivial reports whether this projection is exactly "SELECT *": an
// identity pass-through that never needs to rebuild tuples.
func (n *ProjectionNode) isTrivial() bool {
	return len(n.ProjectionSpec) == 1 && n.ProjectionSpec[0].Wildcard && n.ProjectionSpec[0].WildcardTable == ""
}

// Prepare derives the output schema, per-column stats, and cost from the
// child's, by walking the projection list once. A bare column reference
// keeps its source column's name, qualifier, and statistics; every other
// expression gets a synthesized column whose only known statistic is that
// it can be no more selective than the number of input rows.
func (n *ProjectionNode) Prepare() error {
	if err := n.Child.Prepare(); err != nil {
		return err
	}

	inputSchema := n.Child.Schema()
	inputStats := n.Child.Stats()
	inputCost := n.Child.Cost()

	n.wildcardIndexes = make([][]int, len(n.ProjectionSpec))

	var schemaCols []relations.ColumnInfo
	var statsCols []relations.ColumnStats

	for i, sv := range n.ProjectionSpec {
		switch {
		case sv.Wildcard:
			var indexes []int
			if sv.WildcardTable != "" {
				indexes = inputSchema.FindColumnsByQualifier(sv.WildcardTable)
				if len(indexes) == 0 {
					return common.NewGoDBError(common.UnknownColumnError,
						"no columns found for table qualifier %q", sv.WildcardTable)
				}
			} else {
				indexes = make([]int, inputSchema.NumColumns())
				for j := range indexes {
					indexes[j] = j
				}
			}
			n.wildcardIndexes[i] = indexes
			schemaCols = append(schemaCols, inputSchema.Project(indexes).Columns...)
			statsCols = append(statsCols, inputStats.Project(indexes).Columns...)

		case sv.IsScalarSubquery:
			return common.NewGoDBError(common.UnsupportedError, "scalar subqueries in a projection list are not supported")

		default:
			expr := sv.Expression
			if colExpr, ok := expr.(*ColumnValueExpr); ok {
				idx, err := inputSchema.FindColumn(colExpr.Qualifier(), colExpr.Name())
				if err != nil {
					return err
				}
				colInfo := inputSchema.Columns[idx]
				if sv.Alias != "" {
					colInfo.Name = sv.Alias
					colInfo.Qualifier = ""
				}
				schemaCols = append(schemaCols, colInfo)
				statsCols = append(statsCols, inputStats.Columns[idx])
				continue
			}

			name := sv.Alias
			if name == "" {
				name = expr.String()
			}
			schemaCols = append(schemaCols, relations.ColumnInfo{Name: name, Type: expr.OutputType()})
			statsCols = append(statsCols, relations.ColumnStats{NumUniqueValues: math.Round(inputCost.NumTuples)})
		}
	}

	n.schema = relations.NewSchema(schemaCols...)
	n.stats = relations.NewTableStats(statsCols...)
	n.cost = inputCost
	n.cost.CPUCost += inputCost.NumTuples
	return nil
}

func (n *ProjectionNode) Schema() *relations.Schema    { return n.schema }
func (n *ProjectionNode) Stats() *relations.TableStats { return n.stats }
func (n *ProjectionNode) Cost() relations.PlanCost     { return n.cost }

func (n *ProjectionNode) Initialize() error {
	n.done = false
	n.currentTuple = storage.Tuple{}
	n.env = NewEnvironment()
	return n.Child.Initialize()
}

func (n *ProjectionNode) Next() (bool, error) {
	if n.done {
		return false, nil
	}

	ok, err := n.Child.Next()
	if err != nil {
		return false, err
	}
	if !ok {
		n.done = true
		return false, nil
	}

	n.currentTuple = n.projectTuple(n.Child.GetCurrentTuple())
	return true, nil
}

func (n *ProjectionNode) projectTuple(t storage.Tuple) storage.Tuple {
	if n.isTrivial() {
		return t
	}

	n.env.Clear()
	n.env.AddTuple(n.Child.Schema(), t)

	builder := storage.NewTupleBuilder()
	for i, sv := range n.ProjectionSpec {
		if sv.Wildcard {
			for _, idx := range n.wildcardIndexes[i] {
				builder.AddValue(t.GetValue(idx))
			}
			continue
		}
		builder.AddValue(sv.Expression.Eval(n.env))
	}
	return builder.Build()
}

func (n *ProjectionNode) GetCurrentTuple() storage.Tuple {
	return n.currentTuple
}

func (n *ProjectionNode) SupportsMarking() bool { return n.Child.SupportsMarking() }

func (n *ProjectionNode) MarkCurrentPosition() error { return n.Child.MarkCurrentPosition() }

func (n *ProjectionNode) ResetToLastMark() error { return n.Child.ResetToLastMark() }

func (n *ProjectionNode) CleanUp() error { return n.Child.CleanUp() }

func (n *ProjectionNode) Children() []PlanNode { return []PlanNode{n.Child} }

// Duplicate deep-copies the projection spec (the expressions inside each
// entry are immutable once built and safe to share) and carries forward the
// schema/stats/cost/wildcardIndexes this node already computed in Prepare,
// so the copy is independently Initialize-able without requiring the caller
// to Prepare it again.
func (n *ProjectionNode) Duplicate() PlanNode {
	specCopy := append([]SelectValue(nil), n.ProjectionSpec...)
	wildcardCopy := append([][]int(nil), n.wildcardIndexes...)
	return &ProjectionNode{
		Child:           n.Child.Duplicate(),
		ProjectionSpec:  specCopy,
		wildcardIndexes: wildcardCopy,
		schema:          n.schema,
		stats:           n.stats,
		cost:            n.cost,
	}
}

func (n *ProjectionNode) Equals(other PlanNode) bool {
	o, ok := other.(*ProjectionNode)
	if !ok || len(o.ProjectionSpec) != len(n.ProjectionSpec) {
		return false
	}
	for i := range n.ProjectionSpec {
		a, b := n.ProjectionSpec[i], o.ProjectionSpec[i]
		if a.Wildcard != b.Wildcard || a.WildcardTable != b.WildcardTable ||
			a.Alias != b.Alias || a.IsScalarSubquery != b.IsScalarSubquery {
			return false
		}
		if a.Expression == nil || b.Expression == nil {
			if a.Expression != b.Expression {
				return false
			}
			continue
		}
		if a.Expression.String() != b.Expression.String() {
			return false
		}
	}
	return n.Child.Equals(o.Child)
}

func (n *ProjectionNode) String() string {
	parts := make([]string, len(n.ProjectionSpec))
	for i, sv := range n.ProjectionSpec {
		parts[i] = sv.String()
	}
	return fmt.Sprintf("Project[%s]", strings.Join(parts, ", "))
}
