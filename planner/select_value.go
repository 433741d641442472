package planner

import "fmt"

// SelectValue is one entry of a projection list. A ProjectionNode's
// projection spec is an ordered slice of these, mirroring how a SELECT
// clause mixes wildcards and expressions: SELECT t.*, a + b AS total, c.
type SelectValue struct {
	// Wildcard, if true, expands to every column of WildcardTable (or of
	// the whole input, if WildcardTable is empty). Mutually exclusive with
	// Expression and IsScalarSubquery.
	Wildcard       bool
	WildcardTable  string

	// Expression, if set, is evaluated once per input tuple. Alias, if
	// non-empty, relabels the resulting column; otherwise a bare column
	// reference keeps its source column's name and qualifier, and any other
	// expression is named by its Expr.String().
	Expression Expr
	Alias      string

	// IsScalarSubquery marks a SELECT entry this engine parses but does not
	// evaluate. A ProjectionNode rejects it with UnsupportedError rather
	// than silently producing a wrong answer.
	IsScalarSubquery bool
}

// NewWildcardSelectValue builds a `*` or `table.*` projection entry.
func NewWildcardSelectValue(table string) SelectValue {
	return SelectValue{Wildcard: true, WildcardTable: table}
}

// NewExpressionSelectValue builds an expression projection entry, optionally aliased.
func NewExpressionSelectValue(expr Expr, alias string) SelectValue {
	return SelectValue{Expression: expr, Alias: alias}
}

// NewScalarSubquerySelectValue builds a placeholder entry for a scalar
// subquery in a projection list. Evaluating it always fails with UnsupportedError.
func NewScalarSubquerySelectValue() SelectValue {
	return SelectValue{IsScalarSubquery: true}
}

func (sv SelectValue) String() string {
	switch {
	case sv.Wildcard:
		if sv.WildcardTable == "" {
			return "*"
		}
		return fmt.Sprintf("%s.*", sv.WildcardTable)
	case sv.IsScalarSubquery:
		return "(scalar subquery)"
	default:
		if sv.Alias != "" {
			return fmt.Sprintf("%s AS %s", sv.Expression.String(), sv.Alias)
		}
		return sv.Expression.String()
	}
}
