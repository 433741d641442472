package planner

import (
	"mit.edu/dsg/godb/common"
	"mit.edu/dsg/godb/relations"
	"mit.edu/dsg/godb/storage"
)

// binding pairs one schema with the tuple currently bound to it.
type binding struct {
	schema *relations.Schema
	tuple  storage.Tuple
}

// Environment is the short-lived context an expression is evaluated
// against: an ordered list of (schema, tuple) bindings contributed by the
// plan nodes currently in scope. A node that evaluates an expression over
// its own input clears the environment and adds exactly one binding before
// calling Expr.Eval; a join evaluating a condition over both of its
// children adds two.
type Environment struct {
	bindings []binding
}

// NewEnvironment returns an empty environment.
func NewEnvironment() *Environment {
	return &Environment{}
}

// Clear drops every binding, readying the environment for reuse on the next tuple.
func (e *Environment) Clear() {
	e.bindings = e.bindings[:0]
}

// AddTuple binds tuple against schema, appending it after any existing bindings.
func (e *Environment) AddTuple(schema *relations.Schema, tuple storage.Tuple) {
	e.bindings = append(e.bindings, binding{schema: schema, tuple: tuple})
}

// Resolve looks up the value of a column reference. Bindings are searched in
// the order they were added; the first schema containing a match for name
// wins, even if a later binding also has a column by that name -- only a
// collision within a single schema is reported as ambiguous.
func (e *Environment) Resolve(qualifier, name string) (common.Value, error) {
	for _, b := range e.bindings {
		idx, err := b.schema.FindColumn(qualifier, name)
		if err != nil {
			if common.IsCode(err, common.AmbiguousColumnError) {
				return common.Value{}, err
			}
			continue
		}
		return b.tuple.GetValue(idx), nil
	}
	return common.Value{}, common.NewGoDBError(common.UnknownColumnError,
		"column reference %q does not resolve against any bound schema", name)
}
