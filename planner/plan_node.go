package planner

import (
	"fmt"

	"mit.edu/dsg/godb/relations"
	"mit.edu/dsg/godb/storage"
)

// PlanNode is the single contract every operator in a query plan
// implements: an iterator over tuples, carrying its own schema and cost
// estimate, that can be asked to rewind to a marked position without being
// fully re-initialized. There is no separate "static plan" / "runtime
// executor" split -- a PlanNode is both at once, the same way one Java
// object plays both roles in a classic iterator-model query engine.
//
// The expected lifecycle is:
//
//	Prepare()                         // once, top-down then bottom-up
//	Initialize()
//	for Next() { ... GetCurrentTuple() ... }
//	CleanUp()
//
// Initialize/Next/CleanUp may be run repeatedly (e.g. for the inner side of
// a nested-loop join) without calling Prepare again.
type PlanNode interface {
	// Prepare computes this node's output Schema, TableStats, and Cost from
	// its children, recursing into them first. It must be called exactly
	// once before Initialize.
	Prepare() error

	// Schema returns the schema of the tuples this node produces. Valid only
	// after Prepare.
	Schema() *relations.Schema

	// Stats returns the per-column cardinality estimates for this node's
	// output, aligned with Schema(). Valid only after Prepare.
	Stats() *relations.TableStats

	// Cost returns this node's estimated execution cost. Valid only after Prepare.
	Cost() relations.PlanCost

	// Initialize resets the node to start producing tuples from the
	// beginning. It must be called before the first Next call, and may be
	// called again later to restart the node from scratch.
	Initialize() error

	// Next advances to the next output tuple, returning false once the node
	// is exhausted. Once Next returns false, it keeps returning false until
	// the node is Initialize'd again.
	Next() (bool, error)

	// GetCurrentTuple returns the tuple Next last advanced to. Calling it
	// before any Next, or after Next returned false, is a programming error.
	GetCurrentTuple() storage.Tuple

	// SupportsMarking reports whether this node can answer
	// MarkCurrentPosition/ResetToLastMark. Nodes that buffer or re-derive
	// their entire input (e.g. a sort) typically can; nodes whose child
	// cannot support marking propagate that limitation upward.
	SupportsMarking() bool

	// MarkCurrentPosition records the current tuple position so a later
	// ResetToLastMark can return to it. Only valid if SupportsMarking is true.
	MarkCurrentPosition() error

	// ResetToLastMark rewinds the node to the position last recorded by
	// MarkCurrentPosition, without a full Initialize.
	ResetToLastMark() error

	// CleanUp releases any resources (page pins, temporary files) held by
	// this node and its children. Safe to call multiple times.
	CleanUp() error

	// Children returns this node's child plan nodes, in evaluation order.
	Children() []PlanNode

	// Duplicate returns a structurally identical, independently
	// initializable copy of this node and its subtree -- used when the same
	// sub-plan must be driven from two places (e.g. both sides of a
	// self-join). The copy shares no mutable iteration state with the original.
	Duplicate() PlanNode

	// Equals reports whether other is structurally equivalent to this node:
	// same node type, same parameters, and equal children. Used by plan
	// equality/hashing in tests and by any future plan cache.
	Equals(other PlanNode) bool

	fmt.Stringer
}
