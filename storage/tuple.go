package storage

import (
	"fmt"

	"mit.edu/dsg/godb/common"
)

// RawTuple is the "physical view" of a row: a slice of bytes corresponding
// exactly to the layout of a tuple on a disk page. It does not know what
// data it contains -- a RawTupleCodec is required to interpret it.
type RawTuple []byte

// RawTupleCodec describes the physical binary layout of a RawTuple: the
// fixed-width encoding of each column, and the byte offset at which it
// begins. This is the "codec" capability the core borrows from the
// surrounding system; it never invents its own type encodings.
type RawTupleCodec struct {
	fields      []common.Type
	offsets     []int
	bytesPerRow int
}

// NewRawTupleCodec builds a codec for a fixed sequence of column types,
// computing each column's byte offset within the encoded row.
func NewRawTupleCodec(fields []common.Type) *RawTupleCodec {
	offsets := make([]int, len(fields))
	size := 0
	for i, t := range fields {
		offsets[i] = size
		size += t.Size()
	}
	return &RawTupleCodec{fields: fields, offsets: offsets, bytesPerRow: size}
}

func (c *RawTupleCodec) String() string {
	return fmt.Sprintf("%v", c.fields)
}

// NumColumns returns the number of physical columns this codec describes.
func (c *RawTupleCodec) NumColumns() int { return len(c.fields) }

// BytesPerTuple returns the fixed number of bytes a tuple occupies on disk.
func (c *RawTupleCodec) BytesPerTuple() int { return c.bytesPerRow }

// FieldType returns the type of the column at index i.
func (c *RawTupleCodec) FieldType(i int) common.Type { return c.fields[i] }

// FieldOffset returns the byte offset at which column i begins.
func (c *RawTupleCodec) FieldOffset(i int) int { return c.offsets[i] }

// GetValue decodes the value of column i from the raw tuple bytes.
func (c *RawTupleCodec) GetValue(t RawTuple, i int) common.Value {
	return common.AsValue(c.fields[i], t[c.offsets[i]:])
}

// SetValue encodes val into column i of the raw tuple bytes.
func (c *RawTupleCodec) SetValue(t RawTuple, i int, val common.Value) {
	common.Assert(val.Type() == c.fields[i], "type mismatch writing column %d", i)
	val.WriteTo(t[c.offsets[i]:])
}

// Tuple is the "logical view" of a row exchanged between plan nodes. It
// bridges a RawTuple backed by a slotted page with purely virtual columns
// produced by operators like projection that don't correspond to any
// on-disk storage.
type Tuple struct {
	rawTuple RawTuple
	rawCodec *RawTupleCodec

	extraValues []common.Value

	rid common.RecordID
}

// FromRawTuple wraps physically-stored bytes as a Tuple without copying them.
func FromRawTuple(rawTuple RawTuple, codec *RawTupleCodec, rid common.RecordID) Tuple {
	return Tuple{rawTuple: rawTuple, rawCodec: codec, rid: rid}
}

// FromValues creates a purely virtual Tuple out of computed values.
func FromValues(values ...common.Value) Tuple {
	return Tuple{extraValues: values}
}

// IsNil reports whether the tuple is the zero value.
func (t Tuple) IsNil() bool {
	return t.rawCodec == nil && t.extraValues == nil
}

// RID returns the tuple's identity on disk, or the zero RecordID if virtual.
func (t Tuple) RID() common.RecordID {
	return t.rid
}

// NumColumns returns the number of columns, physical plus virtual.
func (t Tuple) NumColumns() int {
	physCols := 0
	if t.rawCodec != nil {
		physCols = t.rawCodec.NumColumns()
	}
	return physCols + len(t.extraValues)
}

// GetValue retrieves the value at column index i, whether backed by physical
// storage or computed.
func (t Tuple) GetValue(i int) common.Value {
	physCols := 0
	if t.rawCodec != nil {
		physCols = t.rawCodec.NumColumns()
	}
	if i < physCols {
		return t.rawCodec.GetValue(t.rawTuple, i)
	}
	return t.extraValues[i-physCols]
}

// TupleBuilder incrementally assembles a new, purely virtual tuple one
// value at a time. It is the mechanism projection uses to build the output
// row when the projection is not a trivial pass-through.
type TupleBuilder struct {
	values []common.Value
}

// NewTupleBuilder returns an empty builder.
func NewTupleBuilder() *TupleBuilder {
	return &TupleBuilder{}
}

// AddValue appends a single column value.
func (b *TupleBuilder) AddValue(v common.Value) {
	b.values = append(b.values, v)
}

// AppendTuple appends every column of t, in order.
func (b *TupleBuilder) AppendTuple(t Tuple) {
	for i := 0; i < t.NumColumns(); i++ {
		b.values = append(b.values, t.GetValue(i))
	}
}

// Build materializes the accumulated values as a Tuple.
func (b *TupleBuilder) Build() Tuple {
	return FromValues(b.values...)
}
