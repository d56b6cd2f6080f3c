// Package column provides the typed, immutable, nullable column store that
// feeds the computation graph. A column is a named sequence of scalar values
// of one element type; each element carries a distinct null marker, separate
// from NaN (which is an ordinary float64 value).
package column

import (
	"math"
)

// Type is the element type of a column.
type Type int

const (
	Float64 Type = iota
	String
	Bool
)

func (t Type) String() string {
	switch t {
	case Float64:
		return "float64"
	case String:
		return "string"
	case Bool:
		return "bool"
	}
	return "unknown"
}

// Column is an immutable, nullable sequence of scalar values addressed by
// name. Columns are never mutated after construction; derived columns are
// always fresh allocations, while Rename and Slice return views over the
// same backing storage.
type Column struct {
	name  string
	typ   Type
	flts  []float64
	strs  []string
	bools []bool
	// valid[i] ⇒ row i is non-null. A nil mask means all rows are valid.
	valid []bool
}

// NewFloat64 creates a float64 column with no null rows.
func NewFloat64(name string, values []float64) *Column {
	return &Column{name: name, typ: Float64, flts: values}
}

// NewFloat64Nullable creates a float64 column with the given validity mask.
// valid may be nil, meaning all rows are valid; otherwise its length must
// equal len(values).
func NewFloat64Nullable(name string, values []float64, valid []bool) *Column {
	return &Column{name: name, typ: Float64, flts: values, valid: valid}
}

// NewString creates a string column with no null rows.
func NewString(name string, values []string) *Column {
	return &Column{name: name, typ: String, strs: values}
}

// NewStringNullable creates a string column with the given validity mask.
func NewStringNullable(name string, values []string, valid []bool) *Column {
	return &Column{name: name, typ: String, strs: values, valid: valid}
}

// NewBool creates a bool column with no null rows.
func NewBool(name string, values []bool) *Column {
	return &Column{name: name, typ: Bool, bools: values}
}

// NewBoolNullable creates a bool column with the given validity mask.
func NewBoolNullable(name string, values []bool, valid []bool) *Column {
	return &Column{name: name, typ: Bool, bools: values, valid: valid}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the element type.
func (c *Column) Type() Type { return c.typ }

// Len returns the row count, nulls included.
func (c *Column) Len() int {
	switch c.typ {
	case Float64:
		return len(c.flts)
	case String:
		return len(c.strs)
	default:
		return len(c.bools)
	}
}

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.valid != nil && !c.valid[i]
}

// IsNaN reports whether row i is a non-null float64 NaN.
func (c *Column) IsNaN(i int) bool {
	return c.typ == Float64 && !c.IsNull(i) && math.IsNaN(c.flts[i])
}

// Float returns the float64 value at row i. Only meaningful for Float64
// columns with a non-null row i.
func (c *Column) Float(i int) float64 { return c.flts[i] }

// Str returns the string value at row i.
func (c *Column) Str(i int) string { return c.strs[i] }

// Bool returns the bool value at row i.
func (c *Column) Bool(i int) bool { return c.bools[i] }

// Rename returns a view of the column under a new name, sharing backing
// storage with the receiver.
func (c *Column) Rename(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// Slice returns a view of the first n rows. When n exceeds the row count
// the whole column is returned unchanged; n below zero is treated as zero.
func (c *Column) Slice(n int) *Column {
	if n < 0 {
		n = 0
	}
	if n >= c.Len() {
		return c
	}
	cp := *c
	switch c.typ {
	case Float64:
		cp.flts = c.flts[:n]
	case String:
		cp.strs = c.strs[:n]
	case Bool:
		cp.bools = c.bools[:n]
	}
	if c.valid != nil {
		cp.valid = c.valid[:n]
	}
	return &cp
}

// NonNullCount returns the number of non-null rows.
func (c *Column) NonNullCount() int {
	if c.valid == nil {
		return c.Len()
	}
	n := 0
	for _, v := range c.valid {
		if v {
			n++
		}
	}
	return n
}

// Values returns the rows as a JSON-ready slice: nulls become nil, other
// rows keep their scalar type.
func (c *Column) Values() []any {
	out := make([]any, c.Len())
	for i := range out {
		if c.IsNull(i) {
			continue // nil
		}
		switch c.typ {
		case Float64:
			out[i] = c.flts[i]
		case String:
			out[i] = c.strs[i]
		case Bool:
			out[i] = c.bools[i]
		}
	}
	return out
}
