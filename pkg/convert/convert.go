// Package convert implements the type-directed mapping from fixed-layout
// row buffer fields to Arrow builder appends. The dispatch table is built
// once per schema so builder creation and value append can never drift
// apart.
package convert

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
)

// AppendFunc converts one field of a borrowed row buffer and appends the
// resulting value (or an explicit null) to the column's builder. The
// buffer must not be retained past the call.
type AppendFunc func(b array.Builder, buf []byte) error

// entry pairs a builder factory with the matching append function for one
// column.
type entry struct {
	newBuilder func(mem memory.Allocator) array.Builder
	append     AppendFunc
}

// Table is the per-schema dispatch table. Built once when the schema is
// fixed, then shared by every chunk of the stream.
type Table struct {
	mem     memory.Allocator
	entries []entry
}

// NewTable builds the dispatch table for the given schema.
func NewTable(s *schema.Schema, mem memory.Allocator) *Table {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	t := &Table{
		mem:     mem,
		entries: make([]entry, s.NumColumns()),
	}
	for i := 0; i < s.NumColumns(); i++ {
		t.entries[i] = newEntry(s.Column(i))
	}
	return t
}

// NumColumns returns the number of columns the table dispatches for.
func (t *Table) NumColumns() int { return len(t.entries) }

// NewBuilder creates a fresh, empty builder for column i.
func (t *Table) NewBuilder(i int) array.Builder {
	return t.entries[i].newBuilder(t.mem)
}

// Append converts the field of column i from buf and appends it to b.
func (t *Table) Append(i int, b array.Builder, buf []byte) error {
	return t.entries[i].append(b, buf)
}

func newEntry(col *schema.Column) entry {
	c := col // captured per column

	switch col.Type {
	case schema.ColumnTypeString:
		return entry{
			newBuilder: func(mem memory.Allocator) array.Builder {
				return array.NewStringBuilder(mem)
			},
			// Strings are always present: the source carries no
			// null bit for them, so an empty field appends as "".
			append: func(b array.Builder, buf []byte) error {
				sb, ok := b.(*array.StringBuilder)
				if !ok {
					return mismatch(c, b)
				}
				sb.Append(c.String(buf))
				return nil
			},
		}

	case schema.ColumnTypeInteger:
		return entry{
			newBuilder: func(mem memory.Allocator) array.Builder {
				return array.NewInt64Builder(mem)
			},
			append: func(b array.Builder, buf []byte) error {
				ib, ok := b.(*array.Int64Builder)
				if !ok {
					return mismatch(c, b)
				}
				ib.Append(c.Integer(buf))
				return nil
			},
		}

	case schema.ColumnTypeNumber:
		return entry{
			newBuilder: func(mem memory.Allocator) array.Builder {
				return array.NewFloat64Builder(mem)
			},
			append: func(b array.Builder, buf []byte) error {
				fb, ok := b.(*array.Float64Builder)
				if !ok {
					return mismatch(c, b)
				}
				v := c.Number(buf)
				if math.IsNaN(v) {
					fb.AppendNull()
				} else {
					fb.Append(v)
				}
				return nil
			},
		}

	case schema.ColumnTypeDatetime:
		dt := schema.ColumnTypeDatetime.ArrowType()
		return entry{
			newBuilder: func(mem memory.Allocator) array.Builder {
				return array.NewTimestampBuilder(mem, dt.(*arrow.TimestampType))
			},
			append: func(b array.Builder, buf []byte) error {
				tb, ok := b.(*array.TimestampBuilder)
				if !ok {
					return mismatch(c, b)
				}
				v := c.Datetime(buf)
				if v.IsZero() {
					tb.AppendNull()
					return nil
				}
				tb.Append(arrow.Timestamp(v.UnixMicro()))
				return nil
			},
		}

	case schema.ColumnTypeDate:
		return entry{
			newBuilder: func(mem memory.Allocator) array.Builder {
				return array.NewDate32Builder(mem)
			},
			append: func(b array.Builder, buf []byte) error {
				db, ok := b.(*array.Date32Builder)
				if !ok {
					return mismatch(c, b)
				}
				v := c.Date(buf)
				if v.IsZero() {
					db.AppendNull()
					return nil
				}
				db.Append(arrow.Date32FromTime(v))
				return nil
			},
		}

	case schema.ColumnTypeTime:
		tt := schema.ColumnTypeTime.ArrowType()
		return entry{
			newBuilder: func(mem memory.Allocator) array.Builder {
				return array.NewTime64Builder(mem, tt.(*arrow.Time64Type))
			},
			append: func(b array.Builder, buf []byte) error {
				tb, ok := b.(*array.Time64Builder)
				if !ok {
					return mismatch(c, b)
				}
				v, valid := c.Time(buf)
				if !valid {
					tb.AppendNull()
					return nil
				}
				tb.Append(arrow.Time64(v.Microseconds()))
				return nil
			},
		}

	default: // unknown: render as text rather than fail
		return entry{
			newBuilder: func(mem memory.Allocator) array.Builder {
				return array.NewStringBuilder(mem)
			},
			append: func(b array.Builder, buf []byte) error {
				sb, ok := b.(*array.StringBuilder)
				if !ok {
					return mismatch(c, b)
				}
				sb.Append(c.Text(buf))
				return nil
			},
		}
	}
}

func mismatch(c *schema.Column, b array.Builder) error {
	return errors.New(errors.ErrorTypeConversion, "builder type does not match column type").
		WithDetail("column", c.Name).
		WithDetail("column_type", c.Type.String()).
		WithDetail("builder", b.Type().String())
}
