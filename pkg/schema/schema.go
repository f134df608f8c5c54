// Package schema defines the immutable column descriptor set shared by
// every batch of one conversion stream, and the mapping from semantic
// column types to Arrow types.
package schema

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/sasarrow/pkg/errors"
)

// ColumnType is the semantic type tag of a column, independent of its
// physical byte layout in the row buffer.
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeInteger
	ColumnTypeNumber
	ColumnTypeDatetime
	ColumnTypeDate
	ColumnTypeTime
	ColumnTypeUnknown
)

// String returns the lowercase name of the column type.
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInteger:
		return "integer"
	case ColumnTypeNumber:
		return "number"
	case ColumnTypeDatetime:
		return "datetime"
	case ColumnTypeDate:
		return "date"
	case ColumnTypeTime:
		return "time"
	default:
		return "unknown"
	}
}

// ArrowType maps a semantic type to its Arrow data type: string→utf8,
// integer→int64, number→float64, datetime→timestamp[µs], date→date32,
// time→time64[µs]. Unknown columns fall back to utf8.
func (t ColumnType) ArrowType() arrow.DataType {
	switch t {
	case ColumnTypeString:
		return arrow.BinaryTypes.String
	case ColumnTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case ColumnTypeNumber:
		return arrow.PrimitiveTypes.Float64
	case ColumnTypeDatetime:
		return &arrow.TimestampType{Unit: arrow.Microsecond}
	case ColumnTypeDate:
		return arrow.FixedWidthTypes.Date32
	case ColumnTypeTime:
		return arrow.FixedWidthTypes.Time64us
	default:
		return arrow.BinaryTypes.String
	}
}

// Sentinel field encodings for invalid/unset date and time values. The
// decoder writes these markers into the row buffer; the converter turns
// them into Arrow nulls.
var (
	datetimeSentinel = int64(math.MinInt64)
	dateSentinel     = int32(math.MinInt32)
	timeSentinel     = int64(math.MinInt64)
)

// epoch is 1970-01-01T00:00:00 UTC, the reference point for datetime and
// date conversions.
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Column describes one column: name, semantic type and the byte length of
// its field in the fixed row layout. Immutable once its Schema is built.
type Column struct {
	Name   string
	Type   ColumnType
	Length int

	offset int
}

// Offset returns the byte offset of this column's field within a row
// buffer. Valid only after the column has been bound into a Schema.
func (c *Column) Offset() int { return c.offset }

// fixedWidth returns the mandatory field width for fixed-width types, or
// 0 for variable-length (string/unknown) columns.
func (t ColumnType) fixedWidth() int {
	switch t {
	case ColumnTypeInteger, ColumnTypeNumber, ColumnTypeDatetime, ColumnTypeTime:
		return 8
	case ColumnTypeDate:
		return 4
	default:
		return 0
	}
}

// Schema is the ordered, immutable column descriptor set. It is created
// once at stream initialization and shared read-only by every batch.
type Schema struct {
	columns  []Column
	rowWidth int
}

// New validates the column definitions, computes field offsets and returns
// the bound schema. Fixed-width columns have their length forced to the
// width of their encoding; string and unknown columns must declare a
// positive length.
func New(columns []Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.New(errors.ErrorTypeInput, "schema requires at least one column")
	}

	s := &Schema{columns: make([]Column, len(columns))}
	copy(s.columns, columns)

	offset := 0
	for i := range s.columns {
		col := &s.columns[i]
		if col.Name == "" {
			return nil, errors.New(errors.ErrorTypeInput, "column name must not be empty").
				WithDetail("index", i)
		}
		if w := col.Type.fixedWidth(); w > 0 {
			col.Length = w
		} else if col.Length <= 0 {
			return nil, errors.New(errors.ErrorTypeInput, "variable-length column requires a positive byte length").
				WithDetail("column", col.Name)
		}
		col.offset = offset
		offset += col.Length
	}
	s.rowWidth = offset

	return s, nil
}

// NumColumns returns the number of columns.
func (s *Schema) NumColumns() int { return len(s.columns) }

// Column returns the i-th column descriptor.
func (s *Schema) Column(i int) *Column { return &s.columns[i] }

// Columns returns the ordered column descriptors.
func (s *Schema) Columns() []Column { return s.columns }

// RowWidth is the total byte length of one row buffer.
func (s *Schema) RowWidth() int { return s.rowWidth }

// Arrow builds the Arrow schema equivalent of this descriptor set. All
// fields are nullable; string columns never carry nulls in practice
// because the source has no presence flag for them.
func (s *Schema) Arrow() *arrow.Schema {
	fields := make([]arrow.Field, len(s.columns))
	for i, col := range s.columns {
		fields[i] = arrow.Field{Name: col.Name, Type: col.Type.ArrowType(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Raw field accessors. Each borrows the row buffer for the duration of the
// call only; the buffer may be reused by the decoder afterwards.

func (c *Column) field(buf []byte) []byte {
	return buf[c.offset : c.offset+c.Length]
}

// String decodes a string field, trimming trailing NUL padding and spaces.
func (c *Column) String(buf []byte) string {
	b := c.field(buf)
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ') {
		end--
	}
	return string(b[:end])
}

// Integer decodes a 64-bit little-endian signed integer field.
func (c *Column) Integer(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(c.field(buf)))
}

// Number decodes a little-endian IEEE float64 field. NaN marks a missing
// value.
func (c *Column) Number(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(c.field(buf)))
}

// Datetime decodes a datetime field (microseconds since the Unix epoch).
// The zero time reports an invalid/unset value.
func (c *Column) Datetime(buf []byte) time.Time {
	v := int64(binary.LittleEndian.Uint64(c.field(buf)))
	if v == datetimeSentinel {
		return time.Time{}
	}
	return epoch.Add(time.Duration(v) * time.Microsecond)
}

// Date decodes a date field (days since 1970-01-01). The zero time
// reports an invalid/unset value.
func (c *Column) Date(buf []byte) time.Time {
	v := int32(binary.LittleEndian.Uint32(c.field(buf)))
	if v == dateSentinel {
		return time.Time{}
	}
	return epoch.AddDate(0, 0, int(v))
}

// Time decodes a time-of-day field as the duration elapsed since
// midnight. The second result is false for the invalid/unset marker.
func (c *Column) Time(buf []byte) (time.Duration, bool) {
	v := int64(binary.LittleEndian.Uint64(c.field(buf)))
	if v == timeSentinel {
		return 0, false
	}
	return time.Duration(v) * time.Microsecond, true
}

// Text renders any field as text. Used as the fallback for unknown column
// types.
func (c *Column) Text(buf []byte) string {
	switch c.Type {
	case ColumnTypeInteger:
		return strconv.FormatInt(c.Integer(buf), 10)
	case ColumnTypeNumber:
		return strconv.FormatFloat(c.Number(buf), 'g', -1, 64)
	default:
		return c.String(buf)
	}
}

// EncodeDatetime converts a timestamp into its row-buffer field encoding.
// The zero time encodes the invalid marker.
func EncodeDatetime(buf []byte, v time.Time) {
	if v.IsZero() {
		binary.LittleEndian.PutUint64(buf, uint64(datetimeSentinel))
		return
	}
	binary.LittleEndian.PutUint64(buf, uint64(v.Sub(epoch)/time.Microsecond))
}

// EncodeDate converts a date into its row-buffer field encoding. The zero
// time encodes the invalid marker.
func EncodeDate(buf []byte, v time.Time) {
	if v.IsZero() {
		binary.LittleEndian.PutUint32(buf, uint32(dateSentinel))
		return
	}
	days := int32(v.Sub(epoch) / (24 * time.Hour))
	binary.LittleEndian.PutUint32(buf, uint32(days))
}

// EncodeTime converts a time-of-day duration into its row-buffer field
// encoding. A negative duration encodes the invalid marker.
func EncodeTime(buf []byte, v time.Duration) {
	if v < 0 {
		binary.LittleEndian.PutUint64(buf, uint64(timeSentinel))
		return
	}
	binary.LittleEndian.PutUint64(buf, uint64(v/time.Microsecond))
}
