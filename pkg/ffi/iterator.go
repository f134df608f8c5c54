package ffi

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ValueKind tags one cell crossing the boundary in row-oriented form.
// The numeric values are part of the C ABI.
type ValueKind int32

const (
	ValueKindNull ValueKind = iota
	ValueKindString
	ValueKindNumeric
	ValueKindInteger
	ValueKindDate
	ValueKindDatetime
	ValueKindTime
)

// Value is one converted cell. Exactly one of Str/Num/Int is meaningful,
// selected by Kind; IsNull overrides all of them.
type Value struct {
	Kind   ValueKind
	IsNull bool
	Str    string
	Num    float64
	Int    int64
}

// Iterator walks one batch row by row, yielding boundary values. Creating
// an iterator moves ownership of the batch out of the reader's queue; the
// iterator releases the record on destroy.
type Iterator struct {
	rec     arrow.Record
	row     int
	lastErr string
}

// NewIterator dequeues the oldest pending batch of the reader handle and
// wraps it. Returns StatusEndOfData when nothing is pending.
func NewIterator(h Handle) (Handle, Status) {
	r, ok := lookup(h)
	if !ok {
		setGlobalError("unknown reader handle")
		return 0, StatusNullArgument
	}

	b, err := r.cr.NextBatch()
	if err != nil {
		r.lastErr = "no pending batch"
		return 0, StatusEndOfData
	}

	it := &Iterator{rec: b.Record}

	handleMu.Lock()
	ih := nextHandle
	nextHandle++
	iterators[ih] = it
	handleMu.Unlock()

	return ih, StatusOK
}

// GetIterator resolves an iterator handle.
func GetIterator(h Handle) (*Iterator, bool) {
	handleMu.Lock()
	defer handleMu.Unlock()
	it, ok := iterators[h]
	return it, ok
}

// DestroyIterator releases the iterator's batch. Destroying an unknown
// handle is a no-op.
func DestroyIterator(h Handle) {
	handleMu.Lock()
	it, ok := iterators[h]
	delete(iterators, h)
	handleMu.Unlock()

	if ok {
		it.rec.Release()
	}
}

// HasNext reports whether NextRow would yield a row.
func (it *Iterator) HasNext() bool {
	return it.rec != nil && int64(it.row) < it.rec.NumRows()
}

// NumRows returns the batch's row count.
func (it *Iterator) NumRows() int64 {
	if it.rec == nil {
		return 0
	}
	return it.rec.NumRows()
}

// NextRow materializes the next row as one value per column and advances.
// Returns StatusEndOfData when the batch is exhausted.
func (it *Iterator) NextRow() ([]Value, Status) {
	if !it.HasNext() {
		return nil, StatusEndOfData
	}

	ncols := int(it.rec.NumCols())
	values := make([]Value, ncols)
	for i := 0; i < ncols; i++ {
		values[i] = cellValue(it.rec.Column(i), it.row)
	}
	it.row++
	return values, StatusOK
}

// cellValue extracts one cell from a finished column array into its
// boundary representation.
func cellValue(col arrow.Array, row int) Value {
	if col.IsNull(row) {
		return Value{Kind: kindOf(col), IsNull: true}
	}

	switch c := col.(type) {
	case *array.String:
		return Value{Kind: ValueKindString, Str: c.Value(row)}
	case *array.Int64:
		return Value{Kind: ValueKindInteger, Int: c.Value(row)}
	case *array.Float64:
		return Value{Kind: ValueKindNumeric, Num: c.Value(row)}
	case *array.Timestamp:
		// Microseconds since the Unix epoch.
		return Value{Kind: ValueKindDatetime, Int: int64(c.Value(row))}
	case *array.Date32:
		// Days since the Unix epoch.
		return Value{Kind: ValueKindDate, Int: int64(c.Value(row))}
	case *array.Time64:
		// Microseconds since midnight.
		return Value{Kind: ValueKindTime, Int: int64(c.Value(row))}
	default:
		return Value{Kind: ValueKindNull, IsNull: true}
	}
}

func kindOf(col arrow.Array) ValueKind {
	switch col.(type) {
	case *array.String:
		return ValueKindString
	case *array.Int64:
		return ValueKindInteger
	case *array.Float64:
		return ValueKindNumeric
	case *array.Timestamp:
		return ValueKindDatetime
	case *array.Date32:
		return ValueKindDate
	case *array.Time64:
		return ValueKindTime
	default:
		return ValueKindNull
	}
}
