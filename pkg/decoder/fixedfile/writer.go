package fixedfile

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"time"

	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/pool"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
)

// Writer produces fixed-layout row files. It backs test fixtures and the
// CLI's sample generator; the row count in the header is patched on
// Close.
type Writer struct {
	f    *os.File
	w    *bufio.Writer
	desc *schema.Schema
	rows uint64
}

// NewWriter creates the file and writes the header and column table.
func NewWriter(path string, desc *schema.Schema) (*Writer, error) {
	f, err := os.Create(path) //nolint:gosec // G304: path is caller-controlled by contract
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}

	w := &Writer{f: f, w: bufio.NewWriter(f), desc: desc}
	if err := w.writeHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	if _, err := w.w.Write(magic[:]); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint16(formatVersion)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(w.desc.NumColumns())); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
	}
	// Row count placeholder, patched on Close.
	if err := binary.Write(w.w, binary.LittleEndian, uint64(0)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
	}

	for _, col := range w.desc.Columns() {
		if err := binary.Write(w.w, binary.LittleEndian, uint16(len(col.Name))); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write column table")
		}
		if _, err := w.w.WriteString(col.Name); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write column table")
		}
		if err := w.w.WriteByte(byte(col.Type)); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write column table")
		}
		if err := binary.Write(w.w, binary.LittleEndian, uint32(col.Length)); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write column table")
		}
	}
	return nil
}

// Append encodes one row. Values map positionally onto columns: string
// for string/unknown, int64 for integer, float64 for number (NaN for
// missing), time.Time for datetime/date (zero time for invalid),
// time.Duration for time (negative for invalid). A nil value encodes the
// type's missing marker.
func (w *Writer) Append(values ...interface{}) error {
	if len(values) != w.desc.NumColumns() {
		return errors.New(errors.ErrorTypeInput, "value count does not match column count").
			WithDetail("values", len(values)).
			WithDetail("columns", w.desc.NumColumns())
	}

	buf := pool.GetByteSlice(w.desc.RowWidth())
	defer pool.PutByteSlice(buf)

	for i, col := range w.desc.Columns() {
		field := buf[col.Offset() : col.Offset()+col.Length]
		if err := encodeField(field, &col, values[i]); err != nil {
			return err
		}
	}

	if _, err := w.w.Write(buf); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row")
	}
	w.rows++
	return nil
}

func encodeField(field []byte, col *schema.Column, v interface{}) error {
	switch col.Type {
	case schema.ColumnTypeString, schema.ColumnTypeUnknown:
		s, _ := v.(string)
		if len(s) > len(field) {
			return errors.New(errors.ErrorTypeInput, "string exceeds column byte length").
				WithDetail("column", col.Name).
				WithDetail("length", col.Length)
		}
		n := copy(field, s)
		for i := n; i < len(field); i++ {
			field[i] = 0
		}

	case schema.ColumnTypeInteger:
		n, _ := v.(int64)
		binary.LittleEndian.PutUint64(field, uint64(n))

	case schema.ColumnTypeNumber:
		f, ok := v.(float64)
		if !ok {
			f = math.NaN()
		}
		binary.LittleEndian.PutUint64(field, math.Float64bits(f))

	case schema.ColumnTypeDatetime:
		t, _ := v.(time.Time)
		schema.EncodeDatetime(field, t)

	case schema.ColumnTypeDate:
		t, _ := v.(time.Time)
		schema.EncodeDate(field, t)

	case schema.ColumnTypeTime:
		d, ok := v.(time.Duration)
		if !ok {
			d = -1
		}
		schema.EncodeTime(field, d)
	}
	return nil
}

// Close flushes buffered rows, patches the row count into the header and
// closes the file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}

	// Row count sits after magic and version.
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], w.rows)
	if _, err := w.f.WriteAt(count[:], int64(len(magic)+2+4)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to patch row count")
	}

	return w.f.Close()
}
