// Package fixedfile implements the decoder push contract for a minimal
// fixed-layout binary row format. It exists to exercise the conversion
// pipeline end to end: a magic header, a column table, then raw rows laid
// out exactly as the schema describes. The package also provides a Writer
// for producing files in the same format.
//
// Layout:
//
//	magic    "FXR1"
//	version  uint16 (little-endian, currently 1)
//	columns  uint32
//	rows     uint64
//	column table, per column:
//	    name length uint16, name bytes, type uint8, byte length uint32
//	row data: rows × row-width raw bytes
package fixedfile

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sasarrow/pkg/decoder"
	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
)

// Ext is the registered file extension.
const Ext = ".fxr"

var magic = [4]byte{'F', 'X', 'R', '1'}

const formatVersion = 1

func init() {
	decoder.Register(Ext, Open)
}

// Decoder reads a fixed-layout file and pushes its rows into a sink.
type Decoder struct {
	f        *os.File
	r        *bufio.Reader
	sink     decoder.Sink
	desc     *schema.Schema
	log      *zap.Logger
	rowBuf   []byte
	rowIndex int64
	rowCount int64
	done     bool
}

// Open opens the file, parses the header and column table, fixes the
// schema on the sink and returns a decoder positioned at the first row.
func Open(path string, sink decoder.Sink, log *zap.Logger) (decoder.Decoder, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path) //nolint:gosec // G304: path is caller-controlled by contract
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "source file not found").
				WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open source file").
			WithDetail("path", path)
	}

	d := &Decoder{
		f:    f,
		r:    bufio.NewReader(f),
		sink: sink,
		log:  log,
	}
	if err := d.readHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}

	sink.SetSchema(d.desc)
	d.rowBuf = make([]byte, d.desc.RowWidth())

	log.Debug("opened fixed-layout source",
		zap.String("path", path),
		zap.Int("columns", d.desc.NumColumns()),
		zap.Int64("rows", d.rowCount))

	return d, nil
}

func (d *Decoder) readHeader() error {
	var hdr [4]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "truncated file header")
	}
	if hdr != magic {
		return errors.New(errors.ErrorTypeData, "bad magic, not a fixed-layout row file")
	}

	var version uint16
	if err := binary.Read(d.r, binary.LittleEndian, &version); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "truncated file header")
	}
	if version != formatVersion {
		return errors.New(errors.ErrorTypeData, "unsupported format version").
			WithDetail("version", version)
	}

	var ncols uint32
	var nrows uint64
	if err := binary.Read(d.r, binary.LittleEndian, &ncols); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "truncated file header")
	}
	if err := binary.Read(d.r, binary.LittleEndian, &nrows); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "truncated file header")
	}
	if ncols == 0 {
		return errors.New(errors.ErrorTypeData, "file declares no columns")
	}

	cols := make([]schema.Column, ncols)
	for i := range cols {
		var nameLen uint16
		if err := binary.Read(d.r, binary.LittleEndian, &nameLen); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "truncated column table")
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(d.r, name); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "truncated column table")
		}
		var typ uint8
		if err := binary.Read(d.r, binary.LittleEndian, &typ); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "truncated column table")
		}
		var length uint32
		if err := binary.Read(d.r, binary.LittleEndian, &length); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "truncated column table")
		}
		if typ > uint8(schema.ColumnTypeUnknown) {
			typ = uint8(schema.ColumnTypeUnknown)
		}
		cols[i] = schema.Column{
			Name:   string(name),
			Type:   schema.ColumnType(typ),
			Length: int(length),
		}
	}

	desc, err := schema.New(cols)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "invalid column table")
	}

	d.desc = desc
	d.rowCount = int64(nrows)
	return nil
}

// Schema returns the column descriptor set.
func (d *Decoder) Schema() *schema.Schema { return d.desc }

// ReadRows decodes up to n rows into the sink. The row buffer is reused
// between calls; the sink must not retain it. Returns false once the
// stream is exhausted, after signaling EndOfData exactly once.
func (d *Decoder) ReadRows(n int) (bool, error) {
	if d.done {
		return false, nil
	}

	for i := 0; i < n; i++ {
		if d.rowIndex >= d.rowCount {
			d.done = true
			if err := d.sink.EndOfData(); err != nil {
				return false, err
			}
			return false, nil
		}

		if _, err := io.ReadFull(d.r, d.rowBuf); err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeData, "truncated row data").
				WithDetail("row", d.rowIndex)
		}
		if err := d.sink.PushRow(d.rowIndex, d.rowBuf); err != nil {
			return false, err
		}
		d.rowIndex++
	}

	if d.rowIndex >= d.rowCount {
		d.done = true
		if err := d.sink.EndOfData(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ReadAll decodes every remaining row into the sink.
func (d *Decoder) ReadAll() error {
	for {
		more, err := d.ReadRows(4096)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Close closes the underlying file.
func (d *Decoder) Close() error {
	return d.f.Close()
}
