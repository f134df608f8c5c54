// Package ffi holds the language-neutral half of the foreign boundary
// adapter: opaque handles over the conversion pipeline, a closed set of
// status codes, and last-error bookkeeping. The cgo layer that actually
// crosses the C ABI is a thin shim over this package, which keeps the
// boundary semantics testable without a C toolchain.
//
// Typed statuses returned per operation are the primary error channel;
// the last-error text is a compatibility shim for callers that cannot
// receive rich error values. It is scoped per handle, with one global
// slot for failures that occur before a handle exists, so callers
// working on distinct handles never clobber each other's error text.
package ffi

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/sasarrow/pkg/reader"
	"github.com/ajitpratap0/sasarrow/pkg/sink"
)

// Handle is an opaque reference to boundary-owned state.
type Handle uintptr

// Info mirrors the reader info structure crossing the boundary.
type Info struct {
	NumRows    uint64
	NumColumns uint32
	NumBatches uint32
	ChunkSize  uint32
}

// ColumnInfo mirrors the per-column info structure crossing the boundary.
type ColumnInfo struct {
	Name     string
	TypeName string
	Index    uint32
}

// Descriptor is one entry of the exported column-descriptor array.
type Descriptor struct {
	Name         string
	SemanticType int32
	Length       uint32
}

// Reader is the state behind a reader handle. Per the concurrency
// contract it is confined to one calling thread; only the handle table
// itself is synchronized, because handles may be created and destroyed
// from different threads.
type Reader struct {
	cr        *reader.ChunkedReader
	chunkSize uint32
	loaded    bool
	cursor    int
	lastErr   string
}

var (
	handleMu   sync.Mutex
	handles    = map[Handle]*Reader{}
	iterators  = map[Handle]*Iterator{}
	nextHandle Handle = 1

	globalErrMu sync.Mutex
	globalErr   string
)

func setGlobalError(msg string) {
	globalErrMu.Lock()
	globalErr = msg
	globalErrMu.Unlock()
}

// GlobalLastError returns the detail text of the most recent failure that
// happened before any handle existed (e.g. a failed Open).
func GlobalLastError() string {
	globalErrMu.Lock()
	defer globalErrMu.Unlock()
	return globalErr
}

func (r *Reader) fail(err error) Status {
	st := statusOf(err)
	r.lastErr = err.Error()
	return st
}

// LastError returns the handle's most recent failure detail, overwritten
// by the handle's next failing call.
func (r *Reader) LastError() string { return r.lastErr }

func lookup(h Handle) (*Reader, bool) {
	handleMu.Lock()
	defer handleMu.Unlock()
	r, ok := handles[h]
	return r, ok
}

// DefaultChunkSize is applied when a caller passes chunk size zero.
const DefaultChunkSize = uint32(sink.DefaultChunkSize)

// Open creates a reader handle over the given source file. A chunk size
// of zero selects the default.
func Open(path string, chunkSize uint32, opts ...reader.Option) (Handle, Status) {
	if path == "" {
		setGlobalError("empty path")
		return 0, StatusNullArgument
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	opts = append(opts, reader.WithChunkSize(int64(chunkSize)))
	cr, err := reader.Open(path, opts...)
	if err != nil {
		setGlobalError(err.Error())
		return 0, statusOf(err)
	}

	r := &Reader{cr: cr, chunkSize: chunkSize}

	handleMu.Lock()
	h := nextHandle
	nextHandle++
	handles[h] = r
	handleMu.Unlock()

	return h, StatusOK
}

// Get resolves a handle. The second result is false for unknown or
// already destroyed handles.
func Get(h Handle) (*Reader, bool) {
	return lookup(h)
}

// Destroy releases the handle's state: the decoder, the live builders and
// every batch not yet consumed. Consumed batches stay with their owners.
// Destroying an unknown handle is a no-op.
func Destroy(h Handle) {
	handleMu.Lock()
	r, ok := handles[h]
	delete(handles, h)
	handleMu.Unlock()

	if ok {
		_ = r.cr.Close()
	}
}

// ensureLoaded drives the decoder to completion once, for the bulk
// consumption shape. Batches finalized before a mid-stream failure stay
// available.
func (r *Reader) ensureLoaded() Status {
	if r.loaded {
		return StatusOK
	}
	if err := r.cr.ReadAll(); err != nil {
		return r.fail(err)
	}
	r.loaded = true
	return StatusOK
}

// Info materializes the stream and reports totals.
func (r *Reader) Info() (Info, Status) {
	if st := r.ensureLoaded(); !st.Ok() {
		return Info{}, st
	}
	return Info{
		NumRows:    uint64(r.cr.NumRows()),
		NumColumns: uint32(r.cr.Schema().NumFields()),
		NumBatches: uint32(r.cr.NumBatches()),
		ChunkSize:  r.chunkSize,
	}, StatusOK
}

// ColumnInfo returns name, Arrow type name and index for one column.
// An out-of-range index returns StatusInvalidIndex and no data.
func (r *Reader) ColumnInfo(index uint32) (ColumnInfo, Status) {
	if st := r.ensureLoaded(); !st.Ok() {
		return ColumnInfo{}, st
	}
	s := r.cr.Schema()
	if index >= uint32(s.NumFields()) {
		r.lastErr = "column index out of range"
		return ColumnInfo{}, StatusInvalidIndex
	}
	f := s.Field(int(index))
	return ColumnInfo{Name: f.Name, TypeName: f.Type.String(), Index: index}, StatusOK
}

// Descriptors returns the column-descriptor array for the source schema.
func (r *Reader) Descriptors() ([]Descriptor, Status) {
	desc := r.cr.Descriptor()
	if desc == nil {
		r.lastErr = "schema not available"
		return nil, StatusInvalidFile
	}
	out := make([]Descriptor, desc.NumColumns())
	for i := range out {
		col := desc.Column(i)
		out[i] = Descriptor{
			Name:         col.Name,
			SemanticType: int32(col.Type),
			Length:       uint32(col.Length),
		}
	}
	return out, StatusOK
}

// Schema materializes the stream and returns the shared Arrow schema. The
// schema is immutable; callers export it at most once per stream.
func (r *Reader) Schema() (*arrow.Schema, Status) {
	if st := r.ensureLoaded(); !st.Ok() {
		return nil, st
	}
	return r.cr.Schema(), StatusOK
}

// Batch returns the record at the given index without consuming it. The
// record is retained for the caller, who must release it (directly or by
// exporting it under a release callback).
func (r *Reader) Batch(index uint32) (arrow.Record, Status) {
	if st := r.ensureLoaded(); !st.Ok() {
		return nil, st
	}
	b, err := r.cr.Batch(int(index))
	if err != nil {
		r.lastErr = "batch index out of range"
		return nil, StatusInvalidIndex
	}
	b.Record.Retain()
	return b.Record, StatusOK
}

// NextBatch returns the record at the internal cursor and advances it,
// or StatusEndOfData once the materialized set is exhausted.
func (r *Reader) NextBatch() (arrow.Record, Status) {
	if st := r.ensureLoaded(); !st.Ok() {
		return nil, st
	}
	if r.cursor >= r.cr.NumBatches() {
		return nil, StatusEndOfData
	}
	b, err := r.cr.Batch(r.cursor)
	if err != nil {
		return nil, r.fail(err)
	}
	r.cursor++
	b.Record.Retain()
	return b.Record, StatusOK
}

// Reset rewinds the streaming cursor to the first batch.
func (r *Reader) Reset() Status {
	r.cursor = 0
	return StatusOK
}

// ReadNextChunk incrementally decodes input until at least one finalized
// batch is pending or the stream ends. It returns the row range of the
// pending batch, or StatusEndOfData when the stream is exhausted with
// nothing pending. This is the interleaved streaming shape: callers
// alternate ReadNextChunk with NewIterator.
func (r *Reader) ReadNextChunk() (start, end int64, rows int64, st Status) {
	for !r.cr.HasBatch() {
		more, err := r.cr.ReadChunk()
		if err != nil {
			return 0, 0, 0, r.fail(err)
		}
		if !more && !r.cr.HasBatch() {
			return 0, 0, 0, StatusEndOfData
		}
	}

	// Peek at the oldest pending batch; ownership moves when an
	// iterator is created over it.
	q := r.cr.Batches()
	b := q[len(q)-r.cr.Pending()]
	return b.StartRow, b.EndRow, b.NumRows(), StatusOK
}
