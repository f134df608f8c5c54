// Package reader wires a source-format decoder to the chunk accumulator
// and exposes the two consumption modes: bulk (drive the decoder to
// completion, then inspect the accumulated batches) and streaming
// (interleave decoding one chunk's worth of rows with pulling finalized
// batches from the queue).
package reader

import (
	"go.uber.org/zap"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/sasarrow/pkg/decoder"
	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
	"github.com/ajitpratap0/sasarrow/pkg/sink"
)

// Option configures a ChunkedReader.
type Option func(*options)

type options struct {
	chunkSize int64
	factory   decoder.Factory
	mem       memory.Allocator
	log       *zap.Logger
	strict    bool
}

// WithChunkSize sets the row threshold per batch.
func WithChunkSize(n int64) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithDecoderFactory overrides the extension-based decoder lookup.
func WithDecoderFactory(f decoder.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithAllocator sets the Arrow memory allocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithStrictConversion aborts the read on the first per-value conversion
// failure instead of skipping the value.
func WithStrictConversion() Option {
	return func(o *options) { o.strict = true }
}

// ChunkedReader drives a decoder into a sink, one chunk at a time or all
// at once. It is single-threaded; no method may be called concurrently.
type ChunkedReader struct {
	dec       decoder.Decoder
	sink      *sink.Sink
	chunkSize int64
	log       *zap.Logger
}

// Open opens a source file and binds a decoder to a fresh sink. The
// decoder is picked from the registry by file extension unless a factory
// option overrides it.
func Open(path string, opts ...Option) (*ChunkedReader, error) {
	o := &options{
		chunkSize: sink.DefaultChunkSize,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.chunkSize < 1 {
		o.chunkSize = sink.DefaultChunkSize
	}

	factory := o.factory
	if factory == nil {
		var err error
		factory, err = decoder.Lookup(path)
		if err != nil {
			return nil, err
		}
	}

	sinkOpts := []sink.Option{
		sink.WithChunkSize(o.chunkSize),
		sink.WithLogger(o.log),
	}
	if o.mem != nil {
		sinkOpts = append(sinkOpts, sink.WithAllocator(o.mem))
	}
	if o.strict {
		sinkOpts = append(sinkOpts, sink.WithStrictConversion())
	}
	snk := sink.New(sinkOpts...)

	dec, err := factory(path, snk, o.log)
	if err != nil {
		return nil, err
	}

	return &ChunkedReader{
		dec:       dec,
		sink:      snk,
		chunkSize: o.chunkSize,
		log:       o.log.With(zap.String("path", path)),
	}, nil
}

// Descriptor returns the source's column descriptor set.
func (r *ChunkedReader) Descriptor() *schema.Schema { return r.sink.Descriptor() }

// Schema returns the Arrow schema shared by every batch.
func (r *ChunkedReader) Schema() *arrow.Schema { return r.sink.Schema() }

// ChunkSize returns the configured row threshold per batch.
func (r *ChunkedReader) ChunkSize() int64 { return r.chunkSize }

// ReadAll drives the decoder to completion. Every batch the stream yields
// becomes available through Batches, Table and the queue. Batches
// finalized before a mid-stream failure remain available.
func (r *ChunkedReader) ReadAll() error {
	return r.dec.ReadAll()
}

// ReadChunk decodes up to one chunk's worth of rows and reports whether
// more input remains. Finalized batches become available on the queue as
// they complete; interleave ReadChunk with HasBatch/NextBatch for
// streaming consumption.
func (r *ChunkedReader) ReadChunk() (bool, error) {
	if r.sink.Finished() {
		return false, nil
	}
	return r.dec.ReadRows(int(r.chunkSize))
}

// HasBatch reports whether a finalized batch is waiting.
func (r *ChunkedReader) HasBatch() bool {
	return r.sink.Queue().HasPending()
}

// Pending returns the number of finalized batches not yet consumed.
func (r *ChunkedReader) Pending() int {
	return r.sink.Queue().Pending()
}

// NextBatch moves ownership of the oldest pending batch to the caller,
// who must Release its record.
func (r *ChunkedReader) NextBatch() (sink.Batch, error) {
	return r.sink.Queue().Dequeue()
}

// Batch returns the i-th finalized batch without consuming it.
func (r *ChunkedReader) Batch(i int) (sink.Batch, error) {
	return r.sink.Queue().Get(i)
}

// Batches returns every finalized batch in FIFO order. The reader keeps
// ownership.
func (r *ChunkedReader) Batches() []sink.Batch {
	return r.sink.Batches()
}

// NumBatches returns the number of batches finalized so far.
func (r *ChunkedReader) NumBatches() int {
	return r.sink.Queue().Len()
}

// NumRows returns the total rows across all finalized batches.
func (r *ChunkedReader) NumRows() int64 {
	var n int64
	for _, b := range r.sink.Batches() {
		n += b.NumRows()
	}
	return n
}

// Table concatenates every finalized batch into one arrow.Table owned by
// the caller.
func (r *ChunkedReader) Table() (arrow.Table, error) {
	return r.sink.Table()
}

// Close closes the decoder and releases the live builders and every
// unconsumed batch. Batches already moved to consumers are untouched.
func (r *ChunkedReader) Close() error {
	err := r.dec.Close()
	r.sink.Release()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close decoder")
	}
	return nil
}
