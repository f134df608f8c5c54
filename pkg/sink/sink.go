// Package sink accumulates decoded rows into bounded-size, immutable
// Arrow record batches. It implements the decoder push contract: rows
// arrive one at a time, a chunk is finalized synchronously when the
// configured row threshold is reached, and the final partial chunk is
// finalized at end of stream.
package sink

import (
	"go.uber.org/zap"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/sasarrow/pkg/convert"
	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/metrics"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
)

// DefaultChunkSize is the default row threshold per batch.
const DefaultChunkSize = 65536

// Option configures a Sink.
type Option func(*Sink)

// WithChunkSize sets the row threshold per batch. Values below 1 fall
// back to the default.
func WithChunkSize(n int64) Option {
	return func(s *Sink) {
		if n >= 1 {
			s.chunkSize = n
		}
	}
}

// WithAllocator sets the Arrow memory allocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(s *Sink) { s.mem = mem }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sink) { s.log = log }
}

// WithStrictConversion makes a per-value conversion failure abort the
// whole read instead of skipping the value. The default is the
// lossy-continue policy: the failed value becomes a null, the row
// completes, and the skip is counted.
func WithStrictConversion() Option {
	return func(s *Sink) { s.strict = true }
}

// Sink is the chunk accumulator. It owns one live builder per column and
// cycles Empty → Accumulating → Full → Finalizing → Empty. All methods
// execute fully before returning; nothing is deferred and nothing is safe
// for concurrent use.
type Sink struct {
	mem       memory.Allocator
	log       *zap.Logger
	chunkSize int64
	strict    bool

	desc    *schema.Schema
	aschema *arrow.Schema
	table   *convert.Table

	builders []array.Builder
	rows     int64
	startRow int64
	endRow   int64

	queue    *Queue
	finished bool
}

// New creates an empty sink. The schema arrives later through SetSchema.
func New(opts ...Option) *Sink {
	s := &Sink{
		mem:       memory.NewGoAllocator(),
		log:       zap.NewNop(),
		chunkSize: DefaultChunkSize,
		queue:     NewQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSchema fixes the column descriptor set for the stream, builds the
// conversion dispatch table and creates the initial builders. Called
// exactly once before any row.
func (s *Sink) SetSchema(desc *schema.Schema) {
	s.desc = desc
	s.aschema = desc.Arrow()
	s.table = convert.NewTable(desc, s.mem)

	s.builders = make([]array.Builder, desc.NumColumns())
	for i := range s.builders {
		s.builders[i] = s.table.NewBuilder(i)
	}

	s.log.Debug("schema fixed",
		zap.Int("columns", desc.NumColumns()),
		zap.Int("row_width", desc.RowWidth()),
		zap.Int64("chunk_size", s.chunkSize))
}

// Descriptor returns the column descriptor set, or nil before SetSchema.
func (s *Sink) Descriptor() *schema.Schema { return s.desc }

// Schema returns the Arrow schema shared by every batch, or nil before
// SetSchema.
func (s *Sink) Schema() *arrow.Schema { return s.aschema }

// Queue returns the queue of finalized batches.
func (s *Sink) Queue() *Queue { return s.queue }

// Finished reports whether EndOfData has been observed.
func (s *Sink) Finished() bool { return s.finished }

// PushRow converts one decoded row and appends a value (or null) to every
// column builder. The buffer is borrowed for the duration of the call
// only. Reaching the chunk threshold finalizes the chunk before PushRow
// returns.
func (s *Sink) PushRow(rowIndex int64, buf []byte) error {
	if s.desc == nil {
		return errors.New(errors.ErrorTypeSequencing, "row pushed before schema was set")
	}
	if len(buf) < s.desc.RowWidth() {
		return errors.New(errors.ErrorTypeInput, "row buffer shorter than the schema row width").
			WithDetail("row", rowIndex).
			WithDetail("buffer_len", len(buf)).
			WithDetail("row_width", s.desc.RowWidth())
	}

	if s.rows == 0 {
		s.startRow = rowIndex
	}

	skipped := 0
	for i, b := range s.builders {
		if err := s.table.Append(i, b, buf); err != nil {
			if s.strict {
				return errors.Wrap(err, errors.ErrorTypeConversion, "value conversion failed").
					WithDetail("row", rowIndex).
					WithDetail("column", s.desc.Column(i).Name)
			}
			// Lossy-continue: substitute a null so every column
			// still holds exactly one value for this row.
			b.AppendNull()
			skipped++
			metrics.ValuesSkipped.WithLabelValues(s.desc.Column(i).Type.String()).Inc()
			s.log.Debug("skipped unconvertible value",
				zap.Int64("row", rowIndex),
				zap.String("column", s.desc.Column(i).Name),
				zap.Error(err))
		}
	}

	if skipped == 0 {
		metrics.RowsConverted.WithLabelValues("ok").Inc()
	} else {
		metrics.RowsConverted.WithLabelValues("partial").Inc()
	}

	s.endRow = rowIndex
	s.rows++

	if s.rows >= s.chunkSize {
		return s.finalize()
	}
	return nil
}

// EndOfData finalizes the trailing partial chunk, if any, and marks the
// stream finished. Idempotent: calling it again with no pending rows is a
// no-op.
func (s *Sink) EndOfData() error {
	if s.rows > 0 {
		if err := s.finalize(); err != nil {
			return err
		}
	}
	s.finished = true
	return nil
}

// finalize flushes every live builder into a completed column array,
// assembles the batch, queues it and resets the accumulator. It fails as
// a unit: on error nothing is queued and the accumulator keeps its
// (now empty) builders for a clean next chunk.
func (s *Sink) finalize() error {
	if s.rows == 0 {
		return nil
	}
	timer := metrics.NewTimer()

	cols := make([]arrow.Array, len(s.builders))
	for i, b := range s.builders {
		arr := b.NewArray()
		if int64(arr.Len()) != s.rows {
			err := errors.New(errors.ErrorTypeInternal, "column length does not match chunk row count").
				WithDetail("column", s.desc.Column(i).Name).
				WithDetail("column_len", arr.Len()).
				WithDetail("rows", s.rows)
			arr.Release()
			for j := 0; j < i; j++ {
				cols[j].Release()
			}
			s.resetBuilders()
			s.rows = 0
			return err
		}
		cols[i] = arr
	}

	rec := array.NewRecord(s.aschema, cols, s.rows)
	for _, c := range cols {
		c.Release()
	}

	s.queue.push(Batch{Record: rec, StartRow: s.startRow, EndRow: s.endRow})
	metrics.BatchesFinalized.Inc()
	timer.ObserveFinalize()

	s.log.Debug("chunk finalized",
		zap.Int64("rows", s.rows),
		zap.Int64("start_row", s.startRow),
		zap.Int64("end_row", s.endRow))

	s.resetBuilders()
	s.rows = 0
	return nil
}

// resetBuilders replaces every live builder with a fresh empty one of the
// same type, detaching the new chunk from the previous batch's storage.
func (s *Sink) resetBuilders() {
	for i, b := range s.builders {
		b.Release()
		s.builders[i] = s.table.NewBuilder(i)
	}
}

// Batches returns every finalized batch in FIFO order. The sink's queue
// keeps ownership.
func (s *Sink) Batches() []Batch {
	return s.queue.All()
}

// Table concatenates all finalized batches into a single arrow.Table.
// The caller owns the returned table and must Release it. Returns a
// sequencing error when no batch has been produced.
func (s *Sink) Table() (arrow.Table, error) {
	batches := s.queue.All()
	if len(batches) == 0 {
		return nil, errors.New(errors.ErrorTypeSequencing, "no data available")
	}

	recs := make([]arrow.Record, len(batches))
	for i, b := range batches {
		recs[i] = b.Record
	}
	return array.NewTableFromRecords(s.aschema, recs), nil
}

// Release frees the live builders and every batch not yet dequeued.
// Consumed batches stay with their consumers.
func (s *Sink) Release() {
	for _, b := range s.builders {
		if b != nil {
			b.Release()
		}
	}
	s.builders = nil
	s.queue.ReleasePending()
}
