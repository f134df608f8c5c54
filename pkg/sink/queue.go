package sink

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/metrics"
)

// Batch is one finalized, immutable, schema-bound unit of columnar
// output together with the row range it covers in the source stream.
type Batch struct {
	Record   arrow.Record
	StartRow int64
	EndRow   int64
}

// NumRows returns the batch's row count.
func (b Batch) NumRows() int64 {
	if b.Record == nil {
		return 0
	}
	return b.Record.NumRows()
}

// Queue holds finalized batches in creation order, which equals ascending
// StartRow order. It is an append-only sequence with an explicit consumer
// cursor: Dequeue moves ownership of the next pending batch to the
// caller, while Get serves non-destructive, index-based access for
// streaming consumers that re-inspect earlier batches.
//
// Queue is not safe for concurrent use; the pipeline is single-threaded
// by design.
type Queue struct {
	batches []Batch
	cursor  int
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// push appends a finalized batch. The queue takes over the producer's
// reference.
func (q *Queue) push(b Batch) {
	q.batches = append(q.batches, b)
	metrics.QueueDepth.Inc()
}

// Len returns the total number of batches produced so far, consumed or
// not.
func (q *Queue) Len() int { return len(q.batches) }

// Pending returns the number of batches not yet dequeued.
func (q *Queue) Pending() int { return len(q.batches) - q.cursor }

// HasPending reports whether Dequeue would succeed.
func (q *Queue) HasPending() bool { return q.cursor < len(q.batches) }

// Dequeue moves ownership of the oldest pending batch to the caller, who
// must Release its record when done. Callers should check HasPending
// first; an empty dequeue is a sequencing error, not data corruption.
func (q *Queue) Dequeue() (Batch, error) {
	if q.cursor >= len(q.batches) {
		return Batch{}, errors.New(errors.ErrorTypeSequencing, "no pending batch in queue")
	}
	b := q.batches[q.cursor]
	q.cursor++
	metrics.QueueDepth.Dec()
	return b, nil
}

// Get returns the i-th batch without consuming it. The queue keeps its
// reference; callers that hold on to the record must Retain it.
func (q *Queue) Get(i int) (Batch, error) {
	if i < 0 || i >= len(q.batches) {
		return Batch{}, errors.New(errors.ErrorTypeSequencing, "batch index out of range").
			WithDetail("index", i).
			WithDetail("batches", len(q.batches))
	}
	return q.batches[i], nil
}

// All returns every batch produced so far in FIFO order. The queue keeps
// ownership.
func (q *Queue) All() []Batch {
	return q.batches
}

// ReleasePending releases exactly the batches that have not been
// dequeued. Batches already moved to a consumer are untouched, so no
// record is ever double-released.
func (q *Queue) ReleasePending() {
	for ; q.cursor < len(q.batches); q.cursor++ {
		q.batches[q.cursor].Record.Release()
		metrics.QueueDepth.Dec()
	}
}
