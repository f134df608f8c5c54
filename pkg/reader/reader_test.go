package reader_test

import (
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/reader"
	"github.com/ajitpratap0/sasarrow/pkg/testutil"
)

func TestOpenUnknownExtension(t *testing.T) {
	_, err := reader.Open(filepath.Join(t.TempDir(), "data.xyz"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInput))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := reader.Open(filepath.Join(t.TempDir(), "absent.fxr"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestBulkRead(t *testing.T) {
	path := testutil.WriteMixedFile(t, 25)

	r, err := reader.Open(path,
		reader.WithChunkSize(10),
		reader.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	require.NoError(t, r.ReadAll())

	assert.Equal(t, int64(10), r.ChunkSize())
	assert.Equal(t, 3, r.NumBatches())
	assert.Equal(t, int64(25), r.NumRows())
	assert.Equal(t, 6, r.Schema().NumFields())

	// Every batch shares the stream schema.
	for _, b := range r.Batches() {
		assert.True(t, b.Record.Schema().Equal(r.Schema()))
	}

	tbl, err := r.Table()
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, int64(25), tbl.NumRows())
}

func TestStreamingRead(t *testing.T) {
	path := testutil.WriteMixedFile(t, 25)

	r, err := reader.Open(path,
		reader.WithChunkSize(10),
		reader.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var rows int64
	var batches int
	for {
		more, err := r.ReadChunk()
		require.NoError(t, err)
		for r.HasBatch() {
			b, err := r.NextBatch()
			require.NoError(t, err)
			rows += b.NumRows()
			batches++
			b.Record.Release()
		}
		if !more {
			break
		}
	}

	assert.Equal(t, int64(25), rows)
	assert.Equal(t, 3, batches)

	// The stream is exhausted; ReadChunk is now a no-op.
	more, err := r.ReadChunk()
	require.NoError(t, err)
	assert.False(t, more)
	assert.False(t, r.HasBatch())
}

func TestBatchRowRangesArePartitioned(t *testing.T) {
	path := testutil.WriteMixedFile(t, 7)

	r, err := reader.Open(path, reader.WithChunkSize(3))
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	require.NoError(t, r.ReadAll())

	batches := r.Batches()
	require.Len(t, batches, 3)

	var next int64
	for _, b := range batches {
		assert.Equal(t, next, b.StartRow)
		assert.Equal(t, next+b.NumRows()-1, b.EndRow)
		next = b.EndRow + 1
	}
	assert.Equal(t, int64(7), next)
}

func TestCloseReleasesUnconsumedBatches(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	path := testutil.WriteMixedFile(t, 9)

	r, err := reader.Open(path,
		reader.WithChunkSize(3),
		reader.WithAllocator(mem))
	require.NoError(t, err)
	require.NoError(t, r.ReadAll())

	// Take ownership of the first batch, leave the rest in the queue.
	b, err := r.NextBatch()
	require.NoError(t, err)

	require.NoError(t, r.Close())
	b.Record.Release()

	mem.AssertSize(t, 0)
}
