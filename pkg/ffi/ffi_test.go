package ffi_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sasarrow/pkg/ffi"
	"github.com/ajitpratap0/sasarrow/pkg/testutil"
)

func openFixture(t *testing.T, rows int64, chunkSize uint32) ffi.Handle {
	t.Helper()
	path := testutil.WriteMixedFile(t, rows)
	h, st := ffi.Open(path, chunkSize)
	require.True(t, st.Ok(), "open failed: %s", st.Message())
	t.Cleanup(func() { ffi.Destroy(h) })
	return h
}

func TestOpenMissingFile(t *testing.T) {
	_, st := ffi.Open(filepath.Join(t.TempDir(), "absent.fxr"), 0)
	assert.Equal(t, ffi.StatusFileNotFound, st)
	assert.NotEmpty(t, ffi.GlobalLastError())
}

func TestOpenEmptyPath(t *testing.T) {
	_, st := ffi.Open("", 0)
	assert.Equal(t, ffi.StatusNullArgument, st)
}

func TestOpenUnknownFormat(t *testing.T) {
	_, st := ffi.Open(filepath.Join(t.TempDir(), "data.xyz"), 0)
	assert.Equal(t, ffi.StatusInvalidFile, st)
}

func TestInfo(t *testing.T) {
	h := openFixture(t, 25, 10)
	r, ok := ffi.Get(h)
	require.True(t, ok)

	info, st := r.Info()
	require.True(t, st.Ok())
	assert.Equal(t, uint64(25), info.NumRows)
	assert.Equal(t, uint32(6), info.NumColumns)
	assert.Equal(t, uint32(3), info.NumBatches)
	assert.Equal(t, uint32(10), info.ChunkSize)
}

func TestZeroChunkSizeUsesDefault(t *testing.T) {
	h := openFixture(t, 5, 0)
	r, ok := ffi.Get(h)
	require.True(t, ok)

	info, st := r.Info()
	require.True(t, st.Ok())
	assert.Equal(t, ffi.DefaultChunkSize, info.ChunkSize)
	assert.Equal(t, uint32(1), info.NumBatches)
}

func TestColumnInfo(t *testing.T) {
	h := openFixture(t, 5, 10)
	r, ok := ffi.Get(h)
	require.True(t, ok)

	ci, st := r.ColumnInfo(0)
	require.True(t, st.Ok())
	assert.Equal(t, "id", ci.Name)
	assert.Equal(t, "int64", ci.TypeName)
	assert.Equal(t, uint32(0), ci.Index)

	// Out-of-range index fails without touching the output.
	_, st = r.ColumnInfo(99)
	assert.Equal(t, ffi.StatusInvalidIndex, st)
	assert.NotEmpty(t, r.LastError())
}

func TestDescriptors(t *testing.T) {
	h := openFixture(t, 5, 10)
	r, ok := ffi.Get(h)
	require.True(t, ok)

	descs, st := r.Descriptors()
	require.True(t, st.Ok())
	require.Len(t, descs, 6)
	assert.Equal(t, "name", descs[1].Name)
	assert.Equal(t, uint32(16), descs[1].Length)
}

func TestBatchAccess(t *testing.T) {
	h := openFixture(t, 25, 10)
	r, ok := ffi.Get(h)
	require.True(t, ok)

	rec, st := r.Batch(0)
	require.True(t, st.Ok())
	assert.Equal(t, int64(10), rec.NumRows())
	rec.Release()

	_, st = r.Batch(7)
	assert.Equal(t, ffi.StatusInvalidIndex, st)
}

func TestNextBatchCursorAndReset(t *testing.T) {
	h := openFixture(t, 25, 10)
	r, ok := ffi.Get(h)
	require.True(t, ok)

	var total int64
	for {
		rec, st := r.NextBatch()
		if st == ffi.StatusEndOfData {
			break
		}
		require.True(t, st.Ok())
		total += rec.NumRows()
		rec.Release()
	}
	assert.Equal(t, int64(25), total)

	// Exhausted cursor keeps reporting end of data.
	_, st := r.NextBatch()
	assert.Equal(t, ffi.StatusEndOfData, st)

	require.True(t, r.Reset().Ok())
	rec, st := r.NextBatch()
	require.True(t, st.Ok())
	assert.Equal(t, int64(10), rec.NumRows())
	rec.Release()
}

func TestDestroyUnknownHandleIsNoOp(t *testing.T) {
	ffi.Destroy(ffi.Handle(0xdead))
}

func TestDestroyInvalidatesHandle(t *testing.T) {
	path := testutil.WriteMixedFile(t, 5)
	h, st := ffi.Open(path, 0)
	require.True(t, st.Ok())

	ffi.Destroy(h)
	_, ok := ffi.Get(h)
	assert.False(t, ok)

	// Double destroy is a no-op.
	ffi.Destroy(h)
}

func TestStreamingChunksWithIterator(t *testing.T) {
	h := openFixture(t, 25, 10)
	r, ok := ffi.Get(h)
	require.True(t, ok)

	var rows int64
	var chunks int
	for {
		start, end, n, st := r.ReadNextChunk()
		if st == ffi.StatusEndOfData {
			break
		}
		require.True(t, st.Ok())
		assert.Equal(t, rows, start)
		assert.Equal(t, start+n-1, end)
		chunks++

		ih, st := ffi.NewIterator(h)
		require.True(t, st.Ok())
		it, ok := ffi.GetIterator(ih)
		require.True(t, ok)

		for it.HasNext() {
			values, st := it.NextRow()
			require.True(t, st.Ok())
			require.Len(t, values, 6)

			want := testutil.MixedRow(rows)
			assert.Equal(t, ffi.ValueKindInteger, values[0].Kind)
			assert.Equal(t, want.ID, values[0].Int)
			assert.Equal(t, ffi.ValueKindString, values[1].Kind)
			assert.Equal(t, want.Name, values[1].Str)
			assert.Equal(t, ffi.ValueKindNumeric, values[2].Kind)
			assert.Equal(t, want.Score, values[2].Num)
			assert.Equal(t, ffi.ValueKindDatetime, values[3].Kind)
			assert.Equal(t, want.Created.UnixMicro(), values[3].Int)
			rows++
		}

		_, st = it.NextRow()
		assert.Equal(t, ffi.StatusEndOfData, st)
		ffi.DestroyIterator(ih)
	}

	assert.Equal(t, int64(25), rows)
	assert.Equal(t, 3, chunks)
}

func TestNewIteratorWithoutPendingBatch(t *testing.T) {
	h := openFixture(t, 0, 10)
	_, st := ffi.NewIterator(h)
	assert.Equal(t, ffi.StatusEndOfData, st)
}

func TestStatusMessages(t *testing.T) {
	assert.Equal(t, "Success", ffi.StatusOK.Message())
	assert.True(t, ffi.StatusOK.Ok())
	for _, st := range []ffi.Status{
		ffi.StatusFileNotFound,
		ffi.StatusInvalidFile,
		ffi.StatusOutOfMemory,
		ffi.StatusConversionError,
		ffi.StatusEndOfData,
		ffi.StatusInvalidIndex,
		ffi.StatusNullArgument,
	} {
		assert.False(t, st.Ok())
		assert.NotEmpty(t, st.Message())
	}
	assert.Equal(t, "Unknown error", ffi.Status(99).Message())
}
