package fixedfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sasarrow/pkg/decoder/fixedfile"
	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
	"github.com/ajitpratap0/sasarrow/pkg/sink"
	"github.com/ajitpratap0/sasarrow/pkg/testutil"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := testutil.WriteMixedFile(t, 10)

	snk := sink.New(sink.WithChunkSize(100))
	defer snk.Release()

	d, err := fixedfile.Open(path, snk, testutil.TestLogger(t))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	desc := d.Schema()
	require.NotNil(t, desc)
	assert.Equal(t, 6, desc.NumColumns())
	assert.Equal(t, "id", desc.Column(0).Name)
	assert.Equal(t, schema.ColumnTypeString, desc.Column(1).Type)

	require.NoError(t, d.ReadAll())
	batches := snk.Batches()
	require.Len(t, batches, 1)
	require.Equal(t, int64(10), batches[0].NumRows())

	rec := batches[0].Record
	ids := rec.Column(0).(*array.Int64)
	names := rec.Column(1).(*array.String)
	created := rec.Column(3).(*array.Timestamp)

	for i := int64(0); i < 10; i++ {
		want := testutil.MixedRow(i)
		assert.Equal(t, want.ID, ids.Value(int(i)))
		assert.Equal(t, want.Name, names.Value(int(i)))
		assert.Equal(t, want.Created.UnixMicro(), int64(created.Value(int(i))))
	}
}

func TestMissingFileIsFileError(t *testing.T) {
	snk := sink.New()
	_, err := fixedfile.Open(filepath.Join(t.TempDir(), "absent.fxr"), snk, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestBadMagicIsDataError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.fxr")
	require.NoError(t, os.WriteFile(path, []byte("not a row file at all"), 0o644))

	snk := sink.New()
	_, err := fixedfile.Open(path, snk, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestTruncatedHeaderIsDataError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.fxr")
	require.NoError(t, os.WriteFile(path, []byte("FX"), 0o644))

	snk := sink.New()
	_, err := fixedfile.Open(path, snk, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestReadRowsSignalsEndExactlyOnce(t *testing.T) {
	path := testutil.WriteMixedFile(t, 5)

	snk := sink.New(sink.WithChunkSize(2))
	defer snk.Release()

	d, err := fixedfile.Open(path, snk, testutil.TestLogger(t))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	more, err := d.ReadRows(2)
	require.NoError(t, err)
	assert.True(t, more)
	assert.False(t, snk.Finished())

	more, err = d.ReadRows(2)
	require.NoError(t, err)
	assert.True(t, more)

	more, err = d.ReadRows(2)
	require.NoError(t, err)
	assert.False(t, more)
	assert.True(t, snk.Finished())

	// Further calls are quiet no-ops.
	more, err = d.ReadRows(2)
	require.NoError(t, err)
	assert.False(t, more)

	assert.Len(t, snk.Batches(), 3)
}

func TestWriterRejectsOversizedString(t *testing.T) {
	desc, err := schema.New([]schema.Column{
		{Name: "s", Type: schema.ColumnTypeString, Length: 4},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "s.fxr")
	w, err := fixedfile.NewWriter(path, desc)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	err = w.Append("too long for four bytes")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInput))
}

func TestWriterEncodesMissingValues(t *testing.T) {
	desc, err := schema.New([]schema.Column{
		{Name: "at", Type: schema.ColumnTypeDatetime},
		{Name: "tod", Type: schema.ColumnTypeTime},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "m.fxr")
	w, err := fixedfile.NewWriter(path, desc)
	require.NoError(t, err)
	require.NoError(t, w.Append(time.Time{}, time.Duration(-1)))
	require.NoError(t, w.Close())

	snk := sink.New()
	defer snk.Release()
	d, err := fixedfile.Open(path, snk, nil)
	require.NoError(t, err)
	defer func() { _ = d.Close() }()
	require.NoError(t, d.ReadAll())

	rec := snk.Batches()[0].Record
	assert.True(t, rec.Column(0).IsNull(0))
	assert.True(t, rec.Column(1).IsNull(0))
}
