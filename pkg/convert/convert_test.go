package convert_test

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sasarrow/pkg/convert"
	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
)

func mixedSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New([]schema.Column{
		{Name: "name", Type: schema.ColumnTypeString, Length: 8},
		{Name: "id", Type: schema.ColumnTypeInteger},
		{Name: "score", Type: schema.ColumnTypeNumber},
		{Name: "at", Type: schema.ColumnTypeDatetime},
		{Name: "on", Type: schema.ColumnTypeDate},
		{Name: "tod", Type: schema.ColumnTypeTime},
	})
	require.NoError(t, err)
	return s
}

func encodeRow(t *testing.T, s *schema.Schema, name string, id int64, score float64, at time.Time, on time.Time, tod time.Duration) []byte {
	t.Helper()
	buf := make([]byte, s.RowWidth())
	copy(buf[s.Column(0).Offset():s.Column(0).Offset()+8], name)
	binary.LittleEndian.PutUint64(buf[s.Column(1).Offset():], uint64(id))
	binary.LittleEndian.PutUint64(buf[s.Column(2).Offset():], math.Float64bits(score))
	schema.EncodeDatetime(buf[s.Column(3).Offset():s.Column(3).Offset()+8], at)
	schema.EncodeDate(buf[s.Column(4).Offset():s.Column(4).Offset()+4], on)
	schema.EncodeTime(buf[s.Column(5).Offset():s.Column(5).Offset()+8], tod)
	return buf
}

func TestAppendMixedRow(t *testing.T) {
	s := mixedSchema(t)
	tbl := convert.NewTable(s, memory.NewGoAllocator())
	require.Equal(t, s.NumColumns(), tbl.NumColumns())

	builders := make([]array.Builder, tbl.NumColumns())
	for i := range builders {
		builders[i] = tbl.NewBuilder(i)
		defer builders[i].Release()
	}

	at := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	on := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	buf := encodeRow(t, s, "alpha", 7, 2.5, at, on, 6*time.Hour)

	for i, b := range builders {
		require.NoError(t, tbl.Append(i, b, buf))
	}

	names := builders[0].NewArray().(*array.String)
	defer names.Release()
	assert.Equal(t, "alpha", names.Value(0))

	ids := builders[1].NewArray().(*array.Int64)
	defer ids.Release()
	assert.Equal(t, int64(7), ids.Value(0))

	scores := builders[2].NewArray().(*array.Float64)
	defer scores.Release()
	assert.Equal(t, 2.5, scores.Value(0))

	ats := builders[3].NewArray().(*array.Timestamp)
	defer ats.Release()
	assert.Equal(t, at.UnixMicro(), int64(ats.Value(0)))

	ons := builders[4].NewArray().(*array.Date32)
	defer ons.Release()
	assert.True(t, on.Equal(ons.Value(0).ToTime()))

	tods := builders[5].NewArray().(*array.Time64)
	defer tods.Release()
	assert.Equal(t, (6 * time.Hour).Microseconds(), int64(tods.Value(0)))
}

func TestNaNBecomesNull(t *testing.T) {
	s, err := schema.New([]schema.Column{
		{Name: "n", Type: schema.ColumnTypeNumber},
	})
	require.NoError(t, err)

	tbl := convert.NewTable(s, memory.NewGoAllocator())
	b := tbl.NewBuilder(0)
	defer b.Release()

	buf := make([]byte, s.RowWidth())
	binary.LittleEndian.PutUint64(buf, math.Float64bits(math.NaN()))
	require.NoError(t, tbl.Append(0, b, buf))

	binary.LittleEndian.PutUint64(buf, math.Float64bits(1.0))
	require.NoError(t, tbl.Append(0, b, buf))

	arr := b.NewArray().(*array.Float64)
	defer arr.Release()
	assert.True(t, arr.IsNull(0))
	assert.Equal(t, 1.0, arr.Value(1))
	assert.Equal(t, 1, arr.NullN())
}

func TestTemporalSentinelsBecomeNull(t *testing.T) {
	s, err := schema.New([]schema.Column{
		{Name: "at", Type: schema.ColumnTypeDatetime},
		{Name: "on", Type: schema.ColumnTypeDate},
		{Name: "tod", Type: schema.ColumnTypeTime},
	})
	require.NoError(t, err)

	tbl := convert.NewTable(s, memory.NewGoAllocator())
	buf := make([]byte, s.RowWidth())
	schema.EncodeDatetime(buf[s.Column(0).Offset():s.Column(0).Offset()+8], time.Time{})
	schema.EncodeDate(buf[s.Column(1).Offset():s.Column(1).Offset()+4], time.Time{})
	schema.EncodeTime(buf[s.Column(2).Offset():s.Column(2).Offset()+8], -1)

	for i := 0; i < s.NumColumns(); i++ {
		b := tbl.NewBuilder(i)
		require.NoError(t, tbl.Append(i, b, buf))
		arr := b.NewArray()
		assert.True(t, arr.IsNull(0), "column %d", i)
		arr.Release()
		b.Release()
	}
}

func TestEmptyStringIsNotNull(t *testing.T) {
	s, err := schema.New([]schema.Column{
		{Name: "s", Type: schema.ColumnTypeString, Length: 4},
	})
	require.NoError(t, err)

	tbl := convert.NewTable(s, memory.NewGoAllocator())
	b := tbl.NewBuilder(0)
	defer b.Release()

	buf := make([]byte, s.RowWidth())
	require.NoError(t, tbl.Append(0, b, buf))

	arr := b.NewArray().(*array.String)
	defer arr.Release()
	assert.False(t, arr.IsNull(0))
	assert.Equal(t, "", arr.Value(0))
}

func TestUnknownTypeRendersText(t *testing.T) {
	s, err := schema.New([]schema.Column{
		{Name: "u", Type: schema.ColumnTypeUnknown, Length: 6},
	})
	require.NoError(t, err)

	tbl := convert.NewTable(s, memory.NewGoAllocator())
	b := tbl.NewBuilder(0)
	defer b.Release()

	buf := make([]byte, s.RowWidth())
	copy(buf, "opaque")
	require.NoError(t, tbl.Append(0, b, buf))

	arr := b.NewArray().(*array.String)
	defer arr.Release()
	assert.Equal(t, "opaque", arr.Value(0))
}

func TestBuilderMismatchIsConversionError(t *testing.T) {
	s, err := schema.New([]schema.Column{
		{Name: "s", Type: schema.ColumnTypeString, Length: 4},
		{Name: "i", Type: schema.ColumnTypeInteger},
	})
	require.NoError(t, err)

	tbl := convert.NewTable(s, memory.NewGoAllocator())
	wrong := tbl.NewBuilder(1) // int64 builder handed to the string column
	defer wrong.Release()

	buf := make([]byte, s.RowWidth())
	err = tbl.Append(0, wrong, buf)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConversion))
}
