package json_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sasarrow/pkg/json"
)

type sample struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := sample{Name: "batch", Count: 42}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"batch","count":42}`, string(data))

	var out sample
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalIndent(t *testing.T) {
	data, err := json.MarshalIndent(sample{Name: "x"}, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"name\"")
}

func TestMarshalToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, json.MarshalToWriter(&buf, sample{Name: "<y>", Count: 1}))

	// Encoder output ends with a newline and leaves HTML unescaped.
	out := buf.String()
	assert.JSONEq(t, `{"name":"<y>","count":1}`, out)
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

func TestBufferPoolHandsBackCleanBuffers(t *testing.T) {
	buf := json.GetBuffer()
	buf.WriteString("scratch")
	json.PutBuffer(buf)

	again := json.GetBuffer()
	assert.Zero(t, again.Len())
	json.PutBuffer(again)
}
