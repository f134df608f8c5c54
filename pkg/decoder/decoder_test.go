package decoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sasarrow/pkg/decoder"
	"github.com/ajitpratap0/sasarrow/pkg/errors"
)

func TestLookupIsCaseInsensitive(t *testing.T) {
	called := false
	decoder.Register(".testext", func(path string, sink decoder.Sink, log *zap.Logger) (decoder.Decoder, error) {
		called = true
		return nil, nil
	})

	f, err := decoder.Lookup("/data/FILE.TESTEXT")
	require.NoError(t, err)
	_, _ = f("", nil, nil)
	assert.True(t, called)
}

func TestLookupUnknownExtension(t *testing.T) {
	_, err := decoder.Lookup("/data/file.nothing")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInput))
}

func TestExtensionsSorted(t *testing.T) {
	decoder.Register(".zzz", nil)
	decoder.Register(".aaa", nil)

	exts := decoder.Extensions()
	require.GreaterOrEqual(t, len(exts), 2)
	for i := 1; i < len(exts); i++ {
		assert.LessOrEqual(t, exts[i-1], exts[i])
	}
}
