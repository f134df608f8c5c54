package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sasarrow/pkg/config"
)

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("SASARROW_TEST_CHUNK", "128")

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "chunk_size: ${SASARROW_TEST_CHUNK}\nstrict: true\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var cfg config.Config
	require.NoError(t, config.Load(path, &cfg))

	assert.Equal(t, int64(128), cfg.ChunkSize)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg config.Config
	err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	in := config.Config{ChunkSize: 42, LogLevel: "warn", Output: "out.arrow"}
	require.NoError(t, config.Save(path, &in))

	var out config.Config
	require.NoError(t, config.Load(path, &out))
	assert.Equal(t, in, out)
}
