// Package decoder defines the push contract between a source-format
// decoder and the conversion pipeline, plus an extension-keyed registry
// of decoder factories. The binary details of any particular source
// format live behind this contract.
package decoder

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sasarrow/pkg/errors"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
)

// Sink receives decoded rows. SetSchema is called exactly once before any
// row; PushRow once per row with a buffer valid only for the duration of
// the call; EndOfData exactly once after the last row (idempotent on the
// receiving side).
type Sink interface {
	SetSchema(s *schema.Schema)
	PushRow(rowIndex int64, buf []byte) error
	EndOfData() error
}

// Decoder drives rows from a source into a Sink. Implementations are
// single-threaded and push-synchronous.
type Decoder interface {
	// Schema returns the column descriptor set of the source.
	Schema() *schema.Schema
	// ReadRows decodes up to n rows into the sink and reports whether
	// more rows remain.
	ReadRows(n int) (bool, error)
	// ReadAll decodes every remaining row into the sink.
	ReadAll() error
	// Close releases the underlying source.
	Close() error
}

// Factory opens a source file and binds it to a sink.
type Factory func(path string, sink Sink, log *zap.Logger) (Decoder, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register associates a file extension (including the leading dot) with a
// decoder factory. Called from decoder package init functions.
func Register(ext string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(ext)] = f
}

// Lookup returns the factory registered for the path's extension.
func Lookup(path string) (Factory, error) {
	ext := strings.ToLower(filepath.Ext(path))

	registryMu.RLock()
	f, ok := registry[ext]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.New(errors.ErrorTypeInput, "no decoder registered for file extension").
			WithDetail("path", path).
			WithDetail("extension", ext)
	}
	return f, nil
}

// Extensions lists the registered file extensions in sorted order.
func Extensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
