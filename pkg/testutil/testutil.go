// Package testutil provides testing utilities shared by the package
// tests: loggers bound to the test output and fixed-layout file fixtures.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/sasarrow/pkg/decoder/fixedfile"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// MixedSchema returns a descriptor exercising every column type.
func MixedSchema(t *testing.T) *schema.Schema {
	t.Helper()
	desc, err := schema.New([]schema.Column{
		{Name: "id", Type: schema.ColumnTypeInteger},
		{Name: "name", Type: schema.ColumnTypeString, Length: 16},
		{Name: "score", Type: schema.ColumnTypeNumber},
		{Name: "created", Type: schema.ColumnTypeDatetime},
		{Name: "birthday", Type: schema.ColumnTypeDate},
		{Name: "wakeup", Type: schema.ColumnTypeTime},
	})
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}
	return desc
}

// Row is one fixture row matching MixedSchema's column order.
type Row struct {
	ID       int64
	Name     string
	Score    float64
	Created  time.Time
	Birthday time.Time
	Wakeup   time.Duration
}

// MixedRow returns a deterministic fixture row derived from i.
func MixedRow(i int64) Row {
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	return Row{
		ID:       i,
		Name:     "row-" + string(rune('a'+i%26)),
		Score:    float64(i) + 0.5,
		Created:  base.Add(time.Duration(i) * time.Minute),
		Birthday: base.AddDate(0, 0, int(i)),
		Wakeup:   time.Duration(i+1) * time.Hour,
	}
}

// WriteMixedFile writes a fixed-layout file with n MixedRow rows into the
// test's temp dir and returns its path.
func WriteMixedFile(t *testing.T, n int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture"+fixedfile.Ext)
	desc := MixedSchema(t)

	w, err := fixedfile.NewWriter(path, desc)
	if err != nil {
		t.Fatalf("failed to create fixture writer: %v", err)
	}
	for i := int64(0); i < n; i++ {
		r := MixedRow(i)
		if err := w.Append(r.ID, r.Name, r.Score, r.Created, r.Birthday, r.Wakeup); err != nil {
			t.Fatalf("failed to append fixture row %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close fixture writer: %v", err)
	}
	return path
}

// WriteFile writes a fixed-layout file with the given descriptor and rows
// into the test's temp dir and returns its path. Each row is a positional
// value slice as accepted by fixedfile.Writer.Append.
func WriteFile(t *testing.T, desc *schema.Schema, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data"+fixedfile.Ext)

	w, err := fixedfile.NewWriter(path, desc)
	if err != nil {
		t.Fatalf("failed to create fixture writer: %v", err)
	}
	for i, row := range rows {
		if err := w.Append(row...); err != nil {
			t.Fatalf("failed to append fixture row %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close fixture writer: %v", err)
	}
	return path
}
