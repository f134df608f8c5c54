package main

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/ajitpratap0/sasarrow/pkg/config"
	"github.com/ajitpratap0/sasarrow/pkg/decoder"
	"github.com/ajitpratap0/sasarrow/pkg/decoder/fixedfile"
	"github.com/ajitpratap0/sasarrow/pkg/json"
	"github.com/ajitpratap0/sasarrow/pkg/logger"
	"github.com/ajitpratap0/sasarrow/pkg/reader"
	"github.com/ajitpratap0/sasarrow/pkg/schema"
	"github.com/ajitpratap0/sasarrow/pkg/sink"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	var configFile string
	var chunkSize int64
	var strict bool
	var logLevel string

	root := &cobra.Command{
		Use:   "sasarrow",
		Short: "sasarrow - chunked row-to-Arrow conversion tool",
		Long: `sasarrow converts fixed-layout row files into Arrow columnar batches.
It reads the source in chunks, so files larger than memory convert in
bounded space, and writes Arrow IPC output or prints summaries.`,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML configuration file (optional)")
	root.PersistentFlags().Int64Var(&chunkSize, "chunk-size", sink.DefaultChunkSize, "Number of rows per Arrow batch")
	root.PersistentFlags().BoolVar(&strict, "strict", false, "Abort on the first value conversion failure instead of writing a null")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")

	// resolveConfig merges the optional config file under the flags and
	// initializes the global logger at the resolved level before any
	// reader is opened.
	resolveConfig := func(cmd *cobra.Command) (*config.Config, error) {
		cfg := &config.Config{
			ChunkSize: chunkSize,
			Strict:    strict,
			LogLevel:  logLevel,
		}
		if configFile != "" {
			var fileCfg config.Config
			if err := config.Load(configFile, &fileCfg); err != nil {
				return nil, err
			}
			if !cmd.Flags().Changed("chunk-size") && fileCfg.ChunkSize > 0 {
				cfg.ChunkSize = fileCfg.ChunkSize
			}
			if !cmd.Flags().Changed("strict") {
				cfg.Strict = fileCfg.Strict
			}
			if !cmd.Flags().Changed("log-level") && fileCfg.LogLevel != "" {
				cfg.LogLevel = fileCfg.LogLevel
			}
			cfg.Output = fileCfg.Output
		}
		if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: "json"}); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sasarrow v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List registered source formats",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Registered source formats:")
			for _, ext := range decoder.Extensions() {
				fmt.Printf("  - %s\n", ext)
			}
		},
	})

	infoCmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print source file metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return runInfo(args[0], cfg)
		},
	}
	root.AddCommand(infoCmd)

	var outputFile string
	convertCmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a source file to an Arrow IPC file",
		Long: `Convert reads the source file chunk by chunk and writes each finalized
Arrow batch to the output IPC file, so memory stays bounded by the chunk
size regardless of input size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			out := outputFile
			if out == "" {
				out = cfg.Output
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], fixedfile.Ext) + ".arrow"
			}
			return runConvert(args[0], out, cfg)
		},
	}
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output Arrow IPC file path")
	root.AddCommand(convertCmd)

	var headRows int64
	headCmd := &cobra.Command{
		Use:   "head <file>",
		Short: "Print the first rows of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return runHead(args[0], headRows, cfg)
		},
	}
	headCmd.Flags().Int64VarP(&headRows, "rows", "n", 10, "Number of rows to print")
	root.AddCommand(headCmd)

	var genRows int64
	generateCmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Generate a sample fixed-layout source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0], genRows)
		},
	}
	generateCmd.Flags().Int64VarP(&genRows, "rows", "n", 1000, "Number of rows to generate")
	root.AddCommand(generateCmd)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openReader(path string, cfg *config.Config) (*reader.ChunkedReader, error) {
	log := logger.With(zap.String("component", "sasarrow-cli"))

	opts := []reader.Option{
		reader.WithChunkSize(cfg.ChunkSize),
		reader.WithLogger(log),
	}
	if cfg.Strict {
		opts = append(opts, reader.WithStrictConversion())
	}
	return reader.Open(path, opts...)
}

// fileInfo is the JSON shape emitted by the info command.
type fileInfo struct {
	Path       string       `json:"path"`
	NumRows    int64        `json:"num_rows"`
	NumBatches int          `json:"num_batches"`
	ChunkSize  int64        `json:"chunk_size"`
	Columns    []columnInfo `json:"columns"`
}

type columnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	ArrowType  string `json:"arrow_type"`
	ByteLength int    `json:"byte_length,omitempty"`
}

func runInfo(path string, cfg *config.Config) error {
	r, err := openReader(path, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	if err := r.ReadAll(); err != nil {
		return err
	}

	desc := r.Descriptor()
	info := fileInfo{
		Path:       path,
		NumRows:    r.NumRows(),
		NumBatches: r.NumBatches(),
		ChunkSize:  r.ChunkSize(),
		Columns:    make([]columnInfo, desc.NumColumns()),
	}
	arrowSchema := r.Schema()
	for i := range info.Columns {
		col := desc.Column(i)
		info.Columns[i] = columnInfo{
			Name:      col.Name,
			Type:      col.Type.String(),
			ArrowType: arrowSchema.Field(i).Type.String(),
		}
		if col.Type == schema.ColumnTypeString || col.Type == schema.ColumnTypeUnknown {
			info.Columns[i].ByteLength = col.Length
		}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runConvert(path, output string, cfg *config.Config) error {
	r, err := openReader(path, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	f, err := os.Create(output) //nolint:gosec // G304: output path comes from the CLI user
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", output, err)
	}
	defer func() { _ = f.Close() }()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(r.Schema()))
	if err != nil {
		return fmt.Errorf("failed to create Arrow IPC writer: %w", err)
	}

	start := time.Now()
	var rows int64

	// Stream batches straight into the IPC file as they finalize.
	for {
		more, err := r.ReadChunk()
		if err != nil {
			return err
		}
		for r.HasBatch() {
			b, err := r.NextBatch()
			if err != nil {
				return err
			}
			werr := w.Write(b.Record)
			rows += b.NumRows()
			b.Record.Release()
			if werr != nil {
				return fmt.Errorf("failed to write batch: %w", werr)
			}
		}
		if !more {
			break
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize Arrow IPC file: %w", err)
	}

	logger.Info("conversion completed",
		zap.String("input", path),
		zap.String("output", output),
		zap.Int64("rows", rows),
		zap.Duration("duration", time.Since(start)))

	fmt.Printf("Wrote %d rows to %s\n", rows, output)
	return nil
}

func runHead(path string, n int64, cfg *config.Config) error {
	r, err := openReader(path, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	desc := r.Descriptor()
	names := make([]string, desc.NumColumns())
	for i := range names {
		names[i] = desc.Column(i).Name
	}
	fmt.Println(strings.Join(names, "\t"))

	var printed int64
	for printed < n {
		more, err := r.ReadChunk()
		if err != nil {
			return err
		}
		for r.HasBatch() && printed < n {
			b, err := r.NextBatch()
			if err != nil {
				return err
			}
			for row := 0; int64(row) < b.NumRows() && printed < n; row++ {
				cells := make([]string, int(b.Record.NumCols()))
				for c := range cells {
					cells[c] = renderCell(b.Record.Column(c), row)
				}
				fmt.Println(strings.Join(cells, "\t"))
				printed++
			}
			b.Record.Release()
		}
		if !more {
			break
		}
	}
	return nil
}

func renderCell(col arrow.Array, row int) string {
	if col.IsNull(row) {
		return "<null>"
	}
	switch c := col.(type) {
	case *array.String:
		return c.Value(row)
	case *array.Int64:
		return fmt.Sprintf("%d", c.Value(row))
	case *array.Float64:
		return fmt.Sprintf("%g", c.Value(row))
	case *array.Timestamp:
		return time.UnixMicro(int64(c.Value(row))).UTC().Format(time.RFC3339)
	case *array.Date32:
		return c.Value(row).ToTime().Format("2006-01-02")
	case *array.Time64:
		return (time.Duration(c.Value(row)) * time.Microsecond).String()
	default:
		return col.ValueStr(row)
	}
}

func runGenerate(path string, rows int64) error {
	desc, err := schema.New([]schema.Column{
		{Name: "id", Type: schema.ColumnTypeInteger},
		{Name: "label", Type: schema.ColumnTypeString, Length: 24},
		{Name: "value", Type: schema.ColumnTypeNumber},
		{Name: "observed_at", Type: schema.ColumnTypeDatetime},
		{Name: "observed_on", Type: schema.ColumnTypeDate},
		{Name: "elapsed", Type: schema.ColumnTypeTime},
	})
	if err != nil {
		return err
	}

	w, err := fixedfile.NewWriter(path, desc)
	if err != nil {
		return err
	}

	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := int64(0); i < rows; i++ {
		val := float64(i) * 1.25
		if i%97 == 0 {
			// Sprinkle missing numerics so null handling shows up in output.
			val = math.NaN()
		}
		err := w.Append(
			i,
			fmt.Sprintf("sample-%06d", i),
			val,
			base.Add(time.Duration(i)*time.Second),
			base.AddDate(0, 0, int(i%365)),
			time.Duration(i%86400)*time.Second,
		)
		if err != nil {
			_ = w.Close()
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", rows, path)
	return nil
}
