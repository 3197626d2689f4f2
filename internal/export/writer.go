package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"pncpx/internal/flatten"
	"pncpx/internal/services"
)

// Variant selects a CSV dialect.
type Variant string

const (
	// VariantInternational uses a comma field separator and dot decimals.
	VariantInternational Variant = "csv"
	// VariantBrazilian uses a semicolon separator and comma decimals.
	VariantBrazilian Variant = "csv_br"
)

// VariantsForFormat maps a configured format selection to the variants to write.
func VariantsForFormat(format string) []Variant {
	switch format {
	case "csv":
		return []Variant{VariantInternational}
	case "csv_br":
		return []Variant{VariantBrazilian}
	default:
		return []Variant{VariantInternational, VariantBrazilian}
	}
}

// Options configures a Writer.
type Options struct {
	// Dir receives the output files.
	Dir string
	// Base is the filename stem; page ranges are appended per checkpoint.
	Base string
	// Variants lists the dialects to produce.
	Variants []Variant
	// BREncoding is "utf-8" or "windows-1252" and applies to the Brazilian
	// variant only.
	BREncoding string
}

// Writer accumulates flattened rows and persists them as checkpointed CSV
// files. The column set is the union of all keys seen so far, so every
// checkpoint rewrites the full accumulated dataset: appending is unsafe when
// later pages can introduce new columns. Files land via a temp file and
// rename so a crash mid-write leaves the previous checkpoint intact.
type Writer struct {
	opts      Options
	startPage int
	rows      []flatten.Row
	current   map[Variant]string
}

// NewWriter creates a Writer for one extraction run beginning at startPage.
func NewWriter(opts Options, startPage int) (*Writer, error) {
	if opts.Base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "export", "new", "output base name required", nil)
	}
	if len(opts.Variants) == 0 {
		opts.Variants = VariantsForFormat("")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrWrite, "export", "new", "create output directory", err)
	}
	return &Writer{
		opts:      opts,
		startPage: startPage,
		current:   make(map[Variant]string, len(opts.Variants)),
	}, nil
}

// Append buffers rows for the next checkpoint.
func (w *Writer) Append(rows ...flatten.Row) {
	w.rows = append(w.rows, rows...)
}

// RowCount returns the number of accumulated rows.
func (w *Writer) RowCount() int {
	return len(w.rows)
}

// Checkpoint rewrites every variant covering pages startPage..throughPage and
// prunes the checkpoint files it supersedes. With no accumulated rows it
// writes nothing and returns no paths.
func (w *Writer) Checkpoint(throughPage int) ([]string, error) {
	if len(w.rows) == 0 {
		return nil, nil
	}

	columns := sortedColumns(w.rows)
	paths := make([]string, 0, len(w.opts.Variants))
	for _, variant := range w.opts.Variants {
		path := w.variantPath(variant, throughPage)
		if err := w.writeVariant(variant, path, columns); err != nil {
			return paths, err
		}
		if previous := w.current[variant]; previous != "" && previous != path {
			// Superseded checkpoint; the replacement is already durable.
			_ = os.Remove(previous)
		}
		w.current[variant] = path
		paths = append(paths, path)
	}
	return paths, nil
}

// Finalize performs the last full write and returns the final output paths.
func (w *Writer) Finalize(throughPage int) ([]string, error) {
	return w.Checkpoint(throughPage)
}

// Paths returns the current output file per variant, in variant order.
func (w *Writer) Paths() []string {
	paths := make([]string, 0, len(w.current))
	for _, variant := range w.opts.Variants {
		if path := w.current[variant]; path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

func (w *Writer) variantPath(variant Variant, throughPage int) string {
	name := fmt.Sprintf("%s_p%d-%d", w.opts.Base, w.startPage, throughPage)
	if variant == VariantBrazilian {
		name += "_BR"
	}
	return filepath.Join(w.opts.Dir, name+".csv")
}

func (w *Writer) writeVariant(variant Variant, path string, columns []string) error {
	tmp, err := os.CreateTemp(w.opts.Dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return services.Wrap(services.ErrWrite, "export", "checkpoint", "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	var sink io.Writer = tmp
	var encoded *transform.Writer
	if variant == VariantBrazilian && w.opts.BREncoding == "windows-1252" {
		encoded = transform.NewWriter(tmp, charmap.Windows1252.NewEncoder())
		sink = encoded
	}

	csvWriter := csv.NewWriter(sink)
	if variant == VariantBrazilian {
		csvWriter.Comma = ';'
	}

	if err := csvWriter.Write(columns); err != nil {
		return services.Wrap(services.ErrWrite, "export", "checkpoint", "write header", err)
	}
	cells := make([]string, len(columns))
	for _, row := range w.rows {
		for i, column := range columns {
			cells[i] = renderCell(variant, column, row[column])
		}
		if err := csvWriter.Write(cells); err != nil {
			return services.Wrap(services.ErrWrite, "export", "checkpoint", "write row", err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return services.Wrap(services.ErrWrite, "export", "checkpoint", "flush csv", err)
	}
	if encoded != nil {
		if err := encoded.Close(); err != nil {
			return services.Wrap(services.ErrWrite, "export", "checkpoint", "finish encoding", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return services.Wrap(services.ErrWrite, "export", "checkpoint", "close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return services.Wrap(services.ErrWrite, "export", "checkpoint", "rename into place", err)
	}
	return nil
}

func renderCell(variant Variant, column string, value any) string {
	if value == nil {
		return ""
	}
	if looksNumeric(column, value) {
		if n, ok := toNumber(value); ok {
			if variant == VariantBrazilian {
				return formatBrazilian(n)
			}
			return formatInternational(n)
		}
	}
	return cellText(value)
}

func sortedColumns(rows []flatten.Row) []string {
	union := flatten.Keys(rows)
	columns := make([]string, 0, len(union))
	for key := range union {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}
