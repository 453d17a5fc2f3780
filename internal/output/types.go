// internal/output/types.go

// Package output serializes accumulated records to the requested tabular
// formats. All files of one run share a single timestamp token, and a
// failure writing one format never prevents the others from being
// attempted.
package output

import (
	"fmt"

	"github.com/pagesift/pagesift/internal/config"
)

// Format identifies one supported output format.
type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// Extension returns the file extension for the format, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatXLSX:
		return ".xlsx"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	case FormatSQLite:
		return ".db"
	default:
		return ".txt"
	}
}

// ParseFormats validates requested format names, preserving request order
// and dropping duplicates. Unknown names are a configuration error.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return nil, config.NewConfigurationError("run", fmt.Errorf("at least one output format is required"))
	}

	seen := make(map[Format]bool, len(names))
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(name)
		switch f {
		case FormatXLSX, FormatCSV, FormatJSON, FormatSQLite:
		default:
			return nil, config.NewConfigurationError("run", fmt.Errorf("unknown output format %q", name))
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	return formats, nil
}

// ExportError is a recovered per-format failure: the other formats are
// still attempted and the error is reported to the caller at end of run.
type ExportError struct {
	Format Format
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to write %s output to %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
