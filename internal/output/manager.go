// internal/output/manager.go

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pagesift/pagesift/internal/scraper"
)

// TimestampLayout is the token shared by every file of a single run.
const TimestampLayout = "20060102_150405"

// Manager writes one run's records to every configured format.
type Manager struct {
	outputDir string
	baseName  string
	formats   []Format
	log       zerolog.Logger
}

// NewManager returns a manager writing files named
// {baseName}_{timestamp}{ext} under outputDir.
func NewManager(outputDir, baseName string, formats []Format, log zerolog.Logger) *Manager {
	if baseName == "" {
		baseName = "results"
	}
	return &Manager{
		outputDir: outputDir,
		baseName:  baseName,
		formats:   formats,
		log:       log.With().Str("component", "output").Logger(),
	}
}

// FileName returns the output file name for one format at the given
// run timestamp.
func (m *Manager) FileName(f Format, ts time.Time) string {
	return fmt.Sprintf("%s_%s%s", m.baseName, ts.Format(TimestampLayout), f.Extension())
}

// Write serializes records to every configured format. Each format is
// attempted independently: a failure is collected as an *ExportError and
// the remaining formats still run. The returned slice holds the paths of
// the files actually written.
func (m *Manager) Write(records []*scraper.Record, columns []string, ts time.Time) ([]string, []*ExportError) {
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		errs := make([]*ExportError, 0, len(m.formats))
		for _, f := range m.formats {
			errs = append(errs, &ExportError{Format: f, Path: m.outputDir, Err: err})
		}
		return nil, errs
	}

	var (
		paths   []string
		exports []*ExportError
	)
	for _, f := range m.formats {
		path := filepath.Join(m.outputDir, m.FileName(f, ts))
		var err error
		switch f {
		case FormatCSV:
			err = writeCSV(path, records, columns)
		case FormatJSON:
			err = writeJSON(path, records, columns)
		case FormatXLSX:
			err = writeExcel(path, records, columns)
		case FormatSQLite:
			err = writeSQLite(path, records, columns)
		default:
			err = fmt.Errorf("unknown format %q", f)
		}
		if err != nil {
			m.log.Error().Err(err).Str("format", string(f)).Str("path", path).Msg("export failed")
			exports = append(exports, &ExportError{Format: f, Path: path, Err: err})
			continue
		}
		m.log.Info().Str("format", string(f)).Str("path", path).Int("records", len(records)).Msg("wrote output file")
		paths = append(paths, path)
	}
	return paths, exports
}

// cellString renders one exported value for text-based formats. Numbers
// use the shortest representation that round-trips.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
