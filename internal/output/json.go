// internal/output/json.go

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pagesift/pagesift/internal/scraper"
)

// orderedRecord serializes one record with keys in column order instead
// of Go's map iteration order, so every emitted object lines up with the
// CSV and spreadsheet column layout.
type orderedRecord struct {
	record  *scraper.Record
	columns []string
}

func (r orderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.record.Export(col))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(path string, records []*scraper.Record, columns []string) error {
	ordered := make([]orderedRecord, len(records))
	for i, rec := range records {
		ordered[i] = orderedRecord{record: rec, columns: columns}
	}

	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
