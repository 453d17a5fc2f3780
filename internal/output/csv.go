// internal/output/csv.go

package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pagesift/pagesift/internal/scraper"
)

func writeCSV(path string, records []*scraper.Record, columns []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = cellString(rec.Export(col))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	return file.Close()
}
