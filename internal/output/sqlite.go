// internal/output/sqlite.go

package output

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pagesift/pagesift/internal/scraper"
)

// writeSQLite stores records in a single table named "records". Field
// columns whose values are all numeric get a REAL affinity, everything
// else is TEXT. Absent fields keep their placeholder text so the table
// reads the same as the other formats.
func writeSQLite(path string, records []*scraper.Record, columns []string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdentifier(col), columnAffinity(col, records)))
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS records (%s)", strings.Join(defs, ", "))
	if _, err := db.Exec(create); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
		marks[i] = "?"
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO records (%s) VALUES (%s)",
		strings.Join(quoted, ", "), strings.Join(marks, ", "),
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			args[i] = rec.Export(col)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return db.Close()
}

func columnAffinity(column string, records []*scraper.Record) string {
	numeric := false
	for _, rec := range records {
		switch rec.Export(column).(type) {
		case float64:
			numeric = true
		case string:
			if v, ok := rec.Values[column]; !ok || v.Kind != scraper.ValueAbsent {
				return "TEXT"
			}
		}
	}
	if numeric {
		return "REAL"
	}
	return "TEXT"
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
