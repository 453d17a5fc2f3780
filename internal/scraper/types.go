// internal/scraper/types.go

// Package scraper implements the field-resolution engine: compiled field
// specs, the per-field resolver, the record assembler and the batch engine
// that drives them over a list of URLs.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/pagesift/pagesift/internal/pipeline"
)

// ValueKind discriminates the closed set of field value variants.
type ValueKind int

const (
	// ValueAbsent marks a field that produced no usable value on a page.
	ValueAbsent ValueKind = iota
	ValueText
	ValueNumber
)

// AbsentPlaceholder is how absent fields are rendered in every output
// format.
const AbsentPlaceholder = "Not Found"

// FieldValue is the resolved value of one field on one page: text, number,
// or absent.
type FieldValue struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// TextValue returns a text field value.
func TextValue(s string) FieldValue { return FieldValue{Kind: ValueText, Text: s} }

// NumberValue returns a numeric field value.
func NumberValue(n float64) FieldValue { return FieldValue{Kind: ValueNumber, Number: n} }

// AbsentValue returns the absent marker.
func AbsentValue() FieldValue { return FieldValue{Kind: ValueAbsent} }

// Export returns the value as written to output files: the native number,
// the text, or the absent placeholder.
func (v FieldValue) Export() interface{} {
	switch v.Kind {
	case ValueNumber:
		return v.Number
	case ValueText:
		return v.Text
	default:
		return AbsentPlaceholder
	}
}

// FieldSpec is one compiled field definition: a unique name, the ordered
// extraction strategies to try, and the transform chain applied to the
// winning raw candidate.
type FieldSpec struct {
	Name       string
	Strategies []Strategy
	Transform  pipeline.Chain
}

// Metadata column names appended after the declared fields in every export.
const (
	ColumnSourceURL   = "source_url"
	ColumnRetrievedAt = "retrieved_at"
	ColumnPageTitle   = "page_title"
)

// Columns returns the export column order: field declaration order followed
// by the metadata columns.
func Columns(fields []FieldSpec) []string {
	cols := make([]string, 0, len(fields)+3)
	for _, f := range fields {
		cols = append(cols, f.Name)
	}
	return append(cols, ColumnSourceURL, ColumnRetrievedAt, ColumnPageTitle)
}

// Record is one assembled row: resolved field values plus metadata for one
// input URL. Records are created once by the assembler and immutable
// thereafter.
type Record struct {
	Values      map[string]FieldValue
	SourceURL   string
	RetrievedAt time.Time
	PageTitle   string
}

// Export returns the exportable value for a column, covering both declared
// fields and the metadata columns.
func (r *Record) Export(column string) interface{} {
	switch column {
	case ColumnSourceURL:
		return r.SourceURL
	case ColumnRetrievedAt:
		return r.RetrievedAt.Format(time.RFC3339)
	case ColumnPageTitle:
		return r.PageTitle
	}
	if v, ok := r.Values[column]; ok {
		return v.Export()
	}
	return AbsentPlaceholder
}

// Failure is one per-URL failure entry in a RunResult.
type Failure struct {
	URL    string
	Reason string
}

// RunResult aggregates a batch run: records for successful URLs in input
// order, and a parallel list of per-URL failures.
type RunResult struct {
	Records  []*Record
	Failures []Failure
}

// Renderer is the rendering collaborator: it turns a URL into page HTML.
// The engine calls it but never implements it; the browser package provides
// the Chrome-backed implementation and tests substitute their own.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// RenderFunc adapts a plain function to the Renderer interface.
type RenderFunc func(ctx context.Context, url string) (string, error)

func (f RenderFunc) Render(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func (f RenderFunc) Close() error { return nil }

// Fetcher is the plain-HTTP fallback collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// APIClient is the optional direct-fetch alternative: its JSON response
// object becomes the record data directly.
type APIClient interface {
	FetchData(ctx context.Context, pageURL string) (map[string]interface{}, error)
}

// RenderError is a recovered per-URL failure: it is logged as a failure
// entry and the batch continues with the next URL.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
