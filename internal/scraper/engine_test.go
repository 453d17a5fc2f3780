// internal/scraper/engine_test.go
package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pagesift/pagesift/internal/config"
)

func testFields(t *testing.T) []FieldSpec {
	t.Helper()
	specs, err := CompileFields([]config.FieldEntry{
		{
			Name:       "Assessment Name",
			Strategies: []config.StrategySpec{{Type: config.StrategyCSS, Selector: ".assessment-name"}},
		},
		{
			Name:       "Candidate Name",
			Strategies: []config.StrategySpec{{Type: config.StrategyTextPattern, Pattern: `Candidate Name[:\s]*([^\n]+)`}},
		},
	})
	if err != nil {
		t.Fatalf("CompileFields failed: %v", err)
	}
	return specs
}

func newTestEngine(t *testing.T, opts EngineOptions) *Engine {
	t.Helper()
	opts.Logger = zerolog.Nop()
	engine, err := NewEngine(testFields(t), opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestRunPartialFailureIsolation(t *testing.T) {
	renderer := RenderFunc(func(ctx context.Context, url string) (string, error) {
		if url == "https://example.com/u2" {
			return "", fmt.Errorf("browser session lost")
		}
		return sampleHTML, nil
	})

	engine := newTestEngine(t, EngineOptions{Renderer: renderer})

	urls := []string{
		"https://example.com/u1",
		"https://example.com/u2",
		"https://example.com/u3",
	}
	result := engine.Run(context.Background(), urls)

	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if result.Records[0].SourceURL != urls[0] || result.Records[1].SourceURL != urls[2] {
		t.Errorf("record order = %s, %s", result.Records[0].SourceURL, result.Records[1].SourceURL)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failures))
	}
	if result.Failures[0].URL != urls[1] {
		t.Errorf("failure url = %s", result.Failures[0].URL)
	}
}

func TestRunRecordContents(t *testing.T) {
	engine := newTestEngine(t, EngineOptions{
		Renderer: RenderFunc(func(ctx context.Context, url string) (string, error) {
			return sampleHTML, nil
		}),
	})

	result := engine.Run(context.Background(), []string{"https://example.com/report"})
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}

	record := result.Records[0]
	if record.PageTitle != "Assessment Report" {
		t.Errorf("page title = %q", record.PageTitle)
	}
	if record.RetrievedAt.IsZero() {
		t.Error("retrieved_at not set")
	}
	if v := record.Values["Assessment Name"]; v.Text != "Backend Skills" {
		t.Errorf("Assessment Name = %+v", v)
	}
	if v := record.Values["Candidate Name"]; v.Text != "Jane Doe" {
		t.Errorf("Candidate Name = %+v", v)
	}
}

type fetcherFunc func(ctx context.Context, url string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func TestRunFallsBackBelowThreshold(t *testing.T) {
	// The renderer produces a page resolving none of the fields; the HTTP
	// fallback produces the full page and its record must win.
	rendered := 0
	fetched := 0

	engine := newTestEngine(t, EngineOptions{
		Renderer: RenderFunc(func(ctx context.Context, url string) (string, error) {
			rendered++
			return "<html><body><p>unrelated content</p></body></html>", nil
		}),
		Fetcher: fetcherFunc(func(ctx context.Context, url string) (string, error) {
			fetched++
			return sampleHTML, nil
		}),
		SuccessThreshold: 0.5,
	})

	result := engine.Run(context.Background(), []string{"https://example.com/report"})
	if rendered != 1 || fetched != 1 {
		t.Fatalf("rendered=%d fetched=%d", rendered, fetched)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d (failures: %v)", len(result.Records), result.Failures)
	}
	if v := result.Records[0].Values["Assessment Name"]; v.Text != "Backend Skills" {
		t.Errorf("record did not come from the fallback fetch: %+v", v)
	}
}

func TestRunKeepsBestBelowThreshold(t *testing.T) {
	// Every method stays below the threshold; the best partial record is
	// still kept rather than reporting a failure.
	engine := newTestEngine(t, EngineOptions{
		Renderer: RenderFunc(func(ctx context.Context, url string) (string, error) {
			return `<html><body><h1 class="assessment-name">Partial</h1></body></html>`, nil
		}),
		SuccessThreshold: 1.0,
	})

	result := engine.Run(context.Background(), []string{"https://example.com/report"})
	if len(result.Records) != 1 || len(result.Failures) != 0 {
		t.Fatalf("records=%d failures=%d", len(result.Records), len(result.Failures))
	}
	record := result.Records[0]
	if v := record.Values["Assessment Name"]; v.Text != "Partial" {
		t.Errorf("Assessment Name = %+v", v)
	}
	if v := record.Values["Candidate Name"]; v.Kind != ValueAbsent {
		t.Errorf("Candidate Name = %+v, want absent", v)
	}
}

type apiClientFunc func(ctx context.Context, pageURL string) (map[string]interface{}, error)

func (f apiClientFunc) FetchData(ctx context.Context, pageURL string) (map[string]interface{}, error) {
	return f(ctx, pageURL)
}

func TestRunAPIFallback(t *testing.T) {
	engine := newTestEngine(t, EngineOptions{
		Renderer: RenderFunc(func(ctx context.Context, url string) (string, error) {
			return "", fmt.Errorf("render timeout")
		}),
		API: apiClientFunc(func(ctx context.Context, pageURL string) (map[string]interface{}, error) {
			return map[string]interface{}{
				"Assessment Name": "From API",
				"Candidate Name":  "Jane Doe",
				"ignored key":     true,
			}, nil
		}),
		SuccessThreshold: 0.5,
	})

	result := engine.Run(context.Background(), []string{"https://example.com/report"})
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, failures: %v", result.Failures)
	}
	record := result.Records[0]
	if v := record.Values["Assessment Name"]; v.Text != "From API" {
		t.Errorf("Assessment Name = %+v", v)
	}
	if _, ok := record.Values["ignored key"]; ok {
		t.Error("API keys outside the field configuration must be ignored")
	}
}

func TestRunCancellationBetweenURLs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	engine := newTestEngine(t, EngineOptions{
		Renderer: RenderFunc(func(_ context.Context, url string) (string, error) {
			calls++
			cancel() // cancel mid-URL; only the following iterations stop
			return sampleHTML, nil
		}),
	})

	result := engine.Run(ctx, []string{"https://example.com/u1", "https://example.com/u2"})
	if calls != 1 {
		t.Errorf("renderer called %d times, want 1", calls)
	}
	if len(result.Records) != 1 {
		t.Errorf("expected the in-flight URL to complete, got %d records", len(result.Records))
	}
}

func TestNewEngineValidation(t *testing.T) {
	if _, err := NewEngine(nil, EngineOptions{Renderer: RenderFunc(nil)}); err == nil {
		t.Error("expected error for empty field list")
	}

	fields := testFields(t)
	if _, err := NewEngine(fields, EngineOptions{}); err == nil {
		t.Error("expected error when no fetch method is configured")
	}
}

func TestRecordExport(t *testing.T) {
	record := &Record{
		Values: map[string]FieldValue{
			"Name":  TextValue("Jane"),
			"Score": NumberValue(87),
			"Gone":  AbsentValue(),
		},
		SourceURL: "https://example.com",
		PageTitle: "Report",
	}

	if got := record.Export("Name"); got != "Jane" {
		t.Errorf("Name = %v", got)
	}
	if got := record.Export("Score"); got != 87.0 {
		t.Errorf("Score = %v", got)
	}
	if got := record.Export("Gone"); got != AbsentPlaceholder {
		t.Errorf("Gone = %v", got)
	}
	if got := record.Export(ColumnSourceURL); got != "https://example.com" {
		t.Errorf("source_url = %v", got)
	}
	if got := record.Export("never configured"); got != AbsentPlaceholder {
		t.Errorf("unknown column = %v", got)
	}
}

func TestColumns(t *testing.T) {
	fields := testFields(t)
	cols := Columns(fields)

	want := []string{"Assessment Name", "Candidate Name", ColumnSourceURL, ColumnRetrievedAt, ColumnPageTitle}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v", cols)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("cols[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
}
