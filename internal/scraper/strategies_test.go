// internal/scraper/strategies_test.go
package scraper

import (
	"errors"
	"testing"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/pipeline"
)

const sampleHTML = `<html>
<head><title>Assessment Report</title></head>
<body>
	<h1 class="assessment-name">Backend Skills</h1>
	<div class="item">first</div>
	<div class="item">second</div>
	<div class="item">   </div>
	<a href="mailto:jane@example.com" class="contact">contact</a>
	<a class="contact">no href here</a>
	<p>Candidate Name: Jane Doe</p>
	<p>Trust Score - 1,234.50 kg</p>
</body>
</html>`

func mustPage(t *testing.T) *Page {
	t.Helper()
	page, err := NewPage("https://example.com/report", sampleHTML)
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	return page
}

func TestCSSStrategy(t *testing.T) {
	page := mustPage(t)

	strategy, err := NewCSSStrategy(".item")
	if err != nil {
		t.Fatalf("NewCSSStrategy failed: %v", err)
	}

	got := strategy.evaluate(page)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %v", len(got), got)
	}
	// Document order, whitespace-only node preserved as empty candidate.
	if got[0] != "first" || got[1] != "second" || got[2] != "" {
		t.Errorf("candidates = %v", got)
	}
}

func TestCSSStrategyNoMatch(t *testing.T) {
	page := mustPage(t)

	strategy, err := NewCSSStrategy(".missing")
	if err != nil {
		t.Fatalf("NewCSSStrategy failed: %v", err)
	}
	if got := strategy.evaluate(page); len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestCSSStrategyInvalidSelector(t *testing.T) {
	if _, err := NewCSSStrategy("div["); err == nil {
		t.Error("expected error for malformed selector")
	}
	if _, err := NewCSSStrategy(""); err == nil {
		t.Error("expected error for empty selector")
	}
}

func TestXPathStrategy(t *testing.T) {
	page := mustPage(t)

	strategy, err := NewXPathStrategy("//h1")
	if err != nil {
		t.Fatalf("NewXPathStrategy failed: %v", err)
	}

	got := strategy.evaluate(page)
	if len(got) != 1 || got[0] != "Backend Skills" {
		t.Errorf("candidates = %v", got)
	}
}

func TestXPathStrategyInvalidExpression(t *testing.T) {
	if _, err := NewXPathStrategy("//[unbalanced"); err == nil {
		t.Error("expected error for malformed XPath")
	}
}

func TestAttributeStrategy(t *testing.T) {
	page := mustPage(t)

	strategy, err := NewAttributeStrategy(".contact", "href")
	if err != nil {
		t.Fatalf("NewAttributeStrategy failed: %v", err)
	}

	// The second .contact node has no href and is skipped, not an error.
	got := strategy.evaluate(page)
	if len(got) != 1 || got[0] != "mailto:jane@example.com" {
		t.Errorf("candidates = %v", got)
	}
}

func TestAttributeStrategyRequiresAttribute(t *testing.T) {
	if _, err := NewAttributeStrategy(".contact", ""); err == nil {
		t.Error("expected error for missing attribute name")
	}
}

func TestTextPatternStrategy(t *testing.T) {
	page := mustPage(t)

	strategy, err := NewTextPatternStrategy(`Candidate Name[:\s]*([^\n]+)`)
	if err != nil {
		t.Fatalf("NewTextPatternStrategy failed: %v", err)
	}

	got := strategy.evaluate(page)
	if len(got) != 1 || got[0] != "Jane Doe" {
		t.Errorf("candidates = %v", got)
	}
}

func TestTextPatternStrategyCaseInsensitive(t *testing.T) {
	page := mustPage(t)

	strategy, err := NewTextPatternStrategy(`candidate name[:\s]*([^\n]+)`)
	if err != nil {
		t.Fatalf("NewTextPatternStrategy failed: %v", err)
	}
	if got := strategy.evaluate(page); len(got) != 1 || got[0] != "Jane Doe" {
		t.Errorf("candidates = %v", got)
	}
}

func TestTextPatternStrategyNoMatch(t *testing.T) {
	page := mustPage(t)

	strategy, err := NewTextPatternStrategy(`Nowhere[:\s]*([^\n]+)`)
	if err != nil {
		t.Fatalf("NewTextPatternStrategy failed: %v", err)
	}
	if got := strategy.evaluate(page); len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestTextPatternCaptureGroupCount(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		expectError bool
	}{
		{"exactly one group", `Score: ([0-9]+)`, false},
		{"zero groups", `Score: [0-9]+`, true},
		{"two groups", `(Score): ([0-9]+)`, true},
		{"invalid syntax", `([unclosed`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTextPatternStrategy(tt.pattern)
			if tt.expectError && err == nil {
				t.Error("expected error")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPageTitle(t *testing.T) {
	page := mustPage(t)
	if got := page.Title(); got != "Assessment Report" {
		t.Errorf("title = %q", got)
	}
}

func TestCompileFields(t *testing.T) {
	entries := []config.FieldEntry{
		{
			Name: "Assessment Name",
			Strategies: []config.StrategySpec{
				{Type: config.StrategyCSS, Selector: ".assessment-name"},
				{Type: config.StrategyXPath, Expression: "//h1"},
			},
		},
		{
			Name: "Email",
			Strategies: []config.StrategySpec{
				{Type: config.StrategyAttribute, Selector: ".contact", Attribute: "href"},
				{Type: config.StrategyTextPattern, Pattern: `Email[:\s]*([^\n]+)`},
			},
			Transform: []pipeline.StepSpec{{Type: "regex", Pattern: `mailto:`, Replacement: ""}},
		},
	}

	specs, err := CompileFields(entries)
	if err != nil {
		t.Fatalf("CompileFields failed: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if len(specs[0].Strategies) != 2 {
		t.Errorf("expected 2 strategies, got %d", len(specs[0].Strategies))
	}
	if specs[1].Strategies[0].Kind() != config.StrategyAttribute {
		t.Errorf("strategy kind = %q", specs[1].Strategies[0].Kind())
	}
}

func TestCompileFieldsErrors(t *testing.T) {
	valid := config.StrategySpec{Type: config.StrategyCSS, Selector: "h1"}

	tests := []struct {
		name    string
		entries []config.FieldEntry
	}{
		{
			name:    "no fields",
			entries: nil,
		},
		{
			name:    "missing field name",
			entries: []config.FieldEntry{{Strategies: []config.StrategySpec{valid}}},
		},
		{
			name: "duplicate field name",
			entries: []config.FieldEntry{
				{Name: "Title", Strategies: []config.StrategySpec{valid}},
				{Name: "Title", Strategies: []config.StrategySpec{valid}},
			},
		},
		{
			name:    "no strategies",
			entries: []config.FieldEntry{{Name: "Title"}},
		},
		{
			name: "unknown strategy type",
			entries: []config.FieldEntry{
				{Name: "Title", Strategies: []config.StrategySpec{{Type: "jquery", Selector: "h1"}}},
			},
		},
		{
			name: "text pattern without capture group",
			entries: []config.FieldEntry{
				{Name: "Title", Strategies: []config.StrategySpec{{Type: config.StrategyTextPattern, Pattern: `Title: .*`}}},
			},
		},
		{
			name: "invalid transform",
			entries: []config.FieldEntry{
				{
					Name:       "Title",
					Strategies: []config.StrategySpec{valid},
					Transform:  []pipeline.StepSpec{{Type: "regex", Pattern: `[bad`}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileFields(tt.entries)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var cfgErr *config.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected *config.ConfigurationError, got %T", err)
			}
		})
	}
}
