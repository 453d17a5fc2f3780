// internal/config/types.go

// Package config provides the run and field configuration documents for
// pagesift. The field configuration declares what to extract and how; the
// run configuration controls rendering, fallback fetching, debugging and
// output. Both fail fast at load time with a *ConfigurationError, before
// any URL is processed.
package config

import "github.com/pagesift/pagesift/internal/pipeline"

// Strategy kind tags accepted in field configuration documents.
const (
	StrategyCSS         = "css"
	StrategyXPath       = "xpath"
	StrategyAttribute   = "attribute"
	StrategyTextPattern = "text_pattern"
)

// StrategySpec is the raw, tagged description of one extraction strategy.
// Which parameters are required depends on the kind tag in Type.
type StrategySpec struct {
	Type string `yaml:"type" json:"type"`

	// Selector is the CSS selector for css and attribute strategies.
	Selector string `yaml:"selector,omitempty" json:"selector,omitempty"`

	// Expression is the XPath expression for xpath strategies.
	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`

	// Attribute names the attribute to read for attribute strategies.
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"`

	// Pattern is the regular expression for text_pattern strategies. It
	// must declare exactly one capturing group.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// FieldEntry declares one output column: its name, the ordered extraction
// strategies to try, and the transform steps applied to the winning raw
// candidate.
type FieldEntry struct {
	Name       string              `yaml:"name" json:"name"`
	Strategies []StrategySpec      `yaml:"strategies" json:"strategies"`
	Transform  []pipeline.StepSpec `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// FieldFile is the loaded field configuration document.
type FieldFile struct {
	Fields []FieldEntry `yaml:"fields" json:"fields"`
}

// APIEndpoint describes an optional direct-fetch alternative to rendering.
// Its JSON response object becomes the record data directly.
type APIEndpoint struct {
	URL     string            `yaml:"url" json:"url"`
	Method  string            `yaml:"method,omitempty" json:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Params  map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// RunConfig is the loaded run configuration document.
type RunConfig struct {
	// Headless controls the rendering collaborator's browser mode.
	Headless bool `yaml:"headless" json:"headless"`

	// SaveHTML dumps the raw content of every page into the output
	// directory for debugging.
	SaveHTML bool `yaml:"save_html" json:"save_html"`

	// SaveScreenshots captures a screenshot per rendered page.
	SaveScreenshots bool `yaml:"save_screenshots" json:"save_screenshots"`

	// WaitSelectors are CSS selectors the renderer waits for before
	// taking the page snapshot.
	WaitSelectors []string `yaml:"wait_selectors,omitempty" json:"wait_selectors,omitempty"`

	// WaitSeconds bounds each wait_selectors wait.
	WaitSeconds int `yaml:"wait_seconds" json:"wait_seconds"`

	// SleepAfterLoad is the fixed settle delay, in seconds, used when no
	// wait_selectors are configured.
	SleepAfterLoad int `yaml:"sleep_after_load" json:"sleep_after_load"`

	// SuccessThreshold is the minimum ratio of resolved fields for a
	// fetch method's result to be accepted before trying the next method.
	SuccessThreshold float64 `yaml:"success_threshold" json:"success_threshold"`

	// PolitenessDelaySeconds spaces out consecutive URL fetches.
	PolitenessDelaySeconds float64 `yaml:"politeness_delay_seconds" json:"politeness_delay_seconds"`

	// RequestTimeoutSeconds bounds each render or HTTP fetch.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`

	// APIEndpoints are tried, in order, when both rendering and the HTTP
	// fallback produce unusable results.
	APIEndpoints []APIEndpoint `yaml:"api_endpoints,omitempty" json:"api_endpoints,omitempty"`

	// OutputDir receives all written files.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Formats selects the export formats (xlsx, csv, json, sqlite).
	Formats []string `yaml:"formats" json:"formats"`

	// UserAgents rotate across HTTP fallback requests.
	UserAgents []string `yaml:"user_agents,omitempty" json:"user_agents,omitempty"`
}
