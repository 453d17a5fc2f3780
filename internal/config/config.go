// internal/config/config.go
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pagesift/pagesift/internal/pipeline"
)

// Default run configuration values, matching the documented behavior of the
// tool when no run configuration file is supplied.
const (
	DefaultSuccessThreshold = 0.5
	DefaultPolitenessDelay  = 2.0
	DefaultSleepAfterLoad   = 3
	DefaultWaitSeconds      = 15
	DefaultRequestTimeout   = 30
)

// DefaultRunConfig returns a RunConfig populated with defaults.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Headless:               false,
		SaveScreenshots:        true,
		SleepAfterLoad:         DefaultSleepAfterLoad,
		WaitSeconds:            DefaultWaitSeconds,
		SuccessThreshold:       DefaultSuccessThreshold,
		PolitenessDelaySeconds: DefaultPolitenessDelay,
		RequestTimeoutSeconds:  DefaultRequestTimeout,
		OutputDir:              ".",
		Formats:                []string{"xlsx", "csv", "json"},
	}
}

// LoadRunConfig loads a run configuration document. YAML and JSON are both
// accepted (JSON is a YAML subset). Environment variables in the document
// are expanded before parsing. Missing options keep their defaults.
func LoadRunConfig(filename string) (*RunConfig, error) {
	cfg := DefaultRunConfig()
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, NewConfigurationError("run", fmt.Errorf("failed to read %s: %w", filename, err))
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, NewConfigurationError("run", fmt.Errorf("failed to parse %s: %w", filename, err))
	}

	applyRunDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyRunDefaults restores defaults for options zeroed by an explicit but
// partial document.
func applyRunDefaults(cfg *RunConfig) {
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = DefaultSuccessThreshold
	}
	if cfg.SleepAfterLoad == 0 {
		cfg.SleepAfterLoad = DefaultSleepAfterLoad
	}
	if cfg.WaitSeconds == 0 {
		cfg.WaitSeconds = DefaultWaitSeconds
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = DefaultRequestTimeout
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"xlsx", "csv", "json"}
	}
}

// LoadFieldFile loads and structurally checks a field configuration
// document. Strategy and transform syntax is compiled and validated by
// scraper.CompileFields; both happen before any URL is fetched.
func LoadFieldFile(filename string) (*FieldFile, error) {
	if filename == "" {
		return nil, NewConfigurationError("fields", fmt.Errorf("field configuration file is required"))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, NewConfigurationError("fields", fmt.Errorf("failed to read %s: %w", filename, err))
	}

	expanded := os.ExpandEnv(string(data))
	var file FieldFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, NewConfigurationError("fields", fmt.Errorf("failed to parse %s: %w", filename, err))
	}

	if len(file.Fields) == 0 {
		return nil, NewConfigurationError("fields", fmt.Errorf("at least one field must be configured"))
	}
	return &file, nil
}

// ReadURLFile reads an ordered batch input: one URL per line, blank lines
// ignored. No deduplication is performed; duplicate URLs produce duplicate
// records.
func ReadURLFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return urls, nil
}

// SampleFieldFile returns a starter field configuration demonstrating every
// strategy and transform kind.
func SampleFieldFile() *FieldFile {
	return &FieldFile{
		Fields: []FieldEntry{
			{
				Name: "Title",
				Strategies: []StrategySpec{
					{Type: StrategyCSS, Selector: "h1"},
					{Type: StrategyXPath, Expression: "//head/title"},
				},
			},
			{
				Name: "Email",
				Strategies: []StrategySpec{
					{Type: StrategyAttribute, Selector: `[href^="mailto:"]`, Attribute: "href"},
					{Type: StrategyTextPattern, Pattern: `Email[:\s]*([^\n]+)`},
				},
				Transform: []pipeline.StepSpec{
					{Type: "regex", Pattern: `mailto:`, Replacement: ""},
				},
			},
			{
				Name: "Price",
				Strategies: []StrategySpec{
					{Type: StrategyCSS, Selector: ".price"},
				},
				Transform: []pipeline.StepSpec{
					{Type: "strip_chars"},
					{Type: "convert_to_number"},
				},
			},
		},
	}
}
