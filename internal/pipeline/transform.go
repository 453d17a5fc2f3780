// internal/pipeline/transform.go

// Package pipeline implements the transform chain applied to raw extracted
// values. Steps run strictly in declared order; each step consumes the
// previous step's output. A convert_to_number step, when present, must be
// the last step because it produces the chain's terminal numeric value.
package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StepSpec is the raw, YAML-level description of one transform step.
type StepSpec struct {
	Type        string `yaml:"type" json:"type"`
	Pattern     string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Replacement string `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Chars       string `yaml:"chars,omitempty" json:"chars,omitempty"`
}

// Step is one compiled transform operation. The set of implementations is
// closed: RegexSubstitute, StripChars and ConvertToNumber.
type Step interface {
	apply(input string) (string, error)
	kind() string
}

// Chain is an ordered list of compiled transform steps.
type Chain []Step

// RegexSubstitute replaces every match of a pattern with a replacement.
type RegexSubstitute struct {
	re          *regexp.Regexp
	replacement string
}

func (s RegexSubstitute) kind() string { return "regex" }

func (s RegexSubstitute) apply(input string) (string, error) {
	return s.re.ReplaceAllString(input, s.replacement), nil
}

// StripChars removes leading and trailing characters found in its cutset.
// An empty cutset strips whitespace.
type StripChars struct {
	cutset string
}

func (s StripChars) kind() string { return "strip_chars" }

func (s StripChars) apply(input string) (string, error) {
	if s.cutset == "" {
		return strings.TrimSpace(input), nil
	}
	return strings.Trim(input, s.cutset), nil
}

// ConvertToNumber parses a numeric value out of the input, tolerating
// thousands separators and surrounding non-numeric characters.
type ConvertToNumber struct{}

func (s ConvertToNumber) kind() string { return "convert_to_number" }

var numericPattern = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)

func (s ConvertToNumber) apply(input string) (string, error) {
	cleaned := strings.ReplaceAll(input, ",", "")
	match := numericPattern.FindString(cleaned)
	if match == "" {
		return "", &TransformError{Step: s.kind(), Reason: ReasonNotNumeric, Input: input}
	}
	return match, nil
}

// Reasons for transform failures.
const (
	ReasonNotNumeric = "not_numeric"
)

// TransformError is a recoverable per-field failure. It never aborts a
// record or a run; the affected field is recorded as absent.
type TransformError struct {
	Step   string
	Reason string
	Input  string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s failed (%s) on input %q", e.Step, e.Reason, e.Input)
}

// ParseSteps compiles raw step specs into a Chain. Invalid regex syntax,
// unknown step types, and a convert_to_number step anywhere but last are
// configuration errors.
func ParseSteps(specs []StepSpec) (Chain, error) {
	chain := make(Chain, 0, len(specs))
	for i, spec := range specs {
		switch spec.Type {
		case "regex":
			if spec.Pattern == "" {
				return nil, fmt.Errorf("transform step %d: regex requires a pattern", i)
			}
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("transform step %d: invalid regex pattern: %w", i, err)
			}
			chain = append(chain, RegexSubstitute{re: re, replacement: spec.Replacement})
		case "strip_chars":
			chain = append(chain, StripChars{cutset: spec.Chars})
		case "convert_to_number":
			if i != len(specs)-1 {
				return nil, fmt.Errorf("transform step %d: convert_to_number must be the last step", i)
			}
			chain = append(chain, ConvertToNumber{})
		default:
			return nil, fmt.Errorf("transform step %d: unknown type %q", i, spec.Type)
		}
	}
	return chain, nil
}

// Apply runs the chain over a raw value. The result is a string, or a
// float64 when the chain ends in convert_to_number. A *TransformError is
// returned when a step rejects its input.
func (c Chain) Apply(raw string) (interface{}, error) {
	value := raw
	for _, step := range c {
		out, err := step.apply(value)
		if err != nil {
			return nil, err
		}
		value = out
	}
	if len(c) > 0 {
		if _, ok := c[len(c)-1].(ConvertToNumber); ok {
			num, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, &TransformError{Step: "convert_to_number", Reason: ReasonNotNumeric, Input: value}
			}
			return num, nil
		}
	}
	return value, nil
}
