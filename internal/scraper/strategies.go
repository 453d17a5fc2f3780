// internal/scraper/strategies.go
package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/pipeline"
)

// Strategy is one compiled way to locate candidate raw values on a page.
// The set of implementations is closed: CSSStrategy, XPathStrategy,
// AttributeStrategy and TextPatternStrategy. Evaluation returns candidates
// in document order; no match is not an error, it just yields nothing.
type Strategy interface {
	evaluate(p *Page) []string

	// Kind returns the configuration tag of the strategy.
	Kind() string
}

// CSSStrategy returns the text content of every node matching a CSS
// selector.
type CSSStrategy struct {
	Selector string
	matcher  cascadia.Selector
}

// NewCSSStrategy compiles a CSS selector. Malformed selector syntax is a
// load-time error.
func NewCSSStrategy(selector string) (*CSSStrategy, error) {
	if selector == "" {
		return nil, fmt.Errorf("css strategy requires a selector")
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid CSS selector %q: %w", selector, err)
	}
	return &CSSStrategy{Selector: selector, matcher: matcher}, nil
}

func (s *CSSStrategy) Kind() string { return config.StrategyCSS }

func (s *CSSStrategy) evaluate(p *Page) []string {
	var out []string
	p.doc.FindMatcher(s.matcher).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, strings.TrimSpace(sel.Text()))
	})
	return out
}

// XPathStrategy returns the inner text of every node matching an XPath
// expression.
type XPathStrategy struct {
	Expression string
	expr       *xpath.Expr
}

// NewXPathStrategy compiles an XPath expression.
func NewXPathStrategy(expression string) (*XPathStrategy, error) {
	if expression == "" {
		return nil, fmt.Errorf("xpath strategy requires an expression")
	}
	expr, err := xpath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath expression %q: %w", expression, err)
	}
	return &XPathStrategy{Expression: expression, expr: expr}, nil
}

func (s *XPathStrategy) Kind() string { return config.StrategyXPath }

func (s *XPathStrategy) evaluate(p *Page) []string {
	var out []string
	for _, node := range htmlquery.QuerySelectorAll(p.root, s.expr) {
		out = append(out, strings.TrimSpace(htmlquery.InnerText(node)))
	}
	return out
}

// AttributeStrategy returns the value of a named attribute on every node
// matching a CSS selector. Matched nodes lacking the attribute are skipped,
// not an error.
type AttributeStrategy struct {
	Selector  string
	Attribute string
	matcher   cascadia.Selector
}

// NewAttributeStrategy compiles the selector half of an attribute strategy.
func NewAttributeStrategy(selector, attribute string) (*AttributeStrategy, error) {
	if selector == "" {
		return nil, fmt.Errorf("attribute strategy requires a selector")
	}
	if attribute == "" {
		return nil, fmt.Errorf("attribute strategy requires an attribute name")
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid CSS selector %q: %w", selector, err)
	}
	return &AttributeStrategy{Selector: selector, Attribute: attribute, matcher: matcher}, nil
}

func (s *AttributeStrategy) Kind() string { return config.StrategyAttribute }

func (s *AttributeStrategy) evaluate(p *Page) []string {
	var out []string
	p.doc.FindMatcher(s.matcher).Each(func(_ int, sel *goquery.Selection) {
		if value, ok := sel.Attr(s.Attribute); ok {
			out = append(out, strings.TrimSpace(value))
		}
	})
	return out
}

// TextPatternStrategy matches a regular expression against the page's full
// text and returns the first match's sole capture group. Matching is
// case-insensitive and dot matches newline.
type TextPatternStrategy struct {
	Pattern string
	re      *regexp.Regexp
}

// NewTextPatternStrategy compiles a text pattern. The pattern must declare
// exactly one capturing group; zero or more than one is a configuration
// error.
func NewTextPatternStrategy(pattern string) (*TextPatternStrategy, error) {
	if pattern == "" {
		return nil, fmt.Errorf("text_pattern strategy requires a pattern")
	}
	re, err := regexp.Compile("(?is)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid text pattern %q: %w", pattern, err)
	}
	if n := re.NumSubexp(); n != 1 {
		return nil, fmt.Errorf("text pattern %q must declare exactly one capturing group, has %d", pattern, n)
	}
	return &TextPatternStrategy{Pattern: pattern, re: re}, nil
}

func (s *TextPatternStrategy) Kind() string { return config.StrategyTextPattern }

func (s *TextPatternStrategy) evaluate(p *Page) []string {
	match := s.re.FindStringSubmatch(p.Text())
	if match == nil {
		return nil
	}
	return []string{strings.TrimSpace(match[1])}
}

// CompileFields turns raw field entries into compiled FieldSpecs. Every
// malformed entry is a *config.ConfigurationError raised here, at load
// time, before any URL is fetched.
func CompileFields(entries []config.FieldEntry) ([]FieldSpec, error) {
	if len(entries) == 0 {
		return nil, config.NewConfigurationError("fields", fmt.Errorf("at least one field must be configured"))
	}

	seen := make(map[string]bool, len(entries))
	specs := make([]FieldSpec, 0, len(entries))

	for i, entry := range entries {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, config.NewConfigurationError("fields", fmt.Errorf("field %d has no name", i))
		}
		if seen[entry.Name] {
			return nil, config.NewConfigurationError("fields", fmt.Errorf("duplicate field name %q", entry.Name))
		}
		seen[entry.Name] = true

		if len(entry.Strategies) == 0 {
			return nil, config.NewConfigurationError(entry.Name, fmt.Errorf("at least one extraction strategy is required"))
		}

		strategies := make([]Strategy, 0, len(entry.Strategies))
		for _, raw := range entry.Strategies {
			strategy, err := compileStrategy(raw)
			if err != nil {
				return nil, config.NewConfigurationError(entry.Name, err)
			}
			strategies = append(strategies, strategy)
		}

		chain, err := pipeline.ParseSteps(entry.Transform)
		if err != nil {
			return nil, config.NewConfigurationError(entry.Name, err)
		}

		specs = append(specs, FieldSpec{
			Name:       entry.Name,
			Strategies: strategies,
			Transform:  chain,
		})
	}

	return specs, nil
}

func compileStrategy(raw config.StrategySpec) (Strategy, error) {
	switch raw.Type {
	case config.StrategyCSS:
		return NewCSSStrategy(raw.Selector)
	case config.StrategyXPath:
		return NewXPathStrategy(raw.Expression)
	case config.StrategyAttribute:
		return NewAttributeStrategy(raw.Selector, raw.Attribute)
	case config.StrategyTextPattern:
		return NewTextPatternStrategy(raw.Pattern)
	default:
		return nil, fmt.Errorf("unknown strategy type %q", raw.Type)
	}
}
