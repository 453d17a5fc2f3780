// internal/scraper/engine.go
package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Engine runs the field-resolution pipeline over a batch of URLs. URLs are
// processed strictly one at a time: the rendering collaborator owns a
// single exclusive browser session, so iteration i+1 starts only after
// iteration i completes or fails.
type Engine struct {
	fields    []FieldSpec
	renderer  Renderer
	fetcher   Fetcher
	api       APIClient
	threshold float64
	saveHTML  bool
	outputDir string
	limiter   *rate.Limiter
	log       zerolog.Logger

	htmlDumps int
}

// EngineOptions configures a scraping engine. Renderer, Fetcher and API may
// each be nil; at least one fetch method must be set.
type EngineOptions struct {
	Renderer         Renderer
	Fetcher          Fetcher
	API              APIClient
	SuccessThreshold float64
	PolitenessDelay  time.Duration
	SaveHTML         bool
	OutputDir        string
	Logger           zerolog.Logger
}

// NewEngine creates an engine over compiled field specs.
func NewEngine(fields []FieldSpec, opts EngineOptions) (*Engine, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one field must be configured")
	}
	if opts.Renderer == nil && opts.Fetcher == nil && opts.API == nil {
		return nil, fmt.Errorf("at least one fetch method must be configured")
	}

	var limiter *rate.Limiter
	if opts.PolitenessDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.PolitenessDelay), 1)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	return &Engine{
		fields:    fields,
		renderer:  opts.Renderer,
		fetcher:   opts.Fetcher,
		api:       opts.API,
		threshold: opts.SuccessThreshold,
		saveHTML:  opts.SaveHTML,
		outputDir: outputDir,
		limiter:   limiter,
		log:       opts.Logger,
	}, nil
}

// Run processes the URLs in input order. A failing URL is recorded as a
// failure entry and never aborts the batch; successful records keep input
// order. Cancellation is honored between URL iterations only.
func (e *Engine) Run(ctx context.Context, urls []string) *RunResult {
	result := &RunResult{}

	for i, url := range urls {
		if ctx.Err() != nil {
			e.log.Warn().Err(ctx.Err()).Int("remaining", len(urls)-i).Msg("run cancelled between URLs")
			break
		}
		if i > 0 && e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				break
			}
		}

		e.log.Info().Str("url", url).Int("index", i+1).Int("total", len(urls)).Msg("scraping URL")

		record, err := e.scrapeOne(ctx, url)
		if err != nil {
			e.log.Warn().Str("url", url).Err(err).Msg("URL failed, continuing batch")
			result.Failures = append(result.Failures, Failure{URL: url, Reason: err.Error()})
			continue
		}
		result.Records = append(result.Records, record)
	}

	return result
}

// scrapeOne fetches a single URL through the method chain: renderer first,
// then the plain-HTTP fallback, then API endpoints. A method's result is
// accepted once the resolved-field ratio reaches the success threshold;
// otherwise the best result so far is kept and the next method tried.
func (e *Engine) scrapeOne(ctx context.Context, pageURL string) (*Record, error) {
	var best *Record
	bestFound := -1
	var lastErr error

	consider := func(record *Record) bool {
		found := e.countFound(record)
		if found > bestFound {
			best, bestFound = record, found
		}
		return float64(found) >= e.threshold*float64(len(e.fields))
	}

	if e.renderer != nil {
		record, err := e.assembleFromHTML(ctx, pageURL, e.renderer.Render)
		if err != nil {
			lastErr = err
			e.log.Debug().Str("url", pageURL).Err(err).Msg("render method failed")
		} else if consider(record) {
			e.log.Debug().Str("url", pageURL).Msg("render method successful")
			return record, nil
		}
	}

	if e.fetcher != nil {
		record, err := e.assembleFromHTML(ctx, pageURL, e.fetcher.Fetch)
		if err != nil {
			lastErr = err
			e.log.Debug().Str("url", pageURL).Err(err).Msg("HTTP method failed")
		} else if consider(record) {
			e.log.Debug().Str("url", pageURL).Msg("HTTP method successful")
			return record, nil
		}
	}

	if e.api != nil {
		data, err := e.api.FetchData(ctx, pageURL)
		if err != nil {
			lastErr = err
			e.log.Debug().Str("url", pageURL).Err(err).Msg("API method failed")
		} else if record := e.assembleFromAPI(pageURL, data); consider(record) {
			e.log.Debug().Str("url", pageURL).Msg("API method successful")
			return record, nil
		}
	}

	if best != nil {
		return best, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no fetch method produced content")
	}
	return nil, &RenderError{URL: pageURL, Err: lastErr}
}

type fetchFunc func(ctx context.Context, url string) (string, error)

func (e *Engine) assembleFromHTML(ctx context.Context, pageURL string, fetch fetchFunc) (*Record, error) {
	rawHTML, err := fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if e.saveHTML {
		e.dumpHTML(rawHTML)
	}

	page, err := NewPage(pageURL, rawHTML)
	if err != nil {
		return nil, err
	}
	return e.Assemble(pageURL, page), nil
}

// Assemble resolves every configured field against one page and packs the
// results with metadata into an immutable Record. Fields resolve
// independently: one field's transform failure never blocks another.
func (e *Engine) Assemble(pageURL string, page *Page) *Record {
	record := &Record{
		Values:      make(map[string]FieldValue, len(e.fields)),
		SourceURL:   pageURL,
		RetrievedAt: time.Now().UTC(),
		PageTitle:   page.Title(),
	}

	for _, spec := range e.fields {
		value, err := ResolveField(page, spec)
		if err != nil {
			e.log.Debug().Str("url", pageURL).Str("field", spec.Name).Err(err).Msg("field recorded absent after transform failure")
		}
		record.Values[spec.Name] = value
	}

	return record
}

// assembleFromAPI maps a JSON object onto the configured fields. Keys not
// matching a field are ignored; fields missing from the object are absent.
func (e *Engine) assembleFromAPI(pageURL string, data map[string]interface{}) *Record {
	record := &Record{
		Values:      make(map[string]FieldValue, len(e.fields)),
		SourceURL:   pageURL,
		RetrievedAt: time.Now().UTC(),
	}

	for _, spec := range e.fields {
		raw, ok := data[spec.Name]
		if !ok || raw == nil {
			record.Values[spec.Name] = AbsentValue()
			continue
		}
		switch v := raw.(type) {
		case float64:
			record.Values[spec.Name] = NumberValue(v)
		case string:
			if v == "" {
				record.Values[spec.Name] = AbsentValue()
			} else {
				record.Values[spec.Name] = TextValue(v)
			}
		default:
			record.Values[spec.Name] = TextValue(fmt.Sprintf("%v", v))
		}
	}

	return record
}

func (e *Engine) countFound(record *Record) int {
	found := 0
	for _, v := range record.Values {
		if v.Kind != ValueAbsent {
			found++
		}
	}
	return found
}

func (e *Engine) dumpHTML(rawHTML string) {
	e.htmlDumps++
	name := fmt.Sprintf("debug_html_%d_%d.html", time.Now().Unix(), e.htmlDumps)
	path := filepath.Join(e.outputDir, name)

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		e.log.Warn().Err(err).Msg("failed to create output directory for HTML dump")
		return
	}
	if err := os.WriteFile(path, []byte(rawHTML), 0644); err != nil {
		e.log.Warn().Err(err).Str("path", path).Msg("failed to save HTML dump")
	}
}

// Close releases the rendering collaborator's browser session.
func (e *Engine) Close() error {
	if e.renderer != nil {
		return e.renderer.Close()
	}
	return nil
}
