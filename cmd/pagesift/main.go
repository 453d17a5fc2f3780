// cmd/pagesift/main.go

// Command pagesift renders web pages, resolves configured fields against
// them and exports the assembled records to tabular output files.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pagesift/pagesift/internal/browser"
	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/output"
	"github.com/pagesift/pagesift/internal/scraper"
)

// Populated via -ldflags at release build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := &cli.App{
		Name:    "pagesift",
		Usage:   "declarative multi-strategy web page field extraction",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "fields",
				Aliases: []string{"f"},
				Usage:   "field configuration file (YAML)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "run configuration file (YAML)",
			},
			&cli.StringSliceFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "URL to scrape (repeatable)",
			},
			&cli.StringFlag{
				Name:    "url-file",
				Aliases: []string{"U"},
				Usage:   "file with one URL per line",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output directory (overrides run configuration)",
			},
			&cli.StringFlag{
				Name:  "name",
				Value: "results",
				Usage: "base name for output files",
			},
			&cli.StringSliceFlag{
				Name:  "format",
				Usage: "output format: xlsx, csv, json or sqlite (repeatable, overrides run configuration)",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "run the browser headless (overrides run configuration)",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "skip browser rendering and fetch pages over plain HTTP",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "write a sample field configuration file",
				ArgsUsage: "[file]",
				Action:    runInit,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func run(c *cli.Context) error {
	log := newLogger(c.Bool("verbose"))

	cfg, err := config.LoadRunConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if c.IsSet("out") {
		cfg.OutputDir = c.String("out")
	}
	if c.IsSet("format") {
		cfg.Formats = c.StringSlice("format")
	}
	if c.IsSet("headless") {
		cfg.Headless = c.Bool("headless")
	}

	fieldFile, err := config.LoadFieldFile(c.String("fields"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	fields, err := scraper.CompileFields(fieldFile.Fields)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	formats, err := output.ParseFormats(cfg.Formats)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	urls, err := collectURLs(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	opts := scraper.EngineOptions{
		SuccessThreshold: cfg.SuccessThreshold,
		PolitenessDelay:  time.Duration(cfg.PolitenessDelaySeconds * float64(time.Second)),
		SaveHTML:         cfg.SaveHTML,
		OutputDir:        cfg.OutputDir,
		Logger:           log,
	}

	if !c.Bool("no-browser") {
		bcfg := browser.DefaultConfig()
		bcfg.Headless = cfg.Headless
		bcfg.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
		bcfg.WaitSelectors = cfg.WaitSelectors
		bcfg.WaitTimeout = time.Duration(cfg.WaitSeconds) * time.Second
		bcfg.SleepAfterLoad = time.Duration(cfg.SleepAfterLoad) * time.Second
		if cfg.SaveScreenshots {
			bcfg.ScreenshotDir = filepath.Join(cfg.OutputDir, "screenshots")
		}
		chrome, err := browser.NewChrome(bcfg, log)
		if err != nil {
			// The HTTP fallback can still carry the run on its own.
			log.Warn().Err(err).Msg("browser unavailable, falling back to plain HTTP")
		} else {
			opts.Renderer = chrome
		}
	}

	opts.Fetcher = scraper.NewHTTPClient(scraper.ClientConfig{
		Timeout:    time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		UserAgents: cfg.UserAgents,
	})
	if api := scraper.NewAPIFetcher(cfg.APIEndpoints, time.Duration(cfg.RequestTimeoutSeconds)*time.Second); api != nil {
		opts.API = api
	}

	engine, err := scraper.NewEngine(fields, opts)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Int("urls", len(urls)).Int("fields", len(fields)).Msg("starting run")
	result := engine.Run(ctx, urls)

	for _, f := range result.Failures {
		log.Warn().Str("url", f.URL).Str("reason", f.Reason).Msg("URL failed")
	}
	if len(result.Records) == 0 {
		return cli.Exit("no records were produced", 1)
	}

	manager := output.NewManager(cfg.OutputDir, c.String("name"), formats, log)
	paths, exportErrs := manager.Write(result.Records, scraper.Columns(fields), time.Now())
	for _, e := range exportErrs {
		log.Error().Err(e).Msg("export failed")
	}
	if len(paths) == 0 {
		return cli.Exit("all export formats failed", 1)
	}

	log.Info().
		Int("records", len(result.Records)).
		Int("failures", len(result.Failures)).
		Strs("files", paths).
		Msg("run complete")
	return nil
}

// collectURLs merges repeated --url flags with the --url-file contents,
// keeping the flag URLs first. Order is preserved and duplicates are kept.
func collectURLs(c *cli.Context) ([]string, error) {
	urls := append([]string(nil), c.StringSlice("url")...)

	if file := c.String("url-file"); file != "" {
		fromFile, err := config.ReadURLFile(file)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs given: use --url or --url-file")
	}
	return urls, nil
}

func runInit(c *cli.Context) error {
	data, err := yaml.Marshal(config.SampleFieldFile())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	target := c.Args().First()
	if target == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Printf("Wrote sample field configuration to %s\n", target)
	return nil
}
