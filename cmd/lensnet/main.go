package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/lensnews/lensnet/pkg/config"
	"github.com/lensnews/lensnet/pkg/content"
	"github.com/lensnews/lensnet/pkg/fetcher"
	"github.com/lensnews/lensnet/pkg/pipeline"
	"github.com/lensnews/lensnet/pkg/repository"
	"github.com/lensnews/lensnet/pkg/scoring"
	"github.com/lensnews/lensnet/pkg/search"
	"github.com/lensnews/lensnet/pkg/stance"
	"github.com/lensnews/lensnet/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" default:"config.yml" description:"config file"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address (overrides config)"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Printf("[ERROR] can't load config: %v", err)
		os.Exit(1)
	}

	setupLog(opts.Debug, secrets(cfg)...)
	log.Printf("[INFO] starting lensnet version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts.Debug); err != nil {
		log.Printf("[ERROR] server failed: %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

// loadConfig reads the config file, falling back to built-in defaults when
// the default config file doesn't exist
func loadConfig(opts Opts) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		log.Printf("[WARN] config file %s not found, using defaults", opts.Config)
		cfg = config.Default()
	default:
		return nil, err
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	return cfg, nil
}

// run wires the pipeline and starts the HTTP server
func run(ctx context.Context, cfg *config.Config, debug bool) error {
	srcCfg := cfg.GetSourcesConfig()

	fixture, err := fetcher.NewFixture(srcCfg.FixtureFile)
	if err != nil {
		return fmt.Errorf("create fixture fetcher: %w", err)
	}

	// fallback order: commercial APIs first, static RSS feeds next,
	// local fixtures as the terminal tier
	chain := fetcher.NewChain([]fetcher.Tier{
		{fetcher.NewNewsAPI(srcCfg.NewsAPI.Endpoint, srcCfg.NewsAPI.APIKey, srcCfg.UserAgent, srcCfg.Timeout)},
		{fetcher.NewGNews(srcCfg.GNews.Endpoint, srcCfg.GNews.APIKey, srcCfg.UserAgent, srcCfg.Timeout)},
		{fetcher.NewGuardian(srcCfg.Guardian.Endpoint, srcCfg.Guardian.APIKey, srcCfg.UserAgent, srcCfg.Timeout)},
		{fetcher.NewRSS(srcCfg.RSSFeeds, srcCfg.UserAgent, srcCfg.Timeout)},
		{fixture},
	}, srcCfg.Timeout, srcCfg.RetryCount)

	stanceCfg := cfg.GetStanceConfig()
	var override stance.Override
	if stanceCfg.LLM.Enabled {
		override = stance.NewLLM(stanceCfg.LLM)
		log.Printf("[INFO] llm stance override enabled, model %s", stanceCfg.LLM.Model)
	}

	var cache stance.Cache
	cacheCfg := cfg.GetCacheConfig()
	if cacheCfg.Enabled {
		stanceCache, err := repository.NewStanceCache(ctx, repository.Config{
			DSN:             cacheCfg.DSN,
			MaxOpenConns:    cacheCfg.MaxOpenConns,
			MaxIdleConns:    cacheCfg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cacheCfg.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("create stance cache: %w", err)
		}
		defer func() {
			if err := stanceCache.Close(); err != nil {
				log.Printf("[WARN] failed to close stance cache: %v", err)
			}
		}()
		cache = stanceCache
		log.Printf("[INFO] stance cache enabled, dsn %s", cacheCfg.DSN)
	}

	var enricher pipeline.Enricher
	extCfg := cfg.GetExtractionConfig()
	if extCfg.Enabled {
		extractor := content.NewHTTPExtractor(extCfg.Timeout, srcCfg.UserAgent)
		enricher = content.NewEnricher(extractor, extCfg)
		log.Printf("[INFO] full-text extraction enabled")
	}

	scoringCfg := cfg.GetScoringConfig()
	pipe := pipeline.New(pipeline.Pipeline{
		Generator:  search.NewGenerator(),
		Fetcher:    chain,
		Enricher:   enricher,
		Classifier: stance.NewClassifier(stanceCfg, override, cache),
		Relevance:  scoring.NewRelevance(scoringCfg),
		Ranker:     scoring.NewRanker(scoringCfg),
	})

	srv := server.New(cfg, pipe, chain, revision, debug)
	return srv.Run(ctx)
}

// secrets collects sensitive config values to mask in logs
func secrets(cfg *config.Config) []string {
	var secs []string
	srcCfg := cfg.GetSourcesConfig()
	for _, key := range []string{srcCfg.NewsAPI.APIKey, srcCfg.GNews.APIKey, srcCfg.Guardian.APIKey, cfg.GetStanceConfig().LLM.APIKey} {
		if key != "" {
			secs = append(secs, key)
		}
	}
	return secs
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
