// Package main wires together the contact harvester binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/aiscore"
	"github.com/sitescout/harvester/internal/api"
	"github.com/sitescout/harvester/internal/config"
	"github.com/sitescout/harvester/internal/extract"
	"github.com/sitescout/harvester/internal/fetch"
	"github.com/sitescout/harvester/internal/harvest"
	"github.com/sitescout/harvester/internal/logging"
	"github.com/sitescout/harvester/internal/pipeline"
	"github.com/sitescout/harvester/internal/sink"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	targetURL := flag.String("url", "", "Target site URL (overrides config)")
	maxPages := flag.Int("max-pages", 0, "Max pages to scrape (overrides config)")
	deepCrawl := flag.Bool("deep-crawl", false, "Enable the budgeted deep crawl strategy")
	flag.Parse()

	// Best effort; API keys usually arrive via the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *targetURL != "" {
		cfg.Target.URL = *targetURL
	}
	if *maxPages > 0 {
		cfg.Scrape.MaxPages = *maxPages
	}
	if *deepCrawl {
		cfg.Discovery.DeepCrawl.Enabled = true
	}
	if cfg.Target.URL == "" {
		fmt.Fprintln(os.Stderr, "target url is required (--url or target.url)")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := fetch.NewColly(fetch.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.HTTPTimeout(),
		Concurrency: cfg.Scrape.Workers,
		Delay:       cfg.FetchDelay(),
	}, logger.Named("fetch"))
	if err != nil {
		logger.Fatal("fetcher init failed", zap.Error(err))
	}

	var aiScorer harvest.URLScorer
	if cfg.AIActive() {
		aiScorer = aiscore.New(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, logger.Named("aiscore"))
	} else {
		logger.Info("ai scoring disabled, using keyword scores only")
	}

	pipe, err := pipeline.New(pipeline.Config{
		TargetURL:         cfg.Target.URL,
		MaxPages:          cfg.Scrape.MaxPages,
		Workers:           cfg.Scrape.Workers,
		MaxRetries:        cfg.HTTP.MaxRetries,
		SitemapMinPages:   cfg.Discovery.SitemapMinPages,
		DeepCrawlEnabled:  cfg.Discovery.DeepCrawl.Enabled,
		DeepCrawlBudget:   cfg.Discovery.DeepCrawl.Budget,
		DeepCrawlWorkers:  cfg.Discovery.DeepCrawl.Workers,
		DeepCrawlMinPages: cfg.Discovery.DeepCrawl.MinPages,
		MaxURLs:           cfg.Discovery.MaxURLs,
		DiscoveryRate:     cfg.Discovery.RatePerSecond,
	}, fetcher, aiScorer, extract.New(logger.Named("extract")), logger)
	if err != nil {
		logger.Fatal("pipeline init failed", zap.Error(err))
	}

	apiServer := api.NewServer(pipe, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	result, err := pipe.Run(ctx)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
	} else {
		writer := sink.NewFileWriter(cfg.Output.Dir, logger.Named("sink"))
		if err := writer.Write(result.Contacts, result.Stats); err != nil {
			logger.Error("write results failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
