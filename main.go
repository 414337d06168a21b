package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"midasfetch/internal/cache"
	"midasfetch/internal/config"
	"midasfetch/internal/coordinator"
	"midasfetch/internal/indexfile"
	"midasfetch/internal/investing"
	"midasfetch/internal/jitta"
	"midasfetch/internal/pending"
	"midasfetch/internal/registry"
	"midasfetch/internal/yahoo"
)

func main() {
	sources := pflag.StringSlice("sources", config.Sources, "sources to fetch, in batch order")
	workers := pflag.Int("workers", 0, "worker pool size (overrides config)")
	registryPath := pflag.String("registry", "", "path to the symbol registry workbook (overrides config)")
	dataDir := pflag.String("data-dir", "", "output directory root (overrides config)")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *registryPath != "" {
		cfg.RegistryPath = *registryPath
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if err := validateSources(*sources); err != nil {
		log.Fatalf("Invalid --sources: %v", err)
	}
	if err := cfg.Validate(*sources); err != nil {
		log.Fatalf("Failed to validate configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// The registry is the only fatal dependency: no universe, no work.
	reg, err := registry.Load(cfg.RegistryPath, cfg.RegistrySheet)
	if err != nil {
		log.Fatalf("Failed to load symbol registry: %v", err)
	}
	slog.Info("registry loaded", "path", cfg.RegistryPath, "symbols", reg.Len())

	// Optional one-shot reformat of the market-index export.
	if cfg.IndexFile != "" {
		if reformatted, err := indexfile.Reformat(cfg.IndexFile); err != nil {
			slog.Warn("index file reformat failed", "path", cfg.IndexFile, "error", err)
		} else if reformatted {
			slog.Info("index file reformatted", "path", cfg.IndexFile)
		}
	}

	start, err := cfg.Start()
	if err != nil {
		log.Fatalf("Failed to parse date range: %v", err)
	}
	end := time.Now().AddDate(0, 0, -1)

	// The three batches run sequentially, one source at a time.
	for _, source := range *sources {
		pendingSymbols, err := pending.Resolve(reg, cfg.OutputDir(source))
		if err != nil {
			log.Fatalf("Failed to resolve pending work for %s: %v", source, err)
		}
		if len(pendingSymbols) == 0 {
			fmt.Printf("%s: nothing pending\n", source)
			continue
		}

		factory, cleanup, err := workerFactory(cfg, reg, source, start, end)
		if err != nil {
			log.Fatalf("Failed to set up %s source: %v", source, err)
		}

		coord, err := coordinator.New(source, cfg.Workers, factory)
		if err != nil {
			cleanup()
			log.Fatalf("Failed to create coordinator: %v", err)
		}
		coord.Run(ctx, pendingSymbols)
		cleanup()

		if ctx.Err() != nil {
			break
		}
	}

	fmt.Println("Finished")
}

// workerFactory wires one source's adapter stack. The returned cleanup
// releases batch-scoped resources (the quote response cache).
func workerFactory(cfg *config.Config, reg *registry.Registry, source string, start, end time.Time) (coordinator.Factory, func(), error) {
	noop := func() {}

	switch source {
	case config.SourceInvesting:
		client := investing.NewClient(cfg.InvestingBaseURL, cfg.InvestingCountry)
		return func() (coordinator.Worker, error) {
			return &investing.Worker{
				Client:    client,
				Registry:  reg,
				OutputDir: cfg.OutputDir(source),
				From:      start,
				To:        end,
			}, nil
		}, noop, nil

	case config.SourceYahoo:
		responseCache, err := cache.Open(cfg.CacheDir, cfg.CacheTTL())
		if err != nil {
			return nil, nil, err
		}
		client := yahoo.NewClient(cfg.YahooBaseURL, cfg.YahooSymbolSuffix, responseCache)
		return func() (coordinator.Worker, error) {
			return &yahoo.Worker{
				Client:    client,
				Registry:  reg,
				OutputDir: cfg.OutputDir(source),
				From:      start,
				To:        end,
			}, nil
		}, func() { responseCache.Close() }, nil

	case config.SourceJitta:
		sessionCfg := jitta.Config{
			BaseURL:  cfg.JittaBaseURL,
			LoginURL: cfg.JittaLoginURL,
			Email:    cfg.JittaEmail,
			Password: cfg.JittaPassword,
			Market:   cfg.JittaMarket,
			Headless: cfg.JittaHeadless,
		}
		return func() (coordinator.Worker, error) {
			return &jitta.Worker{
				Registry:      reg,
				OutputDir:     cfg.OutputDir(source),
				SessionConfig: sessionCfg,
			}, nil
		}, noop, nil
	}

	return nil, nil, fmt.Errorf("unknown source %q", source)
}

func validateSources(sources []string) error {
	known := make(map[string]bool, len(config.Sources))
	for _, s := range config.Sources {
		known[s] = true
	}
	for _, s := range sources {
		if !known[s] {
			return fmt.Errorf("unknown source %q (known: %v)", s, config.Sources)
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	return nil
}
