package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"pmex/internal/config"
	"pmex/internal/fetch"
	"pmex/internal/query"
	"pmex/internal/snapshot"
	"pmex/internal/util"
)

func main() {
	forceUpdate := flag.String("force-update", "false", "fetch fresh snapshot data before merging (true/false)")
	flag.Parse()

	if err := run(*forceUpdate); err != nil {
		fmt.Fprintf(os.Stderr, "pmex-refresh: %v\n", err)
		os.Exit(1)
	}
}

func run(forceUpdate string) error {
	cfgPath := "config/pmex.yaml"
	if p := os.Getenv("PMEX_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR environment variable not set or empty")
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	update, err := strconv.ParseBool(forceUpdate)
	if err != nil {
		return fmt.Errorf("invalid --force-update value %q: %w", forceUpdate, err)
	}

	vegaDir := filepath.Join(cfg.Storage.DataDir, "vega")
	logger.Info("starting pmex-refresh", "dataDir", cfg.Storage.DataDir, "forceUpdate", update)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if update {
		if cfg.Query.BaseURL == "" {
			return fmt.Errorf("query base URL not configured (set PMEX_QUERY_URL or query.base_url)")
		}

		client := query.NewClient(
			cfg.Query.BaseURL,
			cfg.Query.APIKey,
			cfg.Query.QueryID,
			time.Duration(cfg.Query.TimeoutSeconds)*time.Second,
		)
		borrowersDir := filepath.Join(vegaDir, snapshot.BorrowersDirName)
		fetcher := fetch.NewFetcher(borrowersDir, client, cfg.Fetch.MaxIterations, time.Now)

		if err := fetcher.Run(ctx); err != nil {
			return fmt.Errorf("fetching snapshots: %w", err)
		}
	}

	merger := snapshot.NewMerger(vegaDir, cfg.Export.Parquet, time.Now)
	outPath, err := merger.Merge()
	if err != nil {
		return fmt.Errorf("merging snapshots: %w", err)
	}

	fmt.Println(outPath)
	return nil
}
