package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"pump-short-lab/internal/config"
	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/reporting"
	pgstore "pump-short-lab/internal/storage/postgres"
)

func main() {
	runID := flag.String("run-id", "", "Run ID to report on (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	configPath := flag.String("config", "", "Config file of the run, for initial capital (required)")

	outputPath := flag.String("output", "", "Write Markdown report to file (default: stdout)")
	tradesCSVPath := flag.String("trades-csv", "", "Write trade log CSV to file")
	equityCSVPath := flag.String("equity-csv", "", "Write equity curve CSV to file")
	flag.Parse()

	stderr := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *runID == "" {
		stderr.Fatal("--run-id is required")
	}
	if *postgresDSN == "" {
		stderr.Fatal("--postgres-dsn is required")
	}
	if *configPath == "" {
		stderr.Fatal("--config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		stderr.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		stderr.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	tradeStore := pgstore.NewTradeStore(pool)
	equityStore := pgstore.NewEquityStore(pool)

	tradePtrs, err := tradeStore.GetByRunID(ctx, *runID)
	if err != nil {
		stderr.Fatalf("load trades: %v", err)
	}

	curve, err := equityStore.GetByRunID(ctx, *runID)
	if err != nil {
		stderr.Fatalf("load equity curve: %v", err)
	}

	if len(tradePtrs) == 0 && len(curve) == 0 {
		stderr.Fatalf("no stored data for run %s", *runID)
	}

	trades := make([]domain.Trade, len(tradePtrs))
	symbols := make(map[string]struct{})
	for i, t := range tradePtrs {
		trades[i] = *t
		symbols[t.Symbol] = struct{}{}
	}

	report := reporting.Build(reporting.BuildOptions{
		RunID:          *runID,
		InitialCapital: cfg.InitialCapital,
		Trades:         trades,
		EquityCurve:    curve,
		SymbolCount:    len(symbols),
		BarCount:       len(curve),
	})

	markdown := reporting.RenderMarkdown(report)
	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, []byte(markdown), 0o644); err != nil {
			stderr.Fatalf("write report: %v", err)
		}
	} else {
		fmt.Print(markdown)
	}

	if *tradesCSVPath != "" {
		if err := os.WriteFile(*tradesCSVPath, []byte(reporting.RenderTradesCSV(trades)), 0o644); err != nil {
			stderr.Fatalf("write trades csv: %v", err)
		}
	}
	if *equityCSVPath != "" {
		if err := os.WriteFile(*equityCSVPath, []byte(reporting.RenderEquityCSV(curve)), 0o644); err != nil {
			stderr.Fatalf("write equity csv: %v", err)
		}
	}
}
