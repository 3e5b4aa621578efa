package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pump-short-lab/internal/config"
	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/engine"
	"pump-short-lab/internal/loader"
	"pump-short-lab/internal/logging"
	"pump-short-lab/internal/reporting"
	"pump-short-lab/internal/storage"
	chstore "pump-short-lab/internal/storage/clickhouse"
	"pump-short-lab/internal/storage/migrations"
	pgstore "pump-short-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (required)")
	csvDir := flag.String("csv-dir", "", "Directory of per-symbol kline CSV files")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (default: all in store)")

	// Storage
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (bar history)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (persist trades and equity)")

	// Output
	outputJSON := flag.Bool("json", false, "Output performance summary as JSON")
	reportPath := flag.String("report", "", "Write Markdown report to file")
	tradesCSVPath := flag.String("trades-csv", "", "Write trade log CSV to file")
	equityCSVPath := flag.String("equity-csv", "", "Write equity curve CSV to file")

	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	stderr := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *configPath == "" {
		stderr.Fatal("--config is required")
	}
	if *csvDir == "" && *clickhouseDSN == "" {
		stderr.Fatal("one of --csv-dir or --clickhouse-dsn is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		stderr.Fatalf("load config: %v", err)
	}

	logger, err := logging.New("backtest", *logLevel, false)
	if err != nil {
		stderr.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		stderr.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	executor, err := engine.New(cfg, logger, nil)
	if err != nil {
		stderr.Fatalf("create executor: %v", err)
	}

	// Optional persistence
	var tradeStore storage.TradeStore
	var equityStore storage.EquityStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			stderr.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			stderr.Fatalf("apply postgres migrations: %v", err)
		}

		tradeStore = pgstore.NewTradeStore(pool)
		equityStore = pgstore.NewEquityStore(pool)
	}

	var result *engine.Result
	symbolCount := 0

	if *csvDir != "" {
		series, err := loader.LoadDir(*csvDir)
		if err != nil {
			stderr.Fatalf("load csv dir: %v", err)
		}
		symbolCount = len(series)

		result, err = executor.Run(ctx, series)
		if err != nil {
			stderr.Fatalf("backtest failed: %v", err)
		}

		// Persist manually when not going through the runner
		if tradeStore != nil && len(result.Trades) > 0 {
			trades := make([]*domain.Trade, len(result.Trades))
			for i := range result.Trades {
				trades[i] = &result.Trades[i]
			}
			if err := tradeStore.InsertBulk(ctx, trades); err != nil {
				stderr.Fatalf("persist trades: %v", err)
			}
		}
		if equityStore != nil && len(result.EquityCurve) > 0 {
			curve := domain.CollapseEquityCurve(result.EquityCurve)
			if err := equityStore.InsertBulk(ctx, result.RunID, curve); err != nil {
				stderr.Fatalf("persist equity curve: %v", err)
			}
		}
	} else {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			stderr.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()

		runner := engine.NewRunner(engine.RunnerOptions{
			Executor:    executor,
			BarStore:    chstore.NewBarStore(conn),
			TradeStore:  tradeStore,
			EquityStore: equityStore,
		})

		symbols := parseSymbols(*symbolsFlag)
		result, err = runner.Run(ctx, symbols)
		if err != nil {
			stderr.Fatalf("backtest failed: %v", err)
		}
		symbolCount = len(symbols)
	}

	report := reporting.Build(reporting.BuildOptions{
		RunID:           result.RunID,
		InitialCapital:  cfg.InitialCapital,
		Trades:          result.Trades,
		EquityCurve:     result.EquityCurve,
		SkippedSignals:  result.Skips,
		IntegrityErrors: result.IntegrityErrors,
		SymbolCount:     symbolCount,
		BarCount:        result.BarsProcessed,
	})

	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
			stderr.Fatalf("write report: %v", err)
		}
	}
	if *tradesCSVPath != "" {
		if err := os.WriteFile(*tradesCSVPath, []byte(reporting.RenderTradesCSV(result.Trades)), 0o644); err != nil {
			stderr.Fatalf("write trades csv: %v", err)
		}
	}
	if *equityCSVPath != "" {
		if err := os.WriteFile(*equityCSVPath, []byte(reporting.RenderEquityCSV(result.EquityCurve)), 0o644); err != nil {
			stderr.Fatalf("write equity csv: %v", err)
		}
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(report.Summary, "", "  ")
		fmt.Println(string(output))
	} else {
		printSummary(result, report)
	}
}

func parseSymbols(flagValue string) []string {
	if flagValue == "" {
		return nil
	}
	parts := strings.Split(flagValue, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// printSummary outputs a human-readable run summary.
func printSummary(result *engine.Result, report *reporting.Report) {
	s := report.Summary

	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", result.RunID)
	fmt.Printf("Bars Processed:     %d\n", result.BarsProcessed)
	fmt.Println()

	fmt.Println("Performance:")
	fmt.Printf("  Initial Capital:  %.2f\n", s.InitialCapital)
	fmt.Printf("  Final Equity:     %.2f\n", s.FinalEquity)
	fmt.Printf("  Total Return:     %.2f%%\n", s.TotalReturn*100)
	fmt.Printf("  Max Drawdown:     %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("  Sharpe Ratio:     %.4f\n", s.SharpeRatio)
	fmt.Printf("  Win Rate:         %.2f%%\n", s.WinRate*100)
	fmt.Println()

	fmt.Println("Activity:")
	fmt.Printf("  Total Fills:      %d\n", s.TotalTrades)
	fmt.Printf("  Closed Trades:    %d\n", s.ClosedTrades)
	fmt.Printf("  Skipped Signals:  %d\n", s.SkippedSignals)
	if len(result.IntegrityErrors) > 0 {
		fmt.Println()
		fmt.Println("Integrity Errors:")
		for _, e := range result.IntegrityErrors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
