package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pump-short-lab/internal/loader"
	"pump-short-lab/internal/logging"
	chstore "pump-short-lab/internal/storage/clickhouse"
	"pump-short-lab/internal/storage/migrations"
)

func main() {
	csvDir := flag.String("csv-dir", "", "Directory of per-symbol kline CSV files (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	stderr := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

	if *csvDir == "" {
		stderr.Fatal("--csv-dir is required")
	}
	if *clickhouseDSN == "" {
		stderr.Fatal("--clickhouse-dsn is required")
	}

	logger, err := logging.New("ingest", *logLevel, false)
	if err != nil {
		stderr.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		stderr.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Migrations also hand back the connection to the target database
	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		stderr.Fatalf("apply clickhouse migrations: %v", err)
	}
	defer conn.Close()

	series, err := loader.LoadDir(*csvDir)
	if err != nil {
		stderr.Fatalf("load csv dir: %v", err)
	}

	store := chstore.NewBarStore(conn)

	totalBars := 0
	for symbol, bars := range series {
		if err := ctx.Err(); err != nil {
			stderr.Fatalf("ingest interrupted: %v", err)
		}

		if err := store.InsertBulk(ctx, symbol, bars); err != nil {
			stderr.Fatalf("insert bars for %s: %v", symbol, err)
		}

		totalBars += len(bars)
		logger.Info("ingested symbol",
			zap.String("symbol", symbol),
			zap.Int("bars", len(bars)))
	}

	logger.Info("ingest complete",
		zap.Int("symbols", len(series)),
		zap.Int("bars", totalBars))
}
