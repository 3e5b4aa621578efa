// Command scan watches live kline streams and logs pump-reversal signals
// as they form. It trades nothing; it is the detector pointed at the
// present instead of the past.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"pump-short-lab/internal/config"
	"pump-short-lab/internal/detector"
	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/feed"
	"pump-short-lab/internal/logging"
	"pump-short-lab/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (required)")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols to watch (required)")
	endpoint := flag.String("endpoint", "", "WebSocket combined-stream endpoint (default: Binance)")
	interval := flag.String("interval", "1h", "Kline interval")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	stderr := log.New(os.Stderr, "[scan] ", log.LstdFlags)

	if *configPath == "" {
		stderr.Fatal("--config is required")
	}
	symbols := parseSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		stderr.Fatal("--symbols is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		stderr.Fatalf("load config: %v", err)
	}

	logger, err := logging.New("scan", *logLevel, false)
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

	var metrics *observability.Metrics
	if *metricsAddr != "" {
		metrics = observability.NewMetrics("")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	feedCfg := feed.DefaultClientConfig()
	feedCfg.Interval = *interval
	if *endpoint != "" {
		feedCfg.Endpoint = *endpoint
	}

	client, err := feed.NewClient(ctx, symbols, feedCfg, logger, metrics)
	if err != nil {
		stderr.Fatalf("connect feed: %v", err)
	}
	defer client.Close()

	det := detector.FromConfig(cfg)

	// The detector needs a full lookback plus the baseline window; one
	// extra bar keeps the window after appending the newest.
	maxHistory := cfg.LookbackHours() + cfg.BaselineWindow + 1
	history := make(map[string][]domain.Bar, len(symbols))

	logger.Info("scanning",
		zap.Strings("symbols", symbols),
		zap.String("interval", *interval))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-client.Events():
			if !ok {
				return
			}

			bars := append(history[event.Symbol], event.Bar)
			if len(bars) > maxHistory {
				bars = bars[len(bars)-maxHistory:]
			}
			history[event.Symbol] = bars

			if metrics != nil {
				metrics.RecordBar()
			}

			sig := det.Detect(event.Symbol, bars)
			if sig == nil {
				continue
			}
			if metrics != nil {
				metrics.RecordSignal()
			}

			logger.Info("pump reversal signal",
				zap.String("symbol", sig.Symbol),
				zap.Int64("timestamp_ms", sig.TimestampMs),
				zap.Float64("reference_price", sig.ReferencePrice),
				zap.Float64("gain_percent", sig.GainPercent),
				zap.String("reason", sig.Reason))
		}
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
