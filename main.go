// FILE: main.go
// Package main – cmd glue: cobra subcommands wiring config/logging/metrics
// boot sequence, grounded on the teacher's flag-based main.go boot order
// (loadBotEnv -> loadConfigFromEnv -> wiring -> Prometheus/health server ->
// signal.NotifyContext shutdown), reshaped onto github.com/spf13/cobra.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagLogLevel string
	flagConsole  bool
)

func main() {
	root := &cobra.Command{
		Use:   "ladderctl",
		Short: "Cycle/ladder signal engine replay and monitor CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(flagLogLevel, flagConsole)
		},
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace/debug/info/warn/error)")
	root.PersistentFlags().BoolVar(&flagConsole, "console", true, "use human-readable console log output")

	root.AddCommand(newReplayCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newReplayCmd replays a single asset's CSV candle history and writes the
// debug record stream to stdout or a file (§4.7's exercised path).
func newReplayCmd() *cobra.Command {
	var symbol, csvPath, outPath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a single asset's daily candle CSV into a debug record stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" || csvPath == "" {
				return fmt.Errorf("--symbol and --csv are required")
			}
			src := newCSVCandleSource(csvPath)
			candles, err := src.Recent(cmd.Context(), symbol, 0)
			if err != nil {
				return err
			}

			eng := NewEngine(symbol)
			records, err := eng.Replay(candles)
			if err != nil {
				return err
			}

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return writeDebugCSV(out, records)
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "asset symbol")
	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the daily candle CSV")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (default: stdout)")
	return cmd
}

// newServeCmd starts the realtime monitor loop plus a Prometheus
// /metrics + /healthz HTTP server, grounded on the teacher's main.go.
func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the realtime monitor loop and metrics/health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := loadDotEnv(envFile, dotEnvKeys); err != nil {
					log.Warn().Err(err).Msg("failed to load .env file")
				}
			}
			cfg := loadConfigFromEnv()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			history, err := newAlertHistoryStore(cfg)
			if err != nil {
				return err
			}

			var notifier Notifier
			switch {
			case cfg.TelegramBotToken != "":
				notifier = newRetryingNotifier("telegram", newTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
			case cfg.SlackWebhookURL != "":
				notifier = newRetryingNotifier("slack", newSlackNotifier(cfg.SlackWebhookURL))
			default:
				notifier = newRetryingNotifier("slack", newSlackNotifier(""))
			}

			var source CandleSource
			if cfg.CandleSourceURL != "" {
				source = newHTTPCandleSource(cfg.CandleSourceURL, cfg.HTTPTimeout, cfg.CandleRatePerSec)
			} else {
				return fmt.Errorf("LADDER_CANDLE_SOURCE_URL must be set to serve")
			}

			universe := newStaticUniverse(nil, cfg.ExcludeSymbols, cfg.UniverseSize)
			monitor := NewMonitor(universe, source, history, notifier, cfg)

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("metrics server failed")
				}
			}()

			errCh := make(chan error, 1)
			go func() { errCh <- monitor.Run(ctx) }()

			<-ctx.Done()
			log.Info().Msg("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("metrics server shutdown error")
			}

			if err := <-errCh; err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to a .env file")
	return cmd
}

// dotEnvKeys is the whitelist of keys loadDotEnv is allowed to populate
// from a .env file, the same restricted-key approach as the teacher's
// loadBotEnv.
var dotEnvKeys = map[string]bool{
	"LADDER_UNIVERSE_SIZE": true, "LADDER_EXCLUDE_SYMBOLS": true, "LADDER_RECORD_DIR": true,
	"LADDER_MONITOR_INTERVAL_SECONDS": true, "LADDER_DAILY_REBUILD_AT": true,
	"LADDER_ALERT_HISTORY_BACKEND": true, "LADDER_ALERT_HISTORY_FILE": true, "LADDER_REDIS_ADDR": true,
	"LADDER_TELEGRAM_BOT_TOKEN": true, "LADDER_TELEGRAM_CHAT_ID": true, "LADDER_SLACK_WEBHOOK_URL": true,
	"LADDER_HTTP_TIMEOUT_SECONDS": true, "LADDER_CANDLE_SOURCE_URL": true, "LADDER_CANDLE_RATE_PER_SEC": true,
	"LADDER_METRICS_ADDR": true,
}
