// main.go - Pool watcher daemon.
//
// Tails a file of hex-encoded program-log events, feeds them through a
// wallet session's scanner, and exposes balances, metrics and health over
// HTTP. Spending is out of the daemon's hands: it derives the wallet keys
// from the configured seed but only scans, never preparing a transaction.
//
// Usage:
//
//	poolwatchd -config poolwatchd.json
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"shieldedpool/internal/prover"
	"shieldedpool/wallet"
)

func main() {
	configPath := flag.String("config", "poolwatchd.json", "path to the daemon configuration")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, closeLog, err := NewLogger(config.LogLevel, config.LogFile)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	seed, _ := config.Seed()
	poolID, _ := config.PoolID()
	token, _ := config.Token()

	w := wallet.New(seed, poolID, token, prover.Unintegrated{}, config.Pool)
	logger.Info().Str("address", w.Address()).Msg("wallet session opened")
	if config.NotesPath != "" {
		if err := w.LoadNotes(config.NotesPath); err == nil {
			logger.Info().Uint64("balance", w.Balance()).Msg("restored notes")
		}
	}

	metrics := NewMetricsCollector()
	health := NewHealthChecker()
	health.RegisterComponent("event_log", func() error {
		_, err := os.Stat(config.EventLogPath)
		return err
	})

	mux := http.NewServeMux()
	mux.Handle("/healthz", health.Handler())
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/balance", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(w.BalanceInfo())
	})
	server := &http.Server{Addr: config.ListenAddr, Handler: mux}
	go func() {
		logger.Info().Str("addr", config.ListenAddr).Msg("http listener up")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http listener failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := NewRateLimiter(config.MaxEventsPerS, config.MaxEventsPerS, time.Second)
	runWatchLoop(ctx, config, logger, w, metrics, limiter)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	if config.NotesPath != "" {
		if err := w.SaveNotes(config.NotesPath); err != nil {
			logger.Error().Err(err).Msg("saving notes failed")
		}
	}
	logger.Info().Uint64("balance", w.Balance()).Msg("shutdown complete")
}

// runWatchLoop tails the event log until the context is cancelled. Each line
// is one hex-encoded event record; blank lines and comments are skipped.
func runWatchLoop(ctx context.Context, config *Config, logger zerolog.Logger,
	w *wallet.Wallet, metrics *MetricsCollector, limiter *RateLimiter) {
	interval := time.Duration(config.PollIntervalMs) * time.Millisecond
	var offset int64

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		file, err := os.Open(config.EventLogPath)
		if err != nil {
			logger.Warn().Err(err).Msg("event log unavailable")
			continue
		}
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			file.Close()
			continue
		}
		scanned := bufio.NewScanner(file)
		scanned.Buffer(make([]byte, 0, 1<<20), 1<<20)
		for scanned.Scan() {
			line := strings.TrimSpace(scanned.Text())
			offset += int64(len(scanned.Bytes())) + 1
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			record, err := hex.DecodeString(line)
			if err != nil {
				metrics.IncrementCounter("events_malformed", 1)
				continue
			}
			limiter.Wait()
			before := w.ScannerStats()
			w.ProcessEvent(record)
			after := w.ScannerStats()
			if after.NotesRecovered > before.NotesRecovered {
				logger.Info().Uint64("balance", w.Balance()).Msg("note recovered")
			}
			if after.SpendsObserved > before.SpendsObserved {
				logger.Info().Uint64("balance", w.Balance()).Msg("spend observed")
			}
		}
		file.Close()

		stats := w.ScannerStats()
		metrics.SetCounter("events_seen", int64(stats.EventsSeen))
		metrics.SetCounter("events_ignored", int64(stats.EventsIgnored))
		metrics.SetCounter("notes_recovered", int64(stats.NotesRecovered))
		metrics.SetCounter("spends_observed", int64(stats.SpendsObserved))
		metrics.SetCounter("root_mismatches", int64(stats.RootMismatches))
		metrics.SetGauge("balance", float64(w.Balance()))
		metrics.SetGauge("current_epoch", float64(w.CurrentEpoch()))
	}
}
