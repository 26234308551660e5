package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/aurora/api"
	"github.com/use-agent/aurora/browser"
	"github.com/use-agent/aurora/config"
	"github.com/use-agent/aurora/engine"
	"github.com/use-agent/aurora/metrics"
	"github.com/use-agent/aurora/ocr"
	"github.com/use-agent/aurora/orchestrator"
	"github.com/use-agent/aurora/selector"
	"github.com/use-agent/aurora/task"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("aurora starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxBrowserPages", cfg.Browser.MaxPages,
	)

	// ── 3. Launch browser and page pool ─────────────────────────────
	b, err := browser.New(cfg.Browser)
	if err != nil {
		slog.Error("failed to initialise browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	// ── 4. Wire the extraction pipeline ─────────────────────────────
	met := metrics.New()
	static := engine.NewHTTPEngine(cfg.Fetch.HTTPTimeout)
	sel := selector.New(cfg.Extraction.StrategyMemoryTTL)
	ocrClient := ocr.NewClient(nil, cfg.OCR)
	if !ocrClient.Enabled() {
		slog.Warn("OCR API key not configured, OCR escalation disabled")
	}

	orch := orchestrator.New(
		static,
		orchestrator.NewBrowserProvider(b),
		sel,
		ocrClient,
		cfg.Extraction,
		met,
	)

	manager := task.NewManager(orch, cfg.Extraction, met)
	defer manager.Close()

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(manager, b, met, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// manager.Close() and b.Close() run via defer — cancel running tasks,
	// drain the page pool, and kill Chrome.
	slog.Info("aurora stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
