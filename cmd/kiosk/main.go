// Package main runs the kiosk slideshow data service.
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

	"kiosk/internal/app"
	"kiosk/internal/config"
	"kiosk/internal/logger"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configPath := flag.String("config", "", "Path to a YAML or JSON5 config file")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	logLevel := flag.String("log-level", "", "Log level (overrides logging.level)")

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log := logger.NewLoggerWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	if err := run(cfg, log); err != nil {
		log.Error(fmt.Sprintf("❌ %v", err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}

	cfg := config.Default()
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("🚀 Starting kiosk service")
	log.Info(fmt.Sprintf("📍 Spreadsheet: %s (sheet %q)", cfg.Source.SpreadsheetID, cfg.Source.SheetName))
	log.Info(fmt.Sprintf("🧭 Strategies: %v", cfg.Pipeline.Strategies))

	if cfg.NeedsAPIKey() && cfg.Source.APIKey == "" {
		log.Warn("⚠️  No API key configured; authenticated strategies will fail and the public fallbacks will be used")
	}

	// 2. Build Components
	// -------------------
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn(fmt.Sprintf("⚠️  Shutdown: %v", err))
		}
	}()

	// 3. Start Refresh Loop
	// ---------------------
	if err := a.Service.Start(ctx); err != nil {
		return err
	}

	// 4. Serve HTTP
	// -------------
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info(fmt.Sprintf("🌐 Listening on %s", cfg.Server.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("🛑 Shutting down")
	case err := <-errCh:
		_ = a.Service.Stop(context.Background())

		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()

	if err := a.Service.Stop(shutdownCtx); err != nil {
		log.Warn(fmt.Sprintf("⚠️  Refresh loop did not stop cleanly: %v", err))
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("✨ Stopped")

	return nil
}
