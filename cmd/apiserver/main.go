// Package main runs the deck engine REST API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ramonehamilton/deckforge/internal/api"
	"github.com/ramonehamilton/deckforge/internal/bootstrap"
	"github.com/ramonehamilton/deckforge/internal/config"
	"github.com/ramonehamilton/deckforge/internal/logging"
)

var (
	configPath = flag.String("config", "", "Config file path (default: $DECKFORGE_CONFIG or ~/.deckforge/config.toml)")
	port       = flag.Int("port", 0, "API server port (overrides config)")
	dbPath     = flag.String("db-path", "", "Database path (overrides config)")
)

func main() {
	flag.Parse()

	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := run(); err != nil {
		logging.Error().Err(err).Msg("API server failed")
		os.Exit(1)
	}
}

func run() error {
	path, err := config.ResolvePath(*configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.API.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Error().Err(err).Msg("Error closing runtime")
		}
	}()

	if rt.Watcher != nil {
		go func() {
			if err := rt.Watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				rt.Logger.Error().Err(err).Msg("File watcher stopped")
			}
		}()
	}

	server := api.NewServer(&api.Config{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		RateLimit:      cfg.API.RateLimit,
		RateBurst:      cfg.API.RateBurst,
	}, rt.Engine, rt.Store, logging.Component("api"))

	if err := server.Start(); err != nil {
		return fmt.Errorf("start API server: %w", err)
	}
	rt.Logger.Info().
		Str("config", path).
		Str("addr", server.Addr()).
		Bool("storage", rt.Store != nil).
		Msg("API server running, press Ctrl+C to stop")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	rt.Logger.Info().Msg("API server stopped")
	return nil
}
