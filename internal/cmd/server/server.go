// Package server wires configuration and dependencies for the weekplan API server.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/weekplan/internal/app"
	"github.com/louisbranch/weekplan/internal/auth/directory"
	"github.com/louisbranch/weekplan/internal/auth/gateway"
	"github.com/louisbranch/weekplan/internal/auth/identity"
	"github.com/louisbranch/weekplan/internal/auth/session"
	"github.com/louisbranch/weekplan/internal/platform/otel"
	"github.com/louisbranch/weekplan/internal/storage/sqlite"
	"github.com/louisbranch/weekplan/internal/todo/service"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr     string
	DatabasePath string
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config, with environment defaults.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		HTTPAddr:     envOrDefault(lookup, "WEEKPLAN_HTTP_ADDR", "localhost:8080"),
		DatabasePath: envOrDefault(lookup, "WEEKPLAN_DB_PATH", "weekplan.db"),
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP server address")
	fs.StringVar(&cfg.DatabasePath, "db-path", cfg.DatabasePath, "The SQLite database path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the weekplan API server and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdownTelemetry, err := otel.Setup(ctx, "weekplan")
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Printf("shutdown telemetry: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	sessionConfig, err := session.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load session config: %w", err)
	}
	identityConfig, err := identity.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load identity config: %w", err)
	}

	sessions := session.NewIssuer(sessionConfig)
	verifier := identity.NewVerifier(identityConfig)
	loginGateway := gateway.New(verifier, directory.New(store), sessions)
	todos := service.New(store)

	httpServer, err := app.NewServer(app.Config{Addr: cfg.HTTPAddr}, loginGateway, sessions, todos)
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}
	return httpServer.ListenAndServe(ctx)
}

func envOrDefault(lookup EnvLookup, key, fallback string) string {
	if lookup == nil {
		return fallback
	}
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
