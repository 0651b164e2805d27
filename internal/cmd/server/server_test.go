package server

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("http addr = %q, want default", cfg.HTTPAddr)
	}
	if cfg.DatabasePath != "weekplan.db" {
		t.Fatalf("db path = %q, want default", cfg.DatabasePath)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	env := map[string]string{
		"WEEKPLAN_HTTP_ADDR": "0.0.0.0:9090",
		"WEEKPLAN_DB_PATH":   "/data/weekplan.db",
	}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, lookup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:9090" {
		t.Fatalf("http addr = %q, want env value", cfg.HTTPAddr)
	}
	if cfg.DatabasePath != "/data/weekplan.db" {
		t.Fatalf("db path = %q, want env value", cfg.DatabasePath)
	}
}

func TestParseConfigFlagsBeatEnv(t *testing.T) {
	lookup := func(key string) (string, bool) { return "env-value", true }

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "localhost:7070"}, lookup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTPAddr != "localhost:7070" {
		t.Fatalf("http addr = %q, want flag value", cfg.HTTPAddr)
	}
}

func TestParseConfigIgnoresBlankEnv(t *testing.T) {
	lookup := func(key string) (string, bool) { return "   ", true }

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, lookup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("http addr = %q, want default", cfg.HTTPAddr)
	}
}
