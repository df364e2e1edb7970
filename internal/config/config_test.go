package config

import (
	"os"
	"path/filepath"
	"testing"

	_ "finpipe/pkg/provider/yahoo"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "finpipe.yaml", "Env: dev\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Fatalf("Env got %q", cfg.Env)
	}
	if cfg.TTL.Short != 10 || cfg.TTL.Medium != 60 || cfg.TTL.Long != 300 {
		t.Fatalf("TTL defaults not applied: %+v", cfg.TTL)
	}
	if cfg.Ingest.Symbols != "AAPL" {
		t.Fatalf("Ingest.Symbols default got %q", cfg.Ingest.Symbols)
	}
	if cfg.Notify.DagID != "ingest_stock_data" || cfg.Notify.TaskID != "fetch_and_upsert" {
		t.Fatalf("Notify defaults not applied: %+v", cfg.Notify)
	}
	if cfg.BaseDir() != dir {
		t.Fatalf("BaseDir got %q, want %q", cfg.BaseDir(), dir)
	}
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "finpipe.yaml", "Env: staging\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected env validation error")
	}
}

func TestLoadHydratesProviderSection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "provider.yaml", `
default: yahoo
providers:
  yahoo:
    type: yahoo
    timeout: 8s
    max_retries: 2
`)
	path := writeFile(t, dir, "finpipe.yaml", "Env: test\nProvider:\n  File: provider.yaml\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Value == nil {
		t.Fatalf("provider section not hydrated")
	}
	if cfg.Provider.Value.Default != "yahoo" {
		t.Fatalf("provider default got %q", cfg.Provider.Value.Default)
	}
	if got := cfg.Provider.File; got != filepath.Join(dir, "provider.yaml") {
		t.Fatalf("provider file not resolved, got %q", got)
	}
}

func TestValidateTTLBounds(t *testing.T) {
	cfg := &Config{}
	cfg.TTL.Short = 0
	cfg.TTL.Medium = 60
	cfg.TTL.Long = 300
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ttl.short validation error")
	}
}
