package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.DBPath != "arena.db" {
		t.Errorf("dbPath = %q", cfg.DBPath)
	}
	if cfg.MaxConnsPerIP != 5 || cfg.MaxConns != 1000 {
		t.Errorf("conn limits = %d/%d", cfg.MaxConnsPerIP, cfg.MaxConns)
	}
	if cfg.RespawnDelay() != 3*time.Second {
		t.Errorf("respawn delay = %v", cfg.RespawnDelay())
	}

	b := cfg.SpawnBounds()
	if b.MinX != -50 || b.MaxX != 50 || b.MinZ != -50 || b.MaxZ != 50 || b.Y != 1.6 {
		t.Errorf("spawn bounds = %+v", b)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
addr: ":9999"
logLevel: debug
respawnDelaySec: 5.5
world:
  minX: -10
  maxX: 10
`)
	if err := os.WriteFile(filepath.Join(dir, "arena.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9999" || cfg.LogLevel != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RespawnDelay() != 5500*time.Millisecond {
		t.Errorf("respawn delay = %v", cfg.RespawnDelay())
	}

	b := cfg.SpawnBounds()
	if b.MinX != -10 || b.MaxX != 10 {
		t.Errorf("world overrides not applied: %+v", b)
	}
	// Unset keys keep their defaults
	if b.MinZ != -50 || b.MaxZ != 50 {
		t.Errorf("defaults lost: %+v", b)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "arena.yaml"), []byte("addr: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("malformed config accepted")
	}
}
