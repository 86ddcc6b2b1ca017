package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 150 {
		t.Fatalf("chunking defaults = %d/%d, want 1000/150", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.EmbedBatchSize != 10 {
		t.Fatalf("EmbedBatchSize = %d, want 10", cfg.EmbedBatchSize)
	}
	if cfg.DocumentTimeout != 10*time.Minute {
		t.Fatalf("DocumentTimeout = %v, want 10m", cfg.DocumentTimeout)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("NATS_SUBJECT", "ingest.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 500 {
		t.Fatalf("ChunkSize = %d, want 500", cfg.ChunkSize)
	}
	if cfg.NATSSubject != "ingest.test" {
		t.Fatalf("NATSSubject = %q, want ingest.test", cfg.NATSSubject)
	}
}

func TestLoadFileOverlayRespectsEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api_port: \"9999\"\nchunk_size: 800\ndocument_timeout: 2m\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "7070" {
		t.Fatalf("APIPort = %q, env should win over file", cfg.APIPort)
	}
	if cfg.ChunkSize != 800 {
		t.Fatalf("ChunkSize = %d, file should win over default", cfg.ChunkSize)
	}
	if cfg.DocumentTimeout != 2*time.Minute {
		t.Fatalf("DocumentTimeout = %v, want 2m", cfg.DocumentTimeout)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t-broken"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
