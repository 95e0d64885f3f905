package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kyawlabs/fin-agent/config"
)

func TestValidateChatMissingCredentials(t *testing.T) {
	cfg := config.Config{DatabaseDSN: "postgres://localhost/fin"}

	err := cfg.ValidateChat()
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestValidateChatComplete(t *testing.T) {
	cfg := config.Config{
		DatabaseDSN:  "postgres://localhost/fin",
		GoogleAPIKey: "g-key",
		GroqAPIKey:   "q-key",
	}

	if err := cfg.ValidateChat(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateIngestDoesNotRequireGroq(t *testing.T) {
	cfg := config.Config{
		DatabaseDSN:  "postgres://localhost/fin",
		GoogleAPIKey: "g-key",
	}

	if err := cfg.ValidateIngest(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPABASE_DB_DSN", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("INGEST_DELAY", "")

	cfg := config.Load()

	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 200 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Embeddings.Dimension != 768 {
		t.Fatalf("unexpected embedding dimension: %d", cfg.Embeddings.Dimension)
	}
	if cfg.IngestDelay != 500*time.Millisecond {
		t.Fatalf("unexpected ingest delay: %v", cfg.IngestDelay)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "400")
	t.Setenv("INGEST_DELAY", "1s")

	cfg := config.Load()

	if cfg.Chunking.Size != 400 {
		t.Fatalf("expected chunk size 400, got %d", cfg.Chunking.Size)
	}
	if cfg.IngestDelay != time.Second {
		t.Fatalf("expected 1s ingest delay, got %v", cfg.IngestDelay)
	}
}
