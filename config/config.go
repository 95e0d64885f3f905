// Package config loads environment-driven configuration for the fin-agent
// services. A .env file in the working directory is honored when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCredential marks a required credential or endpoint that is not
// configured. Callers surface it to the user instead of attempting the
// operation.
var ErrMissingCredential = errors.New("missing credential")

type EmbeddingConfig struct {
	Model     string
	Dimension int
}

type ChunkingConfig struct {
	Size    int
	Overlap int
}

type Config struct {
	Addr        string
	DatabaseDSN string

	GoogleAPIKey  string
	GroqAPIKey    string
	GroqBaseURL   string
	GeminiBaseURL string

	IngestSecret string
	IngestDelay  time.Duration
	DataDir      string

	Embeddings EmbeddingConfig
	Chunking   ChunkingConfig
}

func Load() Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Addr:          getEnv("LISTEN_ADDR", ":8080"),
		DatabaseDSN:   getEnv("SUPABASE_DB_DSN", ""),
		GoogleAPIKey:  getEnv("GOOGLE_API_KEY", ""),
		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		IngestSecret:  getEnv("INGEST_SECRET", ""),
		IngestDelay:   getDuration("INGEST_DELAY", 500*time.Millisecond),
		DataDir:       getEnv("DATA_DIR", "./data"),
		Embeddings: EmbeddingConfig{
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			Dimension: getInt("EMBEDDING_DIMENSION", 768),
		},
		Chunking: ChunkingConfig{
			Size:    getInt("CHUNK_SIZE", 1000),
			Overlap: getInt("CHUNK_OVERLAP", 200),
		},
	}
}

// ValidateChat reports whether chat routing can function: both completion
// providers, the embedder, and the vector store must be configured.
func (c Config) ValidateChat() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("SUPABASE_DB_DSN not set: %w", ErrMissingCredential)
	}
	if c.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY not set: %w", ErrMissingCredential)
	}
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY not set: %w", ErrMissingCredential)
	}
	return nil
}

// ValidateIngest reports whether the ingestion pipeline can function.
func (c Config) ValidateIngest() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("SUPABASE_DB_DSN not set: %w", ErrMissingCredential)
	}
	if c.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY not set: %w", ErrMissingCredential)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
