// Package ingestion chunks raw text, embeds each chunk, and persists the
// (chunk, vector) pairs to the vector store.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kyawlabs/fin-agent/embeddings"
	"github.com/kyawlabs/fin-agent/rag"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	defaultDelay        = 500 * time.Millisecond
)

var (
	// ErrNotConfigured is returned when a required collaborator is absent.
	ErrNotConfigured = errors.New("ingestion collaborators not configured")
	// ErrEmptyText is returned for blank ingestion input.
	ErrEmptyText = errors.New("no text provided")
)

// Result reports how many chunks were produced and how many of them were
// persisted or failed. Failed chunks do not abort the run.
type Result struct {
	Chunks int
	Stored int
	Failed int
}

type Options struct {
	Splitter     SplitFunc
	Limiter      *rate.Limiter
	Logger       *log.Logger
	ChunkSize    int
	ChunkOverlap int
}

// Service runs the ingestion pipeline. Uploads are strictly sequential and
// throttled by the limiter to respect embedding-provider rate limits.
type Service struct {
	store    rag.VectorStore
	embedder embeddings.Embedder
	split    SplitFunc
	limiter  *rate.Limiter
	logger   *log.Logger

	chunkSize    int
	chunkOverlap int
}

func NewService(store rag.VectorStore, embedder embeddings.Embedder, opts Options) *Service {
	if opts.Splitter == nil {
		opts.Splitter = SplitText
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Every(defaultDelay), 1)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = defaultChunkOverlap
	}

	return &Service{
		store:        store,
		embedder:     embedder,
		split:        opts.Splitter,
		limiter:      opts.Limiter,
		logger:       opts.Logger,
		chunkSize:    opts.ChunkSize,
		chunkOverlap: opts.ChunkOverlap,
	}
}

// Ingest chunks the text and uploads one (chunk, vector) record per chunk.
// A chunk that fails to embed or persist is counted and skipped; the
// remaining chunks still upload. Re-ingesting the same text creates
// duplicate records: there is no dedup by content hash.
func (s *Service) Ingest(ctx context.Context, text string) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("vector store: %w", ErrNotConfigured)
	}
	if s.embedder == nil {
		return Result{}, fmt.Errorf("embedder: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}

	chunks := s.split(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return Result{}, ErrEmptyText
	}

	result := Result{Chunks: len(chunks)}
	for idx, chunk := range chunks {
		if err := s.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("throttle wait: %w", err)
		}

		vectors, err := s.embedder.Embed(ctx, []string{chunk}, embeddings.IntentDocument)
		if err != nil {
			s.logger.Printf("ingest: embed chunk %d/%d failed: %v", idx+1, len(chunks), err)
			result.Failed++
			continue
		}
		if len(vectors) == 0 {
			s.logger.Printf("ingest: embedder returned no vector for chunk %d/%d", idx+1, len(chunks))
			result.Failed++
			continue
		}

		metadata := map[string]string{"chunk_index": strconv.Itoa(idx)}
		if _, err := s.store.Upsert(ctx, chunk, vectors[0], metadata); err != nil {
			s.logger.Printf("ingest: upsert chunk %d/%d failed: %v", idx+1, len(chunks), err)
			result.Failed++
			continue
		}

		result.Stored++
	}

	s.logger.Printf("ingest: stored %d/%d chunks (%d failed)", result.Stored, result.Chunks, result.Failed)
	return result, nil
}
