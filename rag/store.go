// Package rag provides the vector store access layer and the retriever that
// turns a user query into a context block for the completion prompt.
package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SearchResult is one stored chunk returned by a similarity search, ordered
// by descending relevance.
type SearchResult struct {
	ID      uuid.UUID
	Content string
	Score   float64
}

type VectorStore interface {
	Upsert(ctx context.Context, content string, embedding []float32, metadata map[string]string) (uuid.UUID, error)
	Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error)
}

// PostgresVectorStore persists chunks in the pgvector-backed documents
// table. It is the production implementation used against Supabase.
type PostgresVectorStore struct {
	pool *pgxpool.Pool
}

func NewPostgresVectorStore(pool *pgxpool.Pool) *PostgresVectorStore {
	return &PostgresVectorStore{pool: pool}
}

func (s *PostgresVectorStore) Upsert(ctx context.Context, content string, embedding []float32, metadata map[string]string) (uuid.UUID, error) {
	if s.pool == nil {
		return uuid.Nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return uuid.Nil, fmt.Errorf("embedding is empty")
	}

	id := uuid.New()
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, id, content, metadata, pgvector.NewVector(embedding)); err != nil {
		return uuid.Nil, fmt.Errorf("insert document chunk: %w", err)
	}

	return id, nil
}

func (s *PostgresVectorStore) Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if limit <= 0 {
		limit = 3
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := limit * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT id, content, (embedding <-> $1::vector) AS distance
		FROM documents
		ORDER BY embedding <-> $1::vector
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]SearchResult, 0, limit)
	for rows.Next() {
		var item SearchResult
		var distance float64
		if scanErr := rows.Scan(&item.ID, &item.Content, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		item.Score = 1 / (1 + distance)
		results = append(results, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

var _ VectorStore = (*PostgresVectorStore)(nil)
