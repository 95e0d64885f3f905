package rag

import (
	"context"
	"log"
	"strings"

	"github.com/kyawlabs/fin-agent/embeddings"
)

const DefaultLimit = 3

// Retriever fetches the stored chunks most similar to a query and joins
// their text into one context block. Retrieval is best-effort: any failure
// degrades to an empty context so the chat turn can still proceed.
type Retriever struct {
	embedder embeddings.Embedder
	store    VectorStore
	logger   *log.Logger
}

func NewRetriever(embedder embeddings.Embedder, store VectorStore, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = log.Default()
	}

	return &Retriever{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Retrieve returns the concatenated text of the k nearest chunks, most
// relevant first, separated by blank lines. It returns "" when nothing is
// stored or a collaborator fails.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) string {
	query = strings.TrimSpace(query)
	if query == "" || r.embedder == nil || r.store == nil {
		return ""
	}
	if k <= 0 {
		k = DefaultLimit
	}

	vectors, err := r.embedder.Embed(ctx, []string{query}, embeddings.IntentQuery)
	if err != nil {
		r.logger.Printf("retrieval: embed query failed, proceeding without context: %v", err)
		return ""
	}
	if len(vectors) == 0 {
		r.logger.Printf("retrieval: embedder returned no vectors, proceeding without context")
		return ""
	}

	results, err := r.store.Search(ctx, vectors[0], k)
	if err != nil {
		r.logger.Printf("retrieval: vector search failed, proceeding without context: %v", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	texts := make([]string, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Content)
	}

	return strings.Join(texts, "\n\n")
}
