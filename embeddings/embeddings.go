// Package embeddings turns text into fixed-dimension vectors via an external
// embedding model.
package embeddings

import "context"

// Intent tells the embedding model whether the text is a stored document or
// a search query. Models that do not distinguish the two may ignore it.
type Intent string

const (
	IntentDocument Intent = "RETRIEVAL_DOCUMENT"
	IntentQuery    Intent = "RETRIEVAL_QUERY"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string, intent Intent) ([][]float32, error)
}
