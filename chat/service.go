package chat

import (
	"context"
	"log"
	"strings"
)

// Retriever produces the context block for a query. Implementations must
// degrade to "" on failure rather than abort the turn.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) string
}

// Service orchestrates one chat turn: validate, retrieve context, route to
// a provider. Retrieval and completion are sequential because the prompt
// depends on the retrieval result.
type Service struct {
	retriever Retriever
	router    *Router
	limit     int
	logger    *log.Logger
}

func NewService(retriever Retriever, router *Router, limit int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if limit <= 0 {
		limit = 3
	}

	return &Service{
		retriever: retriever,
		router:    router,
		limit:     limit,
		logger:    logger,
	}
}

func (s *Service) Chat(ctx context.Context, req Request) (Reply, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return Reply{}, ErrEmptyMessage
	}

	contextText := ""
	if s.retriever != nil {
		contextText = s.retriever.Retrieve(ctx, req.Message, s.limit)
	}
	if contextText == "" {
		s.logger.Printf("chat: no context retrieved, answering from general knowledge")
	}

	return s.router.Route(ctx, req, contextText)
}
