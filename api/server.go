// Package api exposes the HTTP surface: one chat endpoint and one
// shared-secret ingestion endpoint.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/kyawlabs/fin-agent/chat"
	"github.com/kyawlabs/fin-agent/config"
	"github.com/kyawlabs/fin-agent/ingestion"
	"github.com/kyawlabs/fin-agent/llm"
)

type ChatService interface {
	Chat(ctx context.Context, req chat.Request) (chat.Reply, error)
}

type IngestService interface {
	Ingest(ctx context.Context, text string) (ingestion.Result, error)
}

// Server routes HTTP requests to the injected services. Handlers hold no
// mutable state, so concurrent requests are independent.
type Server struct {
	cfg     config.Config
	chats   ChatService
	ingests IngestService
	logger  *log.Logger
	handler http.Handler
}

type chatRequest struct {
	Message         string           `json:"message"`
	History         []historyMessage `json:"history"`
	UseComplexModel bool             `json:"useComplexModel"`
	Image           string           `json:"image,omitempty"`
}

type historyMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type chatResponse struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

type ingestRequest struct {
	Text     string `json:"text"`
	Password string `json:"password"`
}

type ingestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(cfg config.Config, chats ChatService, ingests IngestService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{cfg: cfg, chats: chats, ingests: ingests, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/ingest", s.handleIngest)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, chat.ErrEmptyMessage)
		return
	}

	reply, err := s.chats.Chat(r.Context(), chat.Request{
		Message:  req.Message,
		History:  toLLMHistory(req.History),
		DeepMode: req.UseComplexModel,
		Image:    req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			s.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, chat.ErrCompletionFailed):
			// The reply already carries the system-labeled failure text.
			s.logger.Printf("chat turn failed: %v", err)
			s.writeJSON(w, http.StatusBadGateway, chatResponse{Text: reply.Text, Provider: reply.Provider})
		case errors.Is(err, config.ErrMissingCredential):
			s.writeError(w, http.StatusInternalServerError, err)
		default:
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("chat failed: %w", err))
		}
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{Text: reply.Text, Provider: reply.Provider})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	// Coarse shared-secret gate. The secret travels in the request body, so
	// this endpoint must only be exposed over TLS.
	if s.cfg.IngestSecret == "" {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("INGEST_SECRET not set: %w", config.ErrMissingCredential))
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.IngestSecret)) != 1 {
		s.writeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, ingestion.ErrEmptyText)
		return
	}

	result, err := s.ingests.Ingest(r.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ingestion.ErrEmptyText):
			s.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, ingestion.ErrNotConfigured), errors.Is(err, config.ErrMissingCredential):
			s.writeError(w, http.StatusInternalServerError, err)
		default:
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("ingestion failed: %w", err))
		}
		return
	}

	message := fmt.Sprintf("Successfully processed and uploaded %d of %d chunks to the knowledge base.", result.Stored, result.Chunks)
	if result.Failed > 0 {
		message = fmt.Sprintf("Uploaded %d of %d chunks to the knowledge base; %d failed.", result.Stored, result.Chunks, result.Failed)
	}

	s.writeJSON(w, http.StatusOK, ingestResponse{Success: true, Message: message})
}

func toLLMHistory(history []historyMessage) []llm.Message {
	if len(history) == 0 {
		return nil
	}

	messages := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		switch strings.ToLower(msg.Sender) {
		case "user":
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})
		case "ai", "assistant":
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: text})
		}
	}
	return messages
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Printf("http %d: %v", status, err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	return json.NewDecoder(r.Body).Decode(dst)
}
