// Package chat implements the model router and chat turn orchestration: it
// decides which completion provider handles a request, assembles the prompt
// from the retrieved context, and tracks the in-memory session log.
package chat

import (
	"errors"

	"github.com/kyawlabs/fin-agent/llm"
)

// Provider labels surfaced to the caller alongside every reply.
const (
	ProviderGroq   = "Groq (Llama 3.3)"
	ProviderGemini = "Gemini 2.5 Flash"
	ProviderSystem = "System"
)

var (
	// ErrEmptyMessage is returned when a chat request has no message text.
	ErrEmptyMessage = errors.New("message is required")
	// ErrCompletionFailed marks a failed call to the selected provider. The
	// request is not retried against the alternate provider.
	ErrCompletionFailed = errors.New("completion failed")
)

// Request is one chat turn from the caller. Image carries a base64 payload,
// optionally as a data URL; DeepMode is the explicit user toggle.
type Request struct {
	Message  string
	History  []llm.Message
	DeepMode bool
	Image    string
}

// Reply is the completion result with the label of the provider that
// produced it. Failed turns carry the ProviderSystem label.
type Reply struct {
	Text     string
	Provider string
}
