package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kyawlabs/fin-agent/llm"
)

// Router selects a completion provider for each request. The decision is a
// pure function of the request: deep mode or an image attachment selects the
// high-capability provider, everything else takes the low-latency path.
type Router struct {
	fast   llm.Client
	deep   llm.Client
	logger *log.Logger
}

func NewRouter(fast, deep llm.Client, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}

	return &Router{
		fast:   fast,
		deep:   deep,
		logger: logger,
	}
}

// UseDeepProvider is the routing predicate, evaluated once per request.
func UseDeepProvider(deepMode bool, image string) bool {
	return deepMode || image != ""
}

// Route builds the prompt and invokes the selected provider. A provider
// failure yields a system-labeled reply with a human-readable message and a
// wrapped ErrCompletionFailed; there is no automatic failover.
func (r *Router) Route(ctx context.Context, req Request, contextText string) (Reply, error) {
	client := r.fast
	label := ProviderGroq
	if UseDeepProvider(req.DeepMode, req.Image) {
		client = r.deep
		label = ProviderGemini
	}
	if client == nil {
		return systemReply("The selected model is not configured."),
			fmt.Errorf("%w: %s client not configured", ErrCompletionFailed, label)
	}

	parts := []llm.Part{llm.TextPart(req.Message)}
	if req.Image != "" {
		data, mimeType := decodeImagePayload(req.Image)
		parts = append(parts, llm.ImagePart(data, mimeType))
	}

	text, err := client.Complete(ctx, llm.Request{
		System:  systemInstruction(contextText),
		History: req.History,
		Parts:   parts,
	})
	if err != nil {
		r.logger.Printf("route: %s completion failed: %v", label, err)
		return systemReply("I encountered an error while generating a response. Please try again."),
			fmt.Errorf("%w: %s: %w", ErrCompletionFailed, label, err)
	}

	return Reply{Text: strings.TrimSpace(text), Provider: label}, nil
}

func systemReply(message string) Reply {
	return Reply{Text: message, Provider: ProviderSystem}
}

func systemInstruction(contextText string) string {
	var sb strings.Builder
	sb.WriteString("You are a Senior Financial Analyst for the Myanmar market.\n")
	sb.WriteString("Use the provided CONTEXT from the knowledge base to answer questions accurately.\n")
	sb.WriteString("If the context is irrelevant or missing, use your general knowledge but mention the lack of specific internal data.\n")
	sb.WriteString("\nCONTEXT:\n")
	sb.WriteString(contextText)
	return sb.String()
}

// decodeImagePayload accepts either bare base64 or a data URL and returns
// the payload with its MIME type. Bare payloads default to JPEG.
func decodeImagePayload(raw string) (data, mimeType string) {
	if !strings.HasPrefix(raw, "data:") {
		return raw, "image/jpeg"
	}

	meta, payload, ok := strings.Cut(raw, ",")
	if !ok {
		return raw, "image/jpeg"
	}

	mimeType = strings.TrimPrefix(meta, "data:")
	mimeType = strings.TrimSuffix(mimeType, ";base64")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return payload, mimeType
}
