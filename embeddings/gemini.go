package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string
}

type geminiEmbedder struct {
	apiKey    string
	model     string
	dimension int
	baseURL   string
	client    *http.Client
}

type geminiBatchRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiBatchResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiEmbedder builds an Embedder backed by the Gemini embedContent
// API. The returned embedder is safe for concurrent use.
func NewGeminiEmbedder(opts Options) (Embedder, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini embedder requires GOOGLE_API_KEY")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	model := opts.Model
	if model == "" {
		model = "text-embedding-004"
	}

	return &geminiEmbedder{
		apiKey:    opts.APIKey,
		model:     model,
		dimension: opts.Dimension,
		baseURL:   baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (e *geminiEmbedder) Embed(ctx context.Context, texts []string, intent Intent) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := geminiBatchRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		payload.Requests[i] = geminiEmbedRequest{
			Model:    "models/" + e.model,
			Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
			TaskType: string(intent),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini embed request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:batchEmbedContents?key=%s", e.baseURL, e.model, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gemini embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gemini embeddings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			return nil, fmt.Errorf("gemini embeddings API error: %s", string(data))
		}
		return nil, fmt.Errorf("gemini embeddings API returned status %s", resp.Status)
	}

	var parsed geminiBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode gemini embed response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("gemini embeddings error: %s", parsed.Error.Message)
	}

	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(parsed.Embeddings))
	}

	results := make([][]float32, len(parsed.Embeddings))
	for i, datum := range parsed.Embeddings {
		if e.dimension > 0 && len(datum.Values) != e.dimension {
			return nil, fmt.Errorf("gemini embedding dimension mismatch: expected %d, got %d", e.dimension, len(datum.Values))
		}
		results[i] = datum.Values
	}

	return results, nil
}

var _ Embedder = (*geminiEmbedder)(nil)
