package llm

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

const (
	defaultGeminiModel       = "gemini-2.5-flash"
	geminiTemperature        = 0.3
	geminiMaxOutputTokens    = 4096
	defaultGeminiCallTimeout = 60 * time.Second
)

type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

type geminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiChatContent     `json:"systemInstruction,omitempty"`
	Contents          []geminiChatContent    `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiChatContent struct {
	Role  string           `json:"role,omitempty"`
	Parts []geminiChatPart `json:"parts"`
}

type geminiChatPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiChatContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiClient builds the high-capability completion client. Gemini is
// the only provider that accepts image parts.
func NewGeminiClient(opts GeminiOptions) (Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini client requires GOOGLE_API_KEY")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &geminiClient{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: defaultGeminiCallTimeout,
		},
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, req Request) (string, error) {
	payload := geminiGenerateRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     geminiTemperature,
			MaxOutputTokens: geminiMaxOutputTokens,
		},
	}

	if req.System != "" {
		payload.SystemInstruction = &geminiChatContent{
			Parts: []geminiChatPart{{Text: req.System}},
		}
	}

	for _, msg := range req.History {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		payload.Contents = append(payload.Contents, geminiChatContent{
			Role:  role,
			Parts: []geminiChatPart{{Text: msg.Content}},
		})
	}

	userParts := make([]geminiChatPart, 0, len(req.Parts))
	for _, part := range req.Parts {
		switch part.Kind {
		case PartImage:
			userParts = append(userParts, geminiChatPart{
				InlineData: &geminiInlineData{MIMEType: part.MIMEType, Data: part.Data},
			})
		default:
			userParts = append(userParts, geminiChatPart{Text: part.Text})
		}
	}
	if len(userParts) == 0 {
		return "", fmt.Errorf("gemini request has no user content")
	}
	payload.Contents = append(payload.Contents, geminiChatContent{Role: "user", Parts: userParts})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call gemini generate API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			return "", fmt.Errorf("gemini generate API error: %s", string(data))
		}
		return "", fmt.Errorf("gemini generate API returned status %s", resp.Status)
	}

	var parsed geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini generate error: %s", parsed.Error.Message)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini generate returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}

var _ Client = (*geminiClient)(nil)
