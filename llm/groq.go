package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultGroqModel = "llama-3.3-70b-versatile"
	groqTemperature  = 0.5
	groqMaxTokens    = 1024
)

type GroqOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

type groqClient struct {
	client *openai.Client
	model  string
}

// NewGroqClient builds the low-latency completion client. Groq exposes an
// OpenAI-compatible API, so the stock OpenAI client is pointed at its
// endpoint. Image parts are rejected; route multimodal requests to Gemini.
func NewGroqClient(opts GroqOptions) (Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("groq client requires GROQ_API_KEY")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}

	model := opts.Model
	if model == "" {
		model = defaultGroqModel
	}

	return &groqClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (c *groqClient) Complete(ctx context.Context, req Request) (string, error) {
	var userText strings.Builder
	for _, part := range req.Parts {
		if part.Kind == PartImage {
			return "", fmt.Errorf("groq does not accept image content")
		}
		userText.WriteString(part.Text)
	}
	if userText.Len() == 0 {
		return "", fmt.Errorf("groq request has no user content")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText.String(),
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: groqTemperature,
		MaxTokens:   groqMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("create groq chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

var _ Client = (*groqClient)(nil)
