package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kyawlabs/fin-agent/llm"
)

func TestGeminiClientBuildsMultimodalRequest(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"The chart shows "},{"text":"a rate spike."}]}}]}`))
	}))
	defer ts.Close()

	client, err := llm.NewGeminiClient(llm.GeminiOptions{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	answer, err := client.Complete(context.Background(), llm.Request{
		System: "You are a Senior Financial Analyst.",
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "earlier question"},
			{Role: llm.RoleAssistant, Content: "earlier answer"},
		},
		Parts: []llm.Part{
			llm.TextPart("What does this chart show?"),
			llm.ImagePart("cGF5bG9hZA==", "image/png"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer != "The chart shows a rate spike." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	system, ok := captured["systemInstruction"].(map[string]any)
	if !ok {
		t.Fatalf("missing systemInstruction in payload: %v", captured)
	}
	parts := system["parts"].([]any)
	if parts[0].(map[string]any)["text"] != "You are a Senior Financial Analyst." {
		t.Fatalf("unexpected system instruction: %v", parts)
	}

	contents := captured["contents"].([]any)
	if len(contents) != 3 {
		t.Fatalf("expected history + user turn, got %d contents", len(contents))
	}

	assistantTurn := contents[1].(map[string]any)
	if assistantTurn["role"] != "model" {
		t.Fatalf("expected assistant history mapped to model role, got %v", assistantTurn["role"])
	}

	userTurn := contents[2].(map[string]any)
	userParts := userTurn["parts"].([]any)
	if len(userParts) != 2 {
		t.Fatalf("expected 2 user parts, got %d", len(userParts))
	}
	inline := userParts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/png" || inline["data"] != "cGF5bG9hZA==" {
		t.Fatalf("unexpected inline data: %v", inline)
	}
}

func TestGeminiClientSurfacesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer ts.Close()

	client, err := llm.NewGeminiClient(llm.GeminiOptions{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Complete(context.Background(), llm.Request{Parts: []llm.Part{llm.TextPart("hi")}}); err == nil {
		t.Fatal("expected error for non-success status")
	}
}

func TestGeminiClientRequiresAPIKey(t *testing.T) {
	if _, err := llm.NewGeminiClient(llm.GeminiOptions{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestGeminiClientRequiresUserContent(t *testing.T) {
	client, err := llm.NewGeminiClient(llm.GeminiOptions{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Complete(context.Background(), llm.Request{}); err == nil {
		t.Fatal("expected error for request without parts")
	}
}
