package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kyawlabs/fin-agent/llm"
)

func TestGroqClientCompletes(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Quick answer."}}]}`))
	}))
	defer ts.Close()

	client, err := llm.NewGroqClient(llm.GroqOptions{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	answer, err := client.Complete(context.Background(), llm.Request{
		System: "You are a helpful financial assistant.",
		Parts:  []llm.Part{llm.TextPart("What moved the kyat today?")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Quick answer." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	if captured["model"] != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected model: %v", captured["model"])
	}

	messages := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(messages))
	}
	if messages[0].(map[string]any)["role"] != "system" {
		t.Fatalf("expected system message first, got %v", messages[0])
	}
}

func TestGroqClientRejectsImageParts(t *testing.T) {
	client, err := llm.NewGroqClient(llm.GroqOptions{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Complete(context.Background(), llm.Request{
		Parts: []llm.Part{
			llm.TextPart("describe this"),
			llm.ImagePart("cGF5bG9hZA==", "image/jpeg"),
		},
	})
	if err == nil {
		t.Fatal("expected error for image content")
	}
}

func TestGroqClientRequiresAPIKey(t *testing.T) {
	if _, err := llm.NewGroqClient(llm.GroqOptions{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
