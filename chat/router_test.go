package chat_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/kyawlabs/fin-agent/chat"
	"github.com/kyawlabs/fin-agent/llm"
)

type stubClient struct {
	answer  string
	err     error
	calls   int
	lastReq llm.Request
}

func (s *stubClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

var _ llm.Client = (*stubClient)(nil)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRouteProviderSelection(t *testing.T) {
	cases := []struct {
		name     string
		deepMode bool
		image    string
		want     string
	}{
		{"text only", false, "", chat.ProviderGroq},
		{"deep toggle", true, "", chat.ProviderGemini},
		{"image attached", false, "aW1hZ2U=", chat.ProviderGemini},
		{"deep toggle and image", true, "aW1hZ2U=", chat.ProviderGemini},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fast := &stubClient{answer: "fast answer"}
			deep := &stubClient{answer: "deep answer"}
			router := chat.NewRouter(fast, deep, discard())

			reply, err := router.Route(context.Background(), chat.Request{
				Message:  "What is the MMK exchange policy?",
				DeepMode: tc.deepMode,
				Image:    tc.image,
			}, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if reply.Provider != tc.want {
				t.Fatalf("expected provider %q, got %q", tc.want, reply.Provider)
			}
			if reply.Text == "" {
				t.Fatal("expected non-empty reply text")
			}

			wantDeepCalls := 0
			if tc.want == chat.ProviderGemini {
				wantDeepCalls = 1
			}
			if deep.calls != wantDeepCalls || fast.calls != 1-wantDeepCalls {
				t.Fatalf("unexpected client calls: fast=%d deep=%d", fast.calls, deep.calls)
			}
		})
	}
}

func TestRouteCompletionFailure(t *testing.T) {
	fast := &stubClient{err: errors.New("rate limited")}
	deep := &stubClient{answer: "should not be used"}
	router := chat.NewRouter(fast, deep, discard())

	reply, err := router.Route(context.Background(), chat.Request{Message: "hello"}, "")
	if !errors.Is(err, chat.ErrCompletionFailed) {
		t.Fatalf("expected ErrCompletionFailed, got %v", err)
	}

	if reply.Provider != chat.ProviderSystem {
		t.Fatalf("expected system provider label, got %q", reply.Provider)
	}
	if reply.Text == "" {
		t.Fatal("expected a human-readable failure message")
	}
	if deep.calls != 0 {
		t.Fatal("failure must not fail over to the alternate provider")
	}
}

func TestRouteBuildsMultimodalParts(t *testing.T) {
	deep := &stubClient{answer: "analysis"}
	router := chat.NewRouter(&stubClient{}, deep, discard())

	_, err := router.Route(context.Background(), chat.Request{
		Message: "What does this chart show?",
		Image:   "data:image/png;base64,cGF5bG9hZA==",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(deep.lastReq.Parts) != 2 {
		t.Fatalf("expected text + image parts, got %d", len(deep.lastReq.Parts))
	}

	image := deep.lastReq.Parts[1]
	if image.Kind != llm.PartImage {
		t.Fatalf("expected image part, got kind %d", image.Kind)
	}
	if image.MIMEType != "image/png" {
		t.Fatalf("expected MIME type from data URL, got %q", image.MIMEType)
	}
	if image.Data != "cGF5bG9hZA==" {
		t.Fatalf("expected data URL prefix stripped, got %q", image.Data)
	}
}

func TestRouteSystemInstructionCarriesContext(t *testing.T) {
	fast := &stubClient{answer: "ok"}
	router := chat.NewRouter(fast, &stubClient{}, discard())

	contextText := "The Central Bank of Myanmar has set a reference rate range."
	if _, err := router.Route(context.Background(), chat.Request{Message: "exchange rate?"}, contextText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(fast.lastReq.System, contextText) {
		t.Fatalf("system instruction missing context: %q", fast.lastReq.System)
	}
}

func TestRouteSystemInstructionRendersWithoutContext(t *testing.T) {
	fast := &stubClient{answer: "ok"}
	router := chat.NewRouter(fast, &stubClient{}, discard())

	if _, err := router.Route(context.Background(), chat.Request{Message: "exchange rate?"}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fast.lastReq.System == "" {
		t.Fatal("expected system instruction even with empty context")
	}
	if !strings.Contains(fast.lastReq.System, "general knowledge") {
		t.Fatalf("expected fallback guidance in system instruction: %q", fast.lastReq.System)
	}
}

func TestRouteForwardsHistory(t *testing.T) {
	fast := &stubClient{answer: "ok"}
	router := chat.NewRouter(fast, &stubClient{}, discard())

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	}
	if _, err := router.Route(context.Background(), chat.Request{Message: "follow-up", History: history}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fast.lastReq.History) != 2 {
		t.Fatalf("expected history forwarded, got %d messages", len(fast.lastReq.History))
	}
}
