// Package llm abstracts the hosted chat-completion providers behind a single
// client interface. User content is a sequence of tagged parts so multimodal
// providers receive inline images while text-only providers can refuse them.
package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type PartKind int

const (
	PartText PartKind = iota
	PartImage
)

// Part is one piece of user content: either text or inline image data.
type Part struct {
	Kind     PartKind
	Text     string
	Data     string // base64-encoded image payload
	MIMEType string
}

func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

func ImagePart(data, mimeType string) Part {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Part{Kind: PartImage, Data: data, MIMEType: mimeType}
}

// Message is one prior conversation turn.
type Message struct {
	Role    string
	Content string
}

// Request carries everything a provider needs for one completion: the system
// instruction, prior turns, and the current user content parts.
type Request struct {
	System  string
	History []Message
	Parts   []Part
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
