package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/kyawlabs/fin-agent/llm"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// Message is one entry in a session log. Messages are immutable once
// appended.
type Message struct {
	ID        uuid.UUID
	Sender    Sender
	Text      string
	Timestamp time.Time
	Provider  string // which backend produced an assistant message
	Image     string // base64 payload attached to a user message
}

// Session is an append-only, in-memory conversation log. It is not
// persisted: state lives only for the lifetime of the process. Sessions are
// not safe for concurrent use; each caller owns its own.
type Session struct {
	messages []Message
}

func NewSession() *Session {
	return &Session{}
}

// Append stamps the message with a fresh ID and the current time, then adds
// it to the log. The stored copy is returned.
func (s *Session) Append(msg Message) Message {
	msg.ID = uuid.New()
	msg.Timestamp = time.Now()
	s.messages = append(s.messages, msg)
	return msg
}

// Messages returns a copy of the log in append order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Len() int {
	return len(s.messages)
}

// History maps the user and assistant turns into provider messages for the
// next completion request. System entries (error notices) are skipped.
func (s *Session) History() []llm.Message {
	history := make([]llm.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		switch msg.Sender {
		case SenderUser:
			history = append(history, llm.Message{Role: llm.RoleUser, Content: msg.Text})
		case SenderAssistant:
			history = append(history, llm.Message{Role: llm.RoleAssistant, Content: msg.Text})
		}
	}
	return history
}
