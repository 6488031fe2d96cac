// Package chat implements the question/answer exchange between a user-facing
// input and the assistant endpoint.
package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

var (
	// ErrAlreadyResolved is returned when a message is resolved a second time
	ErrAlreadyResolved = errors.New("message already resolved")
	// ErrUnknownMessage is returned when resolving an ID the session never saw
	ErrUnknownMessage = errors.New("unknown message")
)

// Message is a single entry of a chat session.
// Assistant messages start Pending and are resolved exactly once.
type Message struct {
	ID      uuid.UUID
	Text    string
	Sender  Sender
	Pending bool
	Created time.Time
}

// IsUser reports whether the message was typed by the user
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Session is the ordered, append-only message list of one chat.
// It is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	messages []Message
	index    map[uuid.UUID]int
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{
		index: make(map[uuid.UUID]int),
	}
}

func (s *Session) append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
}

// resolve performs the single Pending -> Resolved transition
func (s *Session) resolve(id uuid.UUID, text string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Message{}, ErrUnknownMessage
	}
	if !s.messages[i].Pending {
		return s.messages[i], ErrAlreadyResolved
	}
	s.messages[i].Text = text
	s.messages[i].Pending = false
	return s.messages[i], nil
}

// Messages returns a copy of all messages in append order
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Pending returns the number of unresolved messages
func (s *Session) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.Pending {
			n++
		}
	}
	return n
}

// LastAnswer returns the most recent resolved assistant message
func (s *Session) LastAnswer() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.Sender == SenderAssistant && !m.Pending {
			return m, true
		}
	}
	return Message{}, false
}
