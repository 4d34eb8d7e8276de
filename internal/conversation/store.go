package conversation

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ops-agent/cli/internal/agent"
	"github.com/ops-agent/cli/internal/imaging"
)

// Persister receives every append and in-place update, e.g. to mirror the
// log into local history. Persister failures never surface to the user.
type Persister interface {
	Append(msg Message) error
	Update(msg Message) error
}

// Store is the ordered conversation log. Insertion order is display order;
// the log is append-only except for in-place mutation of a message during
// resolution. Message ids are unique for the lifetime of the store and are
// never reused, even after content replacement.
type Store struct {
	mu       sync.RWMutex
	messages []Message
	index    map[string]int // id -> position

	persister Persister
	onChange  func()
}

// NewStore creates an empty conversation log.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// SetPersister installs the history mirror.
func (s *Store) SetPersister(p Persister) {
	s.mu.Lock()
	s.persister = p
	s.mu.Unlock()
}

// SetOnChange installs a redraw hook invoked after every mutation.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// AppendUserMessage appends a user entry. It is synchronous and always
// succeeds; the id is locally unique and the timestamp is now.
func (s *Store) AppendUserMessage(content string, image imaging.EncodedImage) Message {
	return s.append(Message{
		Role:    RoleUser,
		Content: content,
		Image:   image,
	})
}

// AppendAssistantMessage appends an assistant entry, used both for
// placeholder content and for final resolved content.
func (s *Store) AppendAssistantMessage(content string, sources []agent.Source, questionID string) Message {
	return s.append(Message{
		Role:       RoleAssistant,
		Content:    content,
		Sources:    sources,
		QuestionID: questionID,
	})
}

func (s *Store) append(msg Message) Message {
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()

	s.mu.Lock()
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	persister := s.persister
	onChange := s.onChange
	s.mu.Unlock()

	if persister != nil {
		if err := persister.Append(msg); err != nil {
			log.Printf("history append failed: %v", err)
		}
	}
	if onChange != nil {
		onChange()
	}
	return msg
}

// Update applies patch to the message with the given id, atomically with
// respect to readers. Identity and position are preserved: the id, role,
// and timestamp survive whatever the patch does. Returns false for an
// unknown id.
func (s *Store) Update(id string, patch func(*Message)) bool {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	msg := &s.messages[pos]
	role, ts := msg.Role, msg.Timestamp
	patch(msg)
	msg.ID, msg.Role, msg.Timestamp = id, role, ts
	updated := *msg
	persister := s.persister
	onChange := s.onChange
	s.mu.Unlock()

	if persister != nil {
		if err := persister.Update(updated); err != nil {
			log.Printf("history update failed: %v", err)
		}
	}
	if onChange != nil {
		onChange()
	}
	return true
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[pos], true
}

// All returns a snapshot of the log for rendering. The caller must not
// mutate the result.
func (s *Store) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Restore replaces the log with previously persisted messages, bypassing
// the persister. Used once at startup.
func (s *Store) Restore(msgs []Message) {
	s.mu.Lock()
	s.messages = make([]Message, len(msgs))
	copy(s.messages, msgs)
	s.index = make(map[string]int, len(msgs))
	for i, m := range s.messages {
		s.index[m.ID] = i
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Reset clears the conversation. This is the only way messages are ever
// removed.
func (s *Store) Reset() {
	s.Restore(nil)
}
