// Package conversation owns the chat message log and the controllers that
// mutate it: query submission and answer feedback. The store is the single
// shared mutable resource between components; the rendering layer only
// reads snapshots.
package conversation

import (
	"time"

	"github.com/ops-agent/cli/internal/agent"
	"github.com/ops-agent/cli/internal/imaging"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Feedback is the user's verdict on a resolved answer. Once set it can be
// toggled between solved and unsolved but never back to unset.
type Feedback string

const (
	FeedbackUnset    Feedback = ""
	FeedbackSolved   Feedback = "solved"
	FeedbackUnsolved Feedback = "unsolved"
)

// Message is one conversation entry. User messages are final on creation;
// the paired assistant message starts as a placeholder and is mutated in
// place when the remote call resolves or fails.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Image     imaging.EncodedImage
	Sources   []agent.Source
	Feedback  Feedback
	Timestamp time.Time

	// QuestionID is the server-assigned identifier tying the answer back
	// to feedback submission. Empty until resolution.
	QuestionID string
}
