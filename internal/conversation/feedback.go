package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrUnknownMessage is returned when feedback targets an id the store does
// not hold.
var ErrUnknownMessage = errors.New("unknown message")

// FeedbackService is the remote surface feedback needs. *agent.Client
// satisfies it.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, questionID, status string) error
}

// FeedbackController attaches solved/unsolved verdicts to resolved
// assistant messages. The local update is optimistic and unconditional; the
// remote notification is best effort and its failure never rolls the local
// phase back.
type FeedbackController struct {
	store *Store
	svc   FeedbackService
}

// NewFeedbackController creates a controller bound to a store and a
// service.
func NewFeedbackController(store *Store, svc FeedbackService) *FeedbackController {
	return &FeedbackController{store: store, svc: svc}
}

// Submit records the verdict locally, then notifies the service keyed by
// the message's server-assigned question id. A message with no question id
// (never round-tripped) only gets the local update.
func (c *FeedbackController) Submit(ctx context.Context, messageID string, verdict Feedback) error {
	if verdict != FeedbackSolved && verdict != FeedbackUnsolved {
		return fmt.Errorf("invalid feedback verdict %q", verdict)
	}

	msg, ok := c.store.Get(messageID)
	if !ok {
		return ErrUnknownMessage
	}

	c.store.Update(messageID, func(m *Message) {
		m.Feedback = verdict
	})

	if msg.QuestionID == "" {
		return nil
	}

	if err := c.svc.SubmitFeedback(ctx, msg.QuestionID, string(verdict)); err != nil {
		// Swallowed: the local marker stands regardless.
		log.Printf("feedback notification failed: %v", err)
	}
	return nil
}
