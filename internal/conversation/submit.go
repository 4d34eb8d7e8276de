package conversation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ops-agent/cli/internal/agent"
	"github.com/ops-agent/cli/internal/imaging"
)

// DefaultImageQuestion is substituted when the user submits an image with
// no text: an image-only submission means "analyze this image".
const DefaultImageQuestion = "Please analyze this image"

// thinkingPlaceholder is the assistant content shown while a call is in
// flight.
const thinkingPlaceholder = "Thinking..."

var (
	// ErrSubmissionInFlight is returned while a previous attempt has not
	// resolved yet; concurrent submissions are disallowed by design.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrEmptySubmission is returned when there is neither trimmed text nor
	// an image to send.
	ErrEmptySubmission = errors.New("nothing to submit")
)

// AttemptState tracks a single submission attempt.
type AttemptState int

const (
	AttemptComposing AttemptState = iota
	AttemptSubmitting
	AttemptResolved
	AttemptFailed
)

// AnswerService is the remote surface the submission flow depends on.
// *agent.Client satisfies it.
type AnswerService interface {
	SubmitQuery(ctx context.Context, question string, image imaging.EncodedImage) (*agent.Answer, error)
	UploadDocument(ctx context.Context, path string) error
}

// SubmissionController drives the conversation through a submission
// attempt: append the user message, append the assistant placeholder, issue
// the remote call, and resolve or fail the placeholder in place. At most
// one attempt is in flight at a time.
type SubmissionController struct {
	store *Store
	svc   AnswerService

	mu       sync.Mutex
	inFlight bool
	state    AttemptState
}

// NewSubmissionController creates a controller bound to a store and a
// service.
func NewSubmissionController(store *Store, svc AnswerService) *SubmissionController {
	return &SubmissionController{store: store, svc: svc}
}

// Busy reports whether an attempt is currently in flight.
func (c *SubmissionController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// State returns the state of the current or most recent attempt.
func (c *SubmissionController) State() AttemptState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one submission attempt to completion. The user message is
// appended before the remote call is issued and the paired assistant
// message is updated strictly after. On failure the attempt is terminal:
// the error is rendered into the conversation and also returned for
// logging; there is no automatic retry and no cancellation of the in-flight
// call beyond ctx.
func (c *SubmissionController) Submit(ctx context.Context, text string, image imaging.EncodedImage) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && image == "" {
		return ErrEmptySubmission
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.inFlight = true
	c.state = AttemptSubmitting
	c.mu.Unlock()

	question := trimmed
	if question == "" {
		question = DefaultImageQuestion
	}

	c.store.AppendUserMessage(trimmed, image)
	placeholder := c.store.AppendAssistantMessage(thinkingPlaceholder, nil, "")

	answer, err := c.svc.SubmitQuery(ctx, question, image)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.state = AttemptFailed
	} else {
		c.state = AttemptResolved
	}
	c.mu.Unlock()

	if err != nil {
		detail := errorDetail(err)
		c.store.Update(placeholder.ID, func(m *Message) {
			m.Content = fmt.Sprintf("**Error**: %s. Please try again later.", detail)
			m.Sources = nil
		})
		return err
	}

	c.store.Update(placeholder.ID, func(m *Message) {
		m.Content = answer.Answer
		m.Sources = answer.Sources
		m.QuestionID = answer.QuestionID
	})
	return nil
}

// errorDetail prefers the server's structured detail string and falls back
// to the plain error message.
func errorDetail(err error) string {
	var apiErr *agent.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}

// UploadDocument pushes a file into the knowledge base, narrating progress
// through an assistant message that is mutated in place on completion.
func (c *SubmissionController) UploadDocument(ctx context.Context, path string) error {
	name := filepath.Base(path)
	progress := c.store.AppendAssistantMessage(
		fmt.Sprintf("Uploading document **%s**...", name), nil, "")

	if err := c.svc.UploadDocument(ctx, path); err != nil {
		c.store.Update(progress.ID, func(m *Message) {
			m.Content = fmt.Sprintf("**Error**: failed to upload %s: %s", name, errorDetail(err))
		})
		return err
	}

	c.store.Update(progress.ID, func(m *Message) {
		m.Content = fmt.Sprintf("Document **%s** was added to the knowledge base.", name)
	})
	return nil
}
