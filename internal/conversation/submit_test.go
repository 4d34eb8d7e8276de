package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ops-agent/cli/internal/agent"
	"github.com/ops-agent/cli/internal/imaging"
)

// fakeService scripts the remote answering surface and records every call.
type fakeService struct {
	mu        sync.Mutex
	questions []string
	images    []imaging.EncodedImage
	uploads   []string

	answer    *agent.Answer
	err       error
	uploadErr error

	// block, when set, holds SubmitQuery until released.
	block chan struct{}
}

func (f *fakeService) SubmitQuery(ctx context.Context, question string, image imaging.EncodedImage) (*agent.Answer, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.images = append(f.images, image)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &agent.Answer{Answer: "ok"}, nil
}

func (f *fakeService) UploadDocument(ctx context.Context, path string) error {
	f.mu.Lock()
	f.uploads = append(f.uploads, path)
	f.mu.Unlock()
	return f.uploadErr
}

func (f *fakeService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.questions)
}

func TestSubmit_TextOnly(t *testing.T) {
	store := NewStore()
	svc := &fakeService{answer: &agent.Answer{
		Answer:     "Check the uplink port.",
		QuestionID: "q-7",
		Sources:    []agent.Source{{Filename: "network.md", ID: "src-1"}},
	}}
	c := NewSubmissionController(store, svc)

	err := c.Submit(context.Background(), "router offline", "")
	require.NoError(t, err)

	// The remote call sees the trimmed question and no image.
	require.Equal(t, []string{"router offline"}, svc.questions)
	assert.Empty(t, svc.images[0])

	msgs := store.All()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "router offline", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Check the uplink port.", msgs[1].Content)
	assert.Equal(t, "q-7", msgs[1].QuestionID)
	require.Len(t, msgs[1].Sources, 1)
	assert.Equal(t, "network.md", msgs[1].Sources[0].Filename)
	assert.Equal(t, AttemptResolved, c.State())
}

func TestSubmit_ImageOnlyUsesDefaultQuestion(t *testing.T) {
	store := NewStore()
	svc := &fakeService{}
	c := NewSubmissionController(store, svc)

	img := imaging.EncodedImage("data:image/png;base64,AAAA")
	err := c.Submit(context.Background(), "   ", img)
	require.NoError(t, err)

	require.Equal(t, []string{DefaultImageQuestion}, svc.questions)
	assert.Equal(t, img, svc.images[0])

	// The stored user message keeps what the user actually typed (nothing).
	assert.Equal(t, "", store.All()[0].Content)
	assert.Equal(t, img, store.All()[0].Image)
}

func TestSubmit_EmptyRejected(t *testing.T) {
	c := NewSubmissionController(NewStore(), &fakeService{})
	err := c.Submit(context.Background(), "   \n ", "")
	assert.ErrorIs(t, err, ErrEmptySubmission)
}

func TestSubmit_FailureRendersDetail(t *testing.T) {
	store := NewStore()
	svc := &fakeService{err: &agent.APIError{StatusCode: 429, Detail: "quota exceeded"}}
	c := NewSubmissionController(store, svc)

	err := c.Submit(context.Background(), "why is the disk full", "")
	require.Error(t, err)

	msgs := store.All()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "quota exceeded")
	assert.Contains(t, msgs[1].Content, "**Error**")
	assert.Empty(t, msgs[1].Sources)
	assert.Equal(t, AttemptFailed, c.State())
}

func TestSubmit_FailureFallsBackToErrorString(t *testing.T) {
	store := NewStore()
	svc := &fakeService{err: fmt.Errorf("connection refused")}
	c := NewSubmissionController(store, svc)

	_ = c.Submit(context.Background(), "anything", "")

	assert.Contains(t, store.All()[1].Content, "connection refused")
}

func TestSubmit_PlaceholderAppearsBeforeResolution(t *testing.T) {
	store := NewStore()
	svc := &fakeService{block: make(chan struct{})}
	c := NewSubmissionController(store, svc)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "slow one", "") }()

	// Wait for the in-flight state: user message + placeholder are already
	// inserted before the remote call resolves.
	require.Eventually(t, func() bool { return store.Len() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "Thinking...", store.All()[1].Content)
	assert.True(t, c.Busy())

	close(svc.block)
	require.NoError(t, <-done)
	assert.Equal(t, "ok", store.All()[1].Content)
	assert.False(t, c.Busy())
}

func TestSubmit_GuardRejectsConcurrentAttempt(t *testing.T) {
	store := NewStore()
	svc := &fakeService{block: make(chan struct{})}
	c := NewSubmissionController(store, svc)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "first", "") }()
	require.Eventually(t, func() bool { return c.Busy() }, time.Second, time.Millisecond)

	err := c.Submit(context.Background(), "second", "")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	// The rejected attempt left no trace in the conversation.
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, svc.calls())

	close(svc.block)
	require.NoError(t, <-done)
}

func TestSubmit_SequentialPairsStayOrdered(t *testing.T) {
	store := NewStore()
	svc := &fakeService{}
	c := NewSubmissionController(store, svc)

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, c.Submit(context.Background(), fmt.Sprintf("question %d", i), ""))
	}

	msgs := store.All()
	require.Len(t, msgs, 2*n)
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("question %d", i), msgs[2*i].Content)
		assert.Equal(t, RoleUser, msgs[2*i].Role)
		assert.Equal(t, RoleAssistant, msgs[2*i+1].Role)
	}
}

func TestUploadDocument_ProgressMessageMutatedInPlace(t *testing.T) {
	store := NewStore()
	svc := &fakeService{}
	c := NewSubmissionController(store, svc)

	require.NoError(t, c.UploadDocument(context.Background(), "/tmp/guide.pdf"))

	require.Equal(t, []string{"/tmp/guide.pdf"}, svc.uploads)
	msgs := store.All()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "guide.pdf")
	assert.Contains(t, msgs[0].Content, "added to the knowledge base")
}

func TestUploadDocument_FailureMutatedInPlace(t *testing.T) {
	store := NewStore()
	svc := &fakeService{uploadErr: &agent.APIError{StatusCode: 422, Detail: "unsupported file type"}}
	c := NewSubmissionController(store, svc)

	err := c.UploadDocument(context.Background(), "/tmp/broken.bin")
	require.Error(t, err)

	msgs := store.All()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "unsupported file type")
	assert.Contains(t, msgs[0].Content, "broken.bin")
}
