package agent

import "fmt"

// Source is one cited document backing an answer.
type Source struct {
	Filename string `json:"filename"`
	ID       string `json:"id,omitempty"`
}

// Answer is the answering service's response to a submitted question.
type Answer struct {
	Answer     string   `json:"answer"`
	QuestionID string   `json:"question_id,omitempty"`
	Sources    []Source `json:"sources,omitempty"`
}

// QueryRequest is the payload for answer submission.
type QueryRequest struct {
	Question string `json:"question"`
	Image    string `json:"image,omitempty"`
}

// FeedbackRequest marks a resolved question solved or unsolved.
type FeedbackRequest struct {
	QuestionID string `json:"question_id"`
	Status     string `json:"status"`
}

// APIError is a structured error response from the service, carrying the
// human-readable detail string the UI renders.
type APIError struct {
	StatusCode int
	Detail     string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server error: %d", e.StatusCode)
}
