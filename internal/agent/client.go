// Package agent is the HTTP client for the remote ops-agent answering
// service: answer submission, feedback, hot questions, document upload, and
// source download.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ops-agent/cli/internal/imaging"
)

// Client wraps ops-agent API interactions. The auth token is injected at
// construction and replaced or cleared explicitly on login/logout rather
// than looked up ambiently per request.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new service client.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute, // answer generation can be slow
		},
	}
}

// SetToken installs the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken drops the bearer token, e.g. on logout.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) authorize(req *http.Request) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doJSON issues a request and decodes a JSON response into out. Non-2xx
// responses are translated into *APIError with the server's detail string.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	// Detail stays empty on non-JSON bodies; Error() then falls back to the
	// status code.
	_ = json.Unmarshal(data, apiErr)
	return apiErr
}

// SubmitQuery sends a composed question (text plus optional image) and
// returns the answer with its citations and server-assigned question id.
func (c *Client) SubmitQuery(ctx context.Context, question string, image imaging.EncodedImage) (*Answer, error) {
	req := &QueryRequest{
		Question: question,
		Image:    string(image),
	}
	var answer Answer
	if err := c.doJSON(ctx, http.MethodPost, "/get_answer", req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// SubmitFeedback reports a solved/unsolved verdict for a question. Callers
// treat this as fire-and-forget; failures are non-fatal.
func (c *Client) SubmitFeedback(ctx context.Context, questionID, status string) error {
	req := &FeedbackRequest{QuestionID: questionID, Status: status}
	return c.doJSON(ctx, http.MethodPost, "/feedback", req, nil)
}

// HotQuestions fetches frequently asked questions to seed the chat view.
func (c *Client) HotQuestions(ctx context.Context) ([]string, error) {
	var result struct {
		Questions []string `json:"questions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/hot_questions", nil, &result); err != nil {
		return nil, err
	}
	return result.Questions, nil
}

// Login exchanges credentials for a bearer token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := map[string]string{"username": username, "password": password}
	var result struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/login", req, &result); err != nil {
		return "", err
	}
	c.SetToken(result.Token)
	return result.Token, nil
}

// UploadDocument posts a file into the knowledge base as multipart form
// data.
func (c *Client) UploadDocument(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload_doc", &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	// The service reports parse failures in-band with a 200.
	var result struct {
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Detail: result.Error}
	}
	return nil
}

// DownloadSource saves a cited source document to destPath.
func (c *Client) DownloadSource(ctx context.Context, id, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download_source/"+id, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}
