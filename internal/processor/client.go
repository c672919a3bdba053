// Package processor talks to the resume processing API.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resume-portal/internal/identity"
)

const maxBodyBytes = 4 << 20

// TokenSource mints bearer tokens for the signed-in user.
type TokenSource interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// APIError is a non-2xx response or a response whose success flag is false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// NetworkError is a transport failure before any response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProcessResult is the body of a successful POST /process_resume.
type ProcessResult struct {
	Success     *bool  `json:"success"`
	UserName    string `json:"user_name"`
	CompanyName string `json:"company_name"`
}

// Client calls the processing API on behalf of one session.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// New builds a client. httpClient may be nil. No timeout is set on the
// default client: processing can take minutes and is bounded by ctx.
func New(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    httpClient,
	}
}

// ProcessResume submits a resume locator and a job description URL.
func (c *Client) ProcessResume(ctx context.Context, resumeURL, jobDescriptionURL string) (ProcessResult, error) {
	token, err := c.token(ctx, false)
	if err != nil {
		return ProcessResult{}, err
	}
	payload, err := json.Marshal(map[string]string{
		"resume_firebase_url": resumeURL,
		"job_description_url": jobDescriptionURL,
	})
	if err != nil {
		return ProcessResult{}, err
	}
	body, status, err := c.do(ctx, http.MethodPost, "/process_resume", token, bytes.NewReader(payload))
	if err != nil {
		return ProcessResult{}, err
	}
	if status < 200 || status >= 300 {
		return ProcessResult{}, &APIError{Status: status, Message: errorMessage(body, status)}
	}
	var out ProcessResult
	if err := json.Unmarshal(body, &out); err != nil {
		return ProcessResult{}, &APIError{Status: status, Message: "unexpected response from processing service"}
	}
	if out.Success != nil && !*out.Success {
		return ProcessResult{}, &APIError{Status: status, Message: errorMessage(body, status)}
	}
	return out, nil
}

type processedResponse struct {
	Success *bool      `json:"success"`
	Files   []Artifact `json:"files"`
}

// ListProcessed returns the user's generated artifacts in server order.
func (c *Client) ListProcessed(ctx context.Context) ([]Artifact, error) {
	token, err := c.token(ctx, false)
	if err != nil {
		return nil, err
	}
	body, status, err := c.do(ctx, http.MethodGet, "/user_processed_resumes", token, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{Status: status, Message: errorMessage(body, status)}
	}
	var out processedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &APIError{Status: status, Message: "unexpected response from processing service"}
	}
	if out.Success != nil && !*out.Success {
		return nil, &APIError{Status: status, Message: errorMessage(body, status)}
	}
	if out.Files == nil {
		out.Files = []Artifact{}
	}
	return out.Files, nil
}

// Call performs a GET on path. With requiresAuth it attaches a force-refreshed
// token and fails before any request when there is no session. The decoded
// JSON body is returned; a non-JSON body is returned as a string.
func (c *Client) Call(ctx context.Context, path string, requiresAuth bool) (any, error) {
	token := ""
	if requiresAuth {
		var err error
		if token, err = c.token(ctx, true); err != nil {
			return nil, err
		}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	body, status, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{Status: status, Message: errorMessage(body, status)}
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	return out, nil
}

func (c *Client) token(ctx context.Context, force bool) (string, error) {
	if c.tokens == nil {
		return "", identity.NotSignedIn()
	}
	token, err := c.tokens.Token(ctx, force)
	if err != nil {
		var authErr *identity.AuthenticationError
		if errors.As(err, &authErr) {
			return "", err
		}
		return "", identity.NewAuthError("Could not obtain a session token.", err)
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &NetworkError{Op: method + " " + path, Err: err}
	}
	return data, resp.StatusCode, nil
}

// errorMessage extracts detail or message from a JSON error body, falling
// back to the raw text and then the status text.
func errorMessage(body []byte, status int) string {
	var parsed struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := detailText(parsed.Detail); msg != "" {
			return msg
		}
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// detailText handles both the string form of detail and the list of
// validation errors form.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
