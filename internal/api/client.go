package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fieldsync/internal/config"
)

// ErrNotAuthenticated indicates no usable session is available, either because
// the token provider has nothing to offer or because the server rejected the
// credentials.
var ErrNotAuthenticated = errors.New("not authenticated")

// errorBodyLimit bounds how much of an error response body is kept for
// failure messages.
const errorBodyLimit = 2048

// TokenProvider supplies the current session token. Implementations report
// ErrNotAuthenticated (or an empty token) when no session exists.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// HTTPDoer describes the HTTP client used by the API client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs authenticated requests against the inspection service.
type Client struct {
	baseURL string
	tokens  TokenProvider
	client  HTTPDoer
}

// NewClient builds a client from application config.
func NewClient(cfg *config.Config, tokens TokenProvider) *Client {
	timeout := time.Duration(cfg.API.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewClientWithDoer builds a client with an explicit HTTP doer (used in tests).
func NewClientWithDoer(baseURL string, tokens TokenProvider, doer HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:  tokens,
		client:  doer,
	}
}

// Authenticated reports whether a usable session token is available without
// performing a remote call.
func (c *Client) Authenticated(ctx context.Context) bool {
	if c == nil || c.tokens == nil {
		return false
	}
	token, err := c.tokens.Token(ctx)
	return err == nil && strings.TrimSpace(token) != ""
}

// StatusError carries a non-2xx response for callers that need the code, such
// as delete-by-id treating 404 as success.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, body)
}

// DoJSON sends a JSON request and decodes a JSON response into out when out is
// non-nil. Non-2xx responses become *StatusError; 401 and 403 additionally
// match ErrNotAuthenticated.
func (c *Client) DoJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// Delete issues a DELETE request. The caller inspects *StatusError for codes
// it treats as success.
func (c *Client) Delete(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// FilePart names one file to attach to a multipart request.
type FilePart struct {
	Field string
	Path  string
}

// DoMultipart sends scalar fields plus file attachments as multipart
// form data.
func (c *Client) DoMultipart(ctx context.Context, method, path string, fields map[string]string, files []FilePart, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return fmt.Errorf("write field %q: %w", field, err)
		}
	}
	for _, file := range files {
		if err := attachFile(writer, file); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, out)
}

func attachFile(writer *multipart.Writer, file FilePart) error {
	source, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("open image %q: %w", file.Path, err)
	}
	defer source.Close()

	part, err := writer.CreateFormFile(file.Field, filepath.Base(file.Path))
	if err != nil {
		return fmt.Errorf("create form file %q: %w", file.Field, err)
	}
	if _, err := io.Copy(part, source); err != nil {
		return fmt.Errorf("copy image %q: %w", file.Path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("api base url is not configured")
	}
	token, err := c.sessionToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) sessionToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrNotAuthenticated
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNotAuthenticated
	}
	return strings.TrimSpace(token), nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		statusErr := &StatusError{Code: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %w", ErrNotAuthenticated, statusErr)
		}
		return statusErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// QueryPath appends URL query parameters to a path.
func QueryPath(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
