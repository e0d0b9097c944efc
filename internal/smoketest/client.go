package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/notecache/internal/domain/types"
)

// Response is a status code and body read in full.
type Response struct {
	Status int
	Body   string
}

// Client calls the note endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health calls /healthz.
func (c *Client) Health(ctx context.Context) (Response, error) {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "")
}

// Create posts a two-field multipart form to /write.
func (c *Client) Create(ctx context.Context, name, text string) (Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("note_name", name); err != nil {
		return Response{}, fmt.Errorf("write form: %w", err)
	}
	if err := w.WriteField("note", text); err != nil {
		return Response{}, fmt.Errorf("write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return Response{}, fmt.Errorf("write form: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/write", &buf, w.FormDataContentType())
}

// Get reads a note.
func (c *Client) Get(ctx context.Context, name string) (Response, error) {
	return c.do(ctx, http.MethodGet, notePath(name), nil, "")
}

// Update overwrites a note with a raw text body.
func (c *Client) Update(ctx context.Context, name, text string) (Response, error) {
	return c.do(ctx, http.MethodPut, notePath(name), strings.NewReader(text), "text/plain; charset=utf-8")
}

// Delete removes a note.
func (c *Client) Delete(ctx context.Context, name string) (Response, error) {
	return c.do(ctx, http.MethodDelete, notePath(name), nil, "")
}

// List returns every listed note.
func (c *Client) List(ctx context.Context) ([]types.Note, error) {
	resp, err := c.do(ctx, http.MethodGet, "/notes", nil, "")
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, fmt.Errorf("list: unexpected status %d", resp.Status)
	}
	var notes []types.Note
	if err := json.Unmarshal([]byte(resp.Body), &notes); err != nil {
		return nil, fmt.Errorf("list: decode: %w", err)
	}
	return notes, nil
}

func notePath(name string) string {
	return "/notes/" + url.PathEscape(name)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	return Response{Status: resp.StatusCode, Body: string(b)}, nil
}
