// Package client talks to the site API the way the admin blog panel does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/rpupo63/fadarc-site-backend/models"
)

const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details"`
	Field      string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// TokenStore keeps the admin session token between calls.
type TokenStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func (s *MemoryTokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryTokenStore) Clear() { s.SetToken("") }

// BlogPostInput is the body of a create request.
type BlogPostInput struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Excerpt   string  `json:"excerpt"`
	ImageURL  *string `json:"imageUrl,omitempty"`
	Category  string  `json:"category"`
	Published bool    `json:"published"`
}

type UploadResult struct {
	ImageURL string `json:"imageUrl"`
	FileID   int64  `json:"fileId"`
	Message  string `json:"message"`
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

func WithTokenStore(s TokenStore) Option {
	return func(cl *Client) { cl.tokens = s }
}

// New builds a client for the API at baseURL. Every request is bounded by DefaultTimeout unless overridden.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  &MemoryTokenStore{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Tokens() TokenStore { return c.tokens }

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// a body that is not JSON leaves only the status code
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, method, path, "application/json", body, out)
}

func (c *Client) ListPublished(ctx context.Context) ([]models.BlogPost, error) {
	posts := make([]models.BlogPost, 0)
	err := c.doJSON(ctx, http.MethodGet, "/api/blog", nil, &posts)
	return posts, err
}

func (c *Client) GetPost(ctx context.Context, id int64) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/blog/%d", id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) CreatePost(ctx context.Context, in BlogPostInput) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := c.doJSON(ctx, http.MethodPost, "/api/blog", in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id int64, patch models.BlogPostPatch) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/blog/%d", id), patch, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/blog/%d", id), nil, nil)
}

// UploadImage posts data as the "image" multipart field.
func (c *Client) UploadImage(ctx context.Context, fileName, mimeType string, data []byte) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, fileName))
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	var result UploadResult
	if err := c.do(ctx, http.MethodPost, "/api/upload/blog-image", mw.FormDataContentType(), &body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login exchanges the admin password for a session token and stores it.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/login", map[string]string{"password": password}, &resp); err != nil {
		return "", err
	}
	c.tokens.SetToken(resp.Token)
	return resp.Token, nil
}

// Verify asks the API whether the stored token is still valid.
func (c *Client) Verify(ctx context.Context) (bool, error) {
	if c.tokens.Token() == "" {
		return false, nil
	}
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/api/admin/verify", nil, &resp)
	if IsStatus(err, http.StatusUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}
