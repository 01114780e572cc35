// Package client talks to the Oppuss HTTP API. A signed-in Client satisfies
// the store gateway interfaces, so the reactive stores run unchanged against
// a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/yukikurage/oppuss/internal/dto"
	apierrors "github.com/yukikurage/oppuss/internal/errors"
	"github.com/yukikurage/oppuss/internal/logging"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request. Photo uploads and imports carry
// inline images, so it is generous.
const DefaultTimeout = 60 * time.Second

// Client is an HTTP client for the API. The session cookie is kept in a
// cookie jar; the signed-in user is cached after Login, Signup or Me.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu   sync.RWMutex
	user *dto.UserDTO
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar is replaced when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(log) }
}

// New creates a client for the API at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// CurrentUserID reports the signed-in user.
func (c *Client) CurrentUserID() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return "", false
	}
	return c.user.ID, true
}

// User returns the cached signed-in user, if any.
func (c *Client) User() (dto.UserDTO, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return dto.UserDTO{}, false
	}
	return *c.user, true
}

func (c *Client) setUser(u *dto.UserDTO) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

// Signup creates an account. It does not sign in.
func (c *Client) Signup(ctx context.Context, email, name, password string) (*dto.UserDTO, error) {
	body := map[string]string{"email": email, "name": name, "password": password}

	var user dto.UserDTO
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", body, &user); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &user, nil
}

// Login signs in and keeps the session cookie for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.UserDTO, error) {
	body := map[string]string{"email": email, "password": password}

	var user dto.UserDTO
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &user); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.setUser(&user)
	return &user, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.setUser(nil)
	return nil
}

// Me fetches the signed-in user and refreshes the cache. A 401 clears it.
func (c *Client) Me(ctx context.Context) (*dto.UserDTO, error) {
	var user dto.UserDTO
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			c.setUser(nil)
		}
		return nil, fmt.Errorf("me: %w", err)
	}
	c.setUser(&user)
	return &user, nil
}

// IsStatus reports whether err carries an API error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *apierrors.APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, "application/json", body, out)
}

// do sends a request and decodes a 2xx JSON body into out. Other statuses
// come back as *apierrors.APIError.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api response", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &apierrors.APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
		apiErr.Code = apierrors.ErrCodeInternalError
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
