// Package api talks to the remote task service over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
)

// DefaultTimeout bounds each request when the caller does not configure one.
const DefaultTimeout = 10 * time.Second

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Client is a task service client. A Client never changes after
// construction; WithSession returns a new Client bound to a credential.
type Client struct {
	baseURL *url.URL
	base    *http.Client
	http    *http.Client
	token   *oauth2.Token
	log     *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.base = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.log = logging.OrNop(log)
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.base = &http.Client{Timeout: d, Transport: c.base.Transport}
		}
	}
}

// NewClient creates an unauthenticated client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		base:    &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = c.base
	return c, nil
}

// WithSession returns a copy of c whose requests carry the session token as
// a bearer credential.
func (c *Client) WithSession(s model.Session) *Client {
	tok := &oauth2.Token{
		AccessToken: s.Token,
		TokenType:   "bearer",
		Expiry:      TokenExpiry(s.Token),
	}
	out := *c
	out.token = tok
	out.http = &http.Client{
		Timeout: c.base.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(tok),
			Base:   c.base.Transport,
		},
	}
	return &out
}

// Authenticated reports whether the client carries a usable credential.
func (c *Client) Authenticated() bool {
	return c.token != nil && c.token.Valid()
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SignUpRequest is the body of POST /signup.
type SignUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, in SignUpRequest) error {
	return c.do(ctx, http.MethodPost, []string{"signup"}, nil, in, nil)
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var s model.Session
	if err := c.do(ctx, http.MethodPost, []string{"signin"}, nil, body, &s); err != nil {
		return model.Session{}, err
	}
	if s.Token == "" {
		return model.Session{}, fmt.Errorf("%w: sign-in response carries no token", model.ErrAuth)
	}
	return s, nil
}

// ListTasks returns the tasks whose estimate is at or before maxDate, in the
// order the service returns them.
func (c *Client) ListTasks(ctx context.Context, maxDate time.Time) ([]model.Task, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	query := url.Values{"date": {maxDate.Format(model.QueryLayout)}}
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, []string{"tasks"}, query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

type createTaskRequest struct {
	Desc       string     `json:"desc"`
	EstimateAt model.Time `json:"estimateAt"`
}

// CreateTask adds a task. The description is not validated here.
func (c *Client) CreateTask(ctx context.Context, desc string, estimateAt time.Time) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	body := createTaskRequest{Desc: desc, EstimateAt: model.Time{Time: estimateAt}}
	return c.do(ctx, http.MethodPost, []string{"tasks"}, nil, body, nil)
}

// ToggleTask flips the completion state of a task.
func (c *Client) ToggleTask(ctx context.Context, id model.ID) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, []string{"tasks", url.PathEscape(id.String()), "toggle"}, nil, nil, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id model.ID) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, []string{"tasks", url.PathEscape(id.String())}, nil, nil, nil)
}

func (c *Client) requireSession() error {
	if c.token == nil || c.token.AccessToken == "" {
		return fmt.Errorf("%w: sign in required", model.ErrAuth)
	}
	if !c.token.Valid() {
		return fmt.Errorf("%w: session expired, sign in again", model.ErrAuth)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, elems []string, query url.Values, in, out any) error {
	u := c.baseURL.JoinPath(elems...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warnw("request failed",
			"requestID", requestID,
			"method", method,
			"path", u.Path,
			"error", err,
		)
		return fmt.Errorf("%w: %s %s: %v", model.ErrNetwork, method, u.Path, err)
	}
	defer googleapi.CloseBody(res)

	c.log.Debugw("request",
		"requestID", requestID,
		"method", method,
		"path", u.Path,
		"status", res.StatusCode,
		"latency", time.Since(start).String(),
	)

	if err := googleapi.CheckResponse(res); err != nil {
		return classify(method, u.Path, err)
	}
	if out == nil {
		return nil
	}
	if tasks, ok := out.(*[]model.Task); ok {
		decoded, err := model.DecodeTasks(res.Body)
		if err != nil {
			return err
		}
		*tasks = decoded
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s response: %v", model.ErrParse, method, u.Path, err)
	}
	return nil
}

// classify maps a non-2xx response onto the error taxonomy.
func classify(method, path string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %s %s: %v", model.ErrNetwork, method, path, err)
	}

	kind := model.ErrNetwork
	switch gerr.Code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = model.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = model.ErrAuth
	case http.StatusNotFound:
		kind = model.ErrNotFound
	}

	msg := strings.TrimSpace(gerr.Message)
	if msg == "" {
		msg = strings.TrimSpace(gerr.Body)
	}
	if msg == "" {
		msg = http.StatusText(gerr.Code)
	}
	return &StatusError{Code: gerr.Code, Message: msg, Method: method, Path: path, kind: kind}
}
