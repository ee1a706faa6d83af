// Package client is a small HTTP client for the auth API. It keeps the
// issued session in a pluggable store, attaches it as a bearer credential
// on protected calls and broadcasts every session change to registered
// observers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/menamiji/info-class/core/auth"
)

// Failure codes surfaced by the backend, plus the client-side ones.
const (
	CodeInvalidAssertion = "INVALID_ASSERTION"
	CodeDomainNotAllowed = "DOMAIN_NOT_ALLOWED"
	CodeNoToken          = "NO_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeTokenInvalid     = "TOKEN_INVALID"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNetworkError     = "NETWORK_ERROR"
	CodeUnknownError     = "UNKNOWN_ERROR"
)

// APIError is a structured failure returned by the backend, or synthesized
// locally for transport faults.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`

	status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status returns the HTTP status the failure arrived with, 0 for failures
// that never reached the backend.
func (e *APIError) Status() int { return e.status }

// AuthState is the snapshot emitted to observers whenever the session
// state changes.
type AuthState struct {
	Authenticated bool
	User          auth.User
	ExpiresAt     time.Time
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	maxRetries int
	retryDelay time.Duration

	mutex     sync.Mutex
	observers map[int]func(AuthState)
	nextObsID int
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithSessionStore(store SessionStore) Option {
	return func(c *Client) { c.store = store }
}

// WithMaxRetries caps the retries of idempotent reads. Writes are never
// retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      NewMemoryStore(),
		maxRetries: 2,
		retryDelay: 250 * time.Millisecond,
		observers:  make(map[int]func(AuthState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnAuthChange registers fn to receive a snapshot on every session change.
// The returned func unregisters it.
func (c *Client) OnAuthChange(fn func(AuthState)) func() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	return func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		delete(c.observers, id)
	}
}

// State reports the current snapshot without calling the backend. A stored
// session whose expiry has elapsed counts as signed out.
func (c *Client) State() AuthState {
	sess, ok := c.store.Get()
	if !ok || !sess.ExpiresAt.After(time.Now()) {
		return AuthState{}
	}
	return AuthState{Authenticated: true, User: sess.User, ExpiresAt: sess.ExpiresAt}
}

// Token returns the stored session token, if any.
func (c *Client) Token() (string, bool) {
	sess, ok := c.store.Get()
	return sess.Token, ok
}

// Exchange trades an identity assertion for a session. Any previously
// stored credential is discarded first so a fresh sign-in never rides on
// stale state. An assertion is consumed by the attempt; Exchange is never
// retried.
func (c *Client) Exchange(ctx context.Context, assertion string) (auth.Session, error) {
	_, hadSession := c.store.Get()
	c.store.Clear()

	var sess auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/exchange", exchangeRequest{Assertion: assertion}, "", 0, &sess); err != nil {
		if hadSession {
			c.notify(AuthState{})
		}
		return auth.Session{}, err
	}
	c.store.Set(sess)
	c.notify(AuthState{Authenticated: true, User: sess.User, ExpiresAt: sess.ExpiresAt})
	return sess, nil
}

// Me returns the profile bound to the stored session. Transport faults and
// server-side 5xx are retried; an authentication rejection purges the
// stored session and emits a signed-out snapshot.
func (c *Client) Me(ctx context.Context) (auth.User, error) {
	sess, ok := c.store.Get()
	if !ok {
		return auth.User{}, &APIError{Code: CodeNoToken, Message: "no session stored"}
	}

	var usr auth.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, sess.Token, c.maxRetries, &usr); err != nil {
		c.purgeOnAuthFailure(err)
		return auth.User{}, err
	}
	return usr, nil
}

// Refresh trades the stored session for a renewed one. Refresh is a write
// and is never retried.
func (c *Client) Refresh(ctx context.Context) (auth.Session, error) {
	sess, ok := c.store.Get()
	if !ok {
		return auth.Session{}, &APIError{Code: CodeNoToken, Message: "no session stored"}
	}

	var renewed auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, sess.Token, 0, &renewed); err != nil {
		c.purgeOnAuthFailure(err)
		return auth.Session{}, err
	}
	c.store.Set(renewed)
	c.notify(AuthState{Authenticated: true, User: renewed.User, ExpiresAt: renewed.ExpiresAt})
	return renewed, nil
}

// SignOut discards the stored session. The backend keeps no session state,
// so this is purely local; the token itself lapses at its natural expiry.
func (c *Client) SignOut() {
	if _, ok := c.store.Get(); !ok {
		return
	}
	c.store.Clear()
	c.notify(AuthState{})
}

// Health probes the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "", c.maxRetries, nil)
}

func (c *Client) notify(state AuthState) {
	c.mutex.Lock()
	observers := make([]func(AuthState), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mutex.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

// purgeOnAuthFailure clears the stored session when the backend rejected
// the credential itself.
func (c *Client) purgeOnAuthFailure(err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		return
	}
	switch apiErr.Code {
	case CodeNoToken, CodeTokenExpired, CodeTokenInvalid:
		c.store.Clear()
		c.notify(AuthState{})
	}
}

type exchangeRequest struct {
	Assertion string `json:"assertion"`
}

type apiEnvelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, token string, retries int, out interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return errors.Wrap(err, "marshaling request body")
		}
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &APIError{Code: CodeNetworkError, Message: ctx.Err().Error()}
			case <-time.After(c.retryDelay << uint(attempt-1)):
			}
		}

		err := c.roundTrip(ctx, method, path, body, token, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, token string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Code: CodeNetworkError, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Code: CodeNetworkError, Message: err.Error()}
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Code: CodeUnknownError, Message: "unexpected response from server", status: resp.StatusCode}
	}

	if !env.OK || resp.StatusCode >= http.StatusBadRequest {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: CodeUnknownError, Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.status = resp.StatusCode
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{Code: CodeUnknownError, Message: "unexpected response from server", status: resp.StatusCode}
		}
	}
	return nil
}

// retryable reports whether the failure is transient: a transport fault or
// a server-side 5xx. Authentication and validation rejections are final.
func retryable(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	return apiErr.Code == CodeNetworkError || apiErr.status >= http.StatusInternalServerError
}
