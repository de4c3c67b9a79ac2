// Package remote talks to the time-tracking HTTP API. Client implements both
// types.Destination and types.Source.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// DefaultAPI is the public API endpoint.
const DefaultAPI = "https://beaverlog.cc/api/v1"

// RequestIDHeader carries a fresh id per request for server-side tracing.
const RequestIDHeader = "X-Request-Id"

const (
	defaultTimeout  = 30 * time.Second
	retryMaxElapsed = 30 * time.Second
)

// Client is an authenticated API session. It is not safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        logrus.FieldLogger
	session    Session
	retry      func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithInsecureTLS disables certificate verification. Only for servers the
// user explicitly trusts.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		if !insecure {
			return
		}
		c.httpClient.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via ssl_no_verify
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRetry replaces the backoff policy used for idempotent reads.
func WithRetry(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.retry = newBackOff
	}
}

// WithSession installs tokens from an earlier login.
func WithSession(s Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

func newRetryBackOff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return bo
}

// New returns a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultAPI
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url: %q", baseURL)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
		retry:      newRetryBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// apiMessage is the error body the API returns.
type apiMessage struct {
	Message string `json:"message"`
}

// doJSON sends reqBody as JSON and decodes a 2xx response into out. Any
// other status becomes a *types.RemoteOperationError. token selects the
// bearer token; an empty token sends no Authorization header.
func (c *Client) doJSON(ctx context.Context, method, path, token string, reqBody, out any) (int, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return 0, fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &types.RemoteOperationError{Method: method, URL: u.String(), Message: err.Error(), Payload: reqBody}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("http read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var m apiMessage
		if err := json.Unmarshal(respBody, &m); err == nil && m.Message != "" {
			msg = m.Message
		}
		return resp.StatusCode, &types.RemoteOperationError{
			Method:  method,
			URL:     u.String(),
			Status:  resp.StatusCode,
			Message: msg,
			Payload: reqBody,
		}
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("json unmarshal response from %s %s: %w", method, u.String(), err)
	}
	return resp.StatusCode, nil
}

// withRetry retries op on transport failures and 5xx responses. Only
// idempotent requests go through here; creates are never retried because a
// retried create may duplicate the record.
func (c *Client) withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && isRetryable(err) {
			c.log.WithError(err).Debug("Retrying request")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(c.retry(), ctx))
}

func isRetryable(err error) bool {
	var remote *types.RemoteOperationError
	if !errors.As(err, &remote) {
		return false
	}
	return remote.Status == 0 || remote.Status >= 500
}

// changeset is the envelope the API wraps entity lists in.
type changeset struct {
	Changeset []struct {
		Data json.RawMessage `json:"data"`
	} `json:"changeset"`
}

func (cs changeset) records() []json.RawMessage {
	out := make([]json.RawMessage, len(cs.Changeset))
	for i, c := range cs.Changeset {
		out[i] = c.Data
	}
	return out
}
