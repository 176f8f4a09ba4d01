// Package backend is the typed client for the ordering backend's REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/orderdesk/internal/observability/metrics"
)

// TokenHeader carries the session token on every authenticated call.
const TokenHeader = "x-access-token"

// TokenSource supplies the current session token.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to the backend on behalf of one session.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient returns an HTTP client with tracing on the transport. No
// timeout is set; callers bound calls with their context.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// NewClient creates a backend client. tokens may be nil for clients used
// only for login and verification.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithTokens returns a client sharing the transport but bound to another session.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

type call struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
	withToken   bool
	out         any
}

func (c *Client) do(ctx context.Context, cl call) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if cl.withToken {
		token := cl.token
		if token == "" {
			token = c.tokens.Token()
		}
		req.Header.Set(TokenHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackendCall(cl.op, "transport", time.Since(start))
		c.logger.Warn("backend call failed",
			slog.String("operation", cl.op),
			slog.String("error", err.Error()),
		)
		return &TransportError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveBackendCall(cl.op, "status", time.Since(start))
		c.logger.Debug("backend rejected call",
			slog.String("operation", cl.op),
			slog.Int("status", resp.StatusCode),
		)
		return &StatusError{Op: cl.op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	metrics.ObserveBackendCall(cl.op, "ok", time.Since(start))

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return fmt.Errorf("%s: decode response: %w", cl.op, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, call{
		op:          op,
		method:      method,
		path:        path,
		body:        bytes.NewReader(data),
		contentType: "application/json",
		withToken:   true,
		out:         out,
	})
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, call{op: op, method: http.MethodGet, path: path, withToken: true, out: out})
}

func (c *Client) delete(ctx context.Context, op, path string) error {
	return c.do(ctx, call{op: op, method: http.MethodDelete, path: path, withToken: true})
}

// errorMessage extracts {"error"|"message": ...} from a failure body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Message
	}
	return ""
}

func pathID(prefix, id string) string {
	return prefix + url.PathEscape(id)
}
