// Package remote is the REST client for the board service. It owns the
// wire contract only: bearer injection, idempotency keys, error mapping.
// All authorization and workflow decisions happen before a request is
// built; a request that reaches this package has already been accepted.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for authenticated calls. Returns
// false when no valid session exists; the client then refuses to issue the
// request at all.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Client talks to the board service.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *log.Logger
	tracer  trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for request observability events.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the service at baseURL. tokens may be nil
// for a client that only performs unauthenticated calls (login, register).
func NewClient(baseURL string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		logger:  log.StandardLogger(),
		tracer:  otel.Tracer("workboard/remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type call struct {
	op            string
	method        string
	path          string
	body          any
	authenticated bool
	out           any
}

func (c *Client) do(ctx context.Context, req call) error {
	ctx, span := c.tracer.Start(ctx, "remote."+req.op, trace.WithAttributes(
		attribute.String("http.method", req.method),
		attribute.String("http.route", req.path),
	))
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, req)
	c.observe(req, status, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req call) (int, error) {
	var body io.Reader
	if req.body != nil {
		payload, err := sonic.Marshal(req.body)
		if err != nil {
			return 0, fmt.Errorf("encode %s request: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", req.op, err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.method != http.MethodGet {
		httpReq.Header.Set("Idempotency-Key", uuid.NewString())
	}
	if req.authenticated {
		var token string
		ok := false
		if c.tokens != nil {
			token, ok = c.tokens.AccessToken()
		}
		if !ok {
			// Fail before any traffic: an expired session must not
			// reach the wire.
			return 0, ErrUnauthenticated
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, &TransportError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, &TransportError{
			Op:     req.op,
			Status: resp.StatusCode,
			Detail: strings.TrimSpace(string(detail)),
		}
	}

	if req.out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, &TransportError{Op: req.op, Err: err}
		}
		if err := sonic.Unmarshal(data, req.out); err != nil {
			return resp.StatusCode, &TransportError{Op: req.op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) observe(req call, status int, duration time.Duration, err error) {
	fields := log.Fields{
		"op":       req.op,
		"method":   req.method,
		"route":    req.path,
		"total_ms": float64(duration) / float64(time.Millisecond),
	}
	if status > 0 {
		fields["status"] = status
	}
	if err != nil {
		fields["error"] = err.Error()
		c.logger.WithFields(fields).Warn("remote.request")
		return
	}
	c.logger.WithFields(fields).Debug("remote.request")
}
