// Package frappe provides a client for the Frappe REST method API.
package frappe

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"erpdesk/internal/core/apperror"
	appctx "erpdesk/internal/core/context"
	"erpdesk/pkg/logger"
)

var tracer = otel.Tracer("erpdesk/frappe")

// Config configures the client.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration

	// RateLimit is the sustained request rate per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	// HTTPClient overrides the transport. Timeout still applies per request.
	HTTPClient *http.Client
}

// Client calls whitelisted methods on a Frappe site.
// Requests are never retried.
type Client struct {
	base    *url.URL
	auth    string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// New creates a client.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("frappe: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("frappe: parse base url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	c := &Client{
		base:    base,
		timeout: cfg.Timeout,
		http:    hc,
		limiter: limiter,
		log:     log.WithComponent("frappe"),
	}
	if cfg.APIKey != "" {
		c.auth = fmt.Sprintf("token %s:%s", cfg.APIKey, cfg.APISecret)
	}
	return c, nil
}

// envelope is the method response body.
type envelope struct {
	Message        json.RawMessage `json:"message"`
	ExcType        string          `json:"exc_type"`
	Exception      string          `json:"exception"`
	ServerMessages string          `json:"_server_messages"`
}

// Call invokes method with args as the JSON body and decodes the
// "message" member of the response into out. out may be nil.
func (c *Client) Call(ctx context.Context, method string, args any, out any) error {
	ctx, span := tracer.Start(ctx, "frappe "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("frappe.method", method)),
	)
	defer span.End()

	err := c.call(ctx, method, args, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) call(ctx context.Context, method string, args any, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.NewTimeout(method, err)
	}

	body := []byte("{}")
	if args != nil {
		var err error
		if body, err = json.Marshal(args); err != nil {
			return apperror.NewInternal(fmt.Errorf("encode %s args: %w", method, err))
		}
	}

	endpoint := c.base.JoinPath("api", "method", method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return apperror.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	if rid := appctx.GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperror.NewTimeout(method, err)
		}
		return apperror.NewRemoteUnavailable(method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.NewRemoteUnavailable(method, err)
	}

	c.log.WithContext(ctx).Debugw("frappe call",
		"method", method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var env envelope
	decodeErr := decode(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		return remoteError(method, resp.StatusCode, env)
	}
	if decodeErr != nil {
		return apperror.NewRemote(method, resp.StatusCode, "", "malformed response").WithCause(decodeErr)
	}
	if env.ExcType != "" {
		return remoteError(method, resp.StatusCode, env)
	}

	if out == nil || len(env.Message) == 0 {
		return nil
	}
	if err := decode(env.Message, out); err != nil {
		return apperror.NewRemote(method, resp.StatusCode, "", "unexpected response shape").WithCause(err)
	}
	return nil
}

func decode(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

func remoteError(method string, status int, env envelope) error {
	msg := serverMessage(env)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusNotFound || env.ExcType == "DoesNotExistError" {
		return apperror.NewNotFound("document", method).WithDetail("message", msg)
	}
	return apperror.NewRemote(method, status, env.ExcType, msg)
}

// serverMessage extracts the first user-facing message. _server_messages is a
// JSON list of JSON-encoded objects with a "message" member.
func serverMessage(env envelope) string {
	if env.ServerMessages != "" {
		var list []string
		if err := json.Unmarshal([]byte(env.ServerMessages), &list); err == nil {
			for _, item := range list {
				var m struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal([]byte(item), &m); err == nil && m.Message != "" {
					return m.Message
				}
				if item != "" {
					return item
				}
			}
		}
	}
	if env.Exception != "" {
		return env.Exception
	}
	return env.ExcType
}
