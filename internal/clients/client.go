// internal/clients/client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"bookvault/internal/events"
)

const maxBodyBytes = 8 << 20

// Session is the slice of auth state the client needs: the bearer token and
// the ability to forget it when the backend rejects it.
type Session interface {
	Token(ctx context.Context) string
	Purge(ctx context.Context) error
}

// Options tune a Client. The zero value is usable.
type Options struct {
	HTTPClient *http.Client
	// RateLimit caps outgoing requests per second; zero means unlimited.
	RateLimit float64
	Breaker   bool
	Notifier  events.Notifier
	Logger    logrus.FieldLogger
}

// Client performs requests against the three backend services and turns every
// outcome into either a Response or an *Error.
type Client struct {
	router   *Router
	http     *http.Client
	session  Session
	notifier events.Notifier
	limiter  *rate.Limiter
	breakers map[Service]*gobreaker.CircuitBreaker
	log      logrus.FieldLogger
	tracer   trace.Tracer
	requests metric.Int64Counter
}

func New(router *Router, session Session, opts Options) *Client {
	c := &Client{
		router:   router,
		http:     opts.HTTPClient,
		session:  session,
		notifier: opts.Notifier,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		log:      opts.Logger,
		tracer:   otel.Tracer("bookvault/clients"),
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.notifier == nil {
		c.notifier = events.Discard{}
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if opts.Breaker {
		c.breakers = make(map[Service]*gobreaker.CircuitBreaker)
		for _, svc := range []Service{ServiceDefault, ServiceAuth, ServiceCatalog, ServiceOrders} {
			c.breakers[svc] = newBreaker(svc, c.log)
		}
	}

	counter, err := otel.Meter("bookvault/clients").Int64Counter("storefront.client.requests",
		metric.WithDescription("Backend requests by service and outcome"))
	if err != nil {
		c.log.WithError(err).Warn("create request counter")
	}
	c.requests = counter
	return c
}

func newBreaker(svc Service, log logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        svc.String(),
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the backend.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

// RequestOptions describe one call. Body, when set, is sent as JSON.
type RequestOptions struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Response is a normalized successful response. Body is always JSON.
type Response struct {
	Status int
	Header http.Header
	Body   json.RawMessage
}

// Decode unmarshals the payload into v, unwrapping the backend's
// {success, message, data} envelope when present.
func (r *Response) Decode(v any) error {
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	payload := r.Body
	if err := json.Unmarshal(r.Body, &env); err == nil && env.Success != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		payload = env.Data
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return &Error{Kind: KindRequestFailed, Status: r.Status, Message: MsgRequestFailed, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Message returns the backend's message field, if any.
func (r *Response) Message() string {
	var env struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(r.Body, &env)
	return env.Message
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

var errUpstream = errors.New("upstream server error")

// Do performs a request and decodes the payload into out when out is non-nil.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	resp, err := c.Request(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// Request sends endpoint to the service it routes to and normalizes the
// outcome.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	url, svc := c.router.URL(endpoint)
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "clients.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("backend.endpoint", stripQuery(endpoint)),
			attribute.String("backend.service", svc.String()),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	log := c.log.WithFields(logrus.Fields{
		"http.req.id":     requestID,
		"http.req.method": method,
		"backend.service": svc.String(),
		"backend.url":     url,
	})
	start := time.Now()

	resp, err := c.request(ctx, method, url, endpoint, svc, requestID, opts)

	kind := "ok"
	if err != nil {
		kind = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		log.WithError(err).WithField("duration", time.Since(start)).Debug("backend request failed")
	} else {
		span.SetAttributes(attribute.Int("http.status_code", resp.Status))
		log.WithFields(logrus.Fields{
			"http.resp.status": resp.Status,
			"duration":         time.Since(start),
		}).Debug("backend request")
	}
	if c.requests != nil {
		c.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("service", svc.String()),
			attribute.String("outcome", kind),
		))
	}
	return resp, err
}

func (c *Client) request(ctx context.Context, method, url, endpoint string, svc Service, requestID string, opts RequestOptions) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindTimeout, Message: MsgTimeout, Err: err}
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &Error{Kind: KindRequestFailed, Message: MsgRequestFailed, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &Error{Kind: KindRequestFailed, Message: MsgRequestFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Authorization") == "" && c.session != nil {
		if token := c.session.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	raw, err := c.send(req, svc)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return c.normalize(ctx, endpoint, raw)
}

func (c *Client) send(req *http.Request, svc Service) (*rawResponse, error) {
	cb := c.breakers[svc]
	if cb == nil {
		return c.roundTrip(req)
	}
	out, err := cb.Execute(func() (interface{}, error) {
		raw, err := c.roundTrip(req)
		if err != nil {
			return nil, err
		}
		if raw.status >= 500 {
			return raw, errUpstream
		}
		return raw, nil
	})
	raw, _ := out.(*rawResponse)
	switch {
	case errors.Is(err, errUpstream):
		return raw, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &Error{Kind: KindServerError, Status: http.StatusServiceUnavailable, Message: MsgServerError, Err: err}
	case err != nil:
		return nil, err
	}
	return raw, nil
}

func (c *Client) roundTrip(req *http.Request) (*rawResponse, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: b}, nil
}

func transportError(ctx context.Context, err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var netErr net.Error
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: MsgTimeout, Err: err}
	}
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

func (c *Client) normalize(ctx context.Context, endpoint string, raw *rawResponse) (*Response, error) {
	switch {
	case raw.status == http.StatusUnauthorized:
		c.expireSession(ctx)
		return nil, &Error{Kind: KindSessionExpired, Status: raw.status, Message: MsgSessionExpired}
	case raw.status == http.StatusForbidden:
		return nil, forbiddenError(endpoint, string(raw.body))
	case raw.status == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Status: raw.status, Message: MsgNotFound}
	case raw.status == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimited, Status: raw.status, Message: MsgRateLimited}
	case raw.status >= 500:
		return nil, &Error{Kind: KindServerError, Status: raw.status, Message: MsgServerError}
	}

	var data json.RawMessage
	if strings.Contains(raw.header.Get("Content-Type"), "application/json") {
		data = raw.body
		if !json.Valid(data) {
			data = json.RawMessage(`{}`)
		}
	} else {
		text := string(raw.body)
		if text == "" {
			text = "Unknown response format"
		}
		data, _ = json.Marshal(map[string]string{"message": text})
	}

	if raw.status < 200 || raw.status > 299 {
		return nil, RequestFailed(extractMessage(data), raw.status)
	}
	return &Response{Status: raw.status, Header: raw.header, Body: data}, nil
}

func (c *Client) expireSession(ctx context.Context) {
	if c.session != nil {
		if err := c.session.Purge(ctx); err != nil {
			c.log.WithError(err).Warn("purge expired session")
		}
	}
	if !events.IsAuthPage(events.PageFrom(ctx)) {
		c.notifier.Notify(ctx, events.Navigate(events.PageLogin))
	}
}
