// internal/chaos/transport.go
package chaos

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FaultKind names what a fault does to a matching request.
type FaultKind string

const (
	FaultLatency FaultKind = "latency"
	FaultFailure FaultKind = "failure"
	FaultStatus  FaultKind = "status"
)

// ErrInjected is returned by the transport for FaultFailure.
var ErrInjected = errors.New("chaos: injected transport failure")

// Fault is one injected misbehaviour. Target, when set, restricts the fault
// to requests whose host or path contains it. Probability is the share of
// matching requests affected; zero means all of them.
type Fault struct {
	Kind        FaultKind
	Target      string
	Latency     time.Duration
	Jitter      time.Duration
	Status      int
	Body        string
	Probability float64
}

func (f Fault) matches(req *http.Request) bool {
	if f.Target == "" {
		return true
	}
	return strings.Contains(req.URL.Host, f.Target) || strings.Contains(req.URL.Path, f.Target)
}

// Transport is an http.RoundTripper that applies the active faults before
// delegating to the wrapped transport.
type Transport struct {
	next   http.RoundTripper
	tracer trace.Tracer

	mu       sync.Mutex
	faults   []Fault
	rnd      *rand.Rand
	injected int
}

func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		next:   next,
		tracer: otel.Tracer("bookvault/chaos"),
		rnd:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// Seed makes fault selection deterministic.
func (t *Transport) Seed(seed uint64) {
	t.mu.Lock()
	t.rnd = rand.New(rand.NewPCG(seed, seed))
	t.mu.Unlock()
}

// Inject replaces the active faults.
func (t *Transport) Inject(faults ...Fault) {
	t.mu.Lock()
	t.faults = append([]Fault(nil), faults...)
	t.mu.Unlock()
}

// Clear removes every active fault.
func (t *Transport) Clear() {
	t.Inject()
}

// Injected reports how many requests were affected so far.
func (t *Transport) Injected() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.injected
}

// pick returns the faults to apply to req along with the sampled latency.
func (t *Transport) pick(req *http.Request) ([]Fault, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Fault
	var delay time.Duration
	for _, f := range t.faults {
		if !f.matches(req) {
			continue
		}
		if f.Probability > 0 && t.rnd.Float64() >= f.Probability {
			continue
		}
		if f.Kind == FaultLatency {
			delay += f.Latency
			if f.Jitter > 0 {
				delay += time.Duration(t.rnd.Int64N(int64(f.Jitter)))
			}
		}
		out = append(out, f)
	}
	if len(out) > 0 {
		t.injected++
	}
	return out, delay
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	faults, delay := t.pick(req)
	if len(faults) == 0 {
		return t.next.RoundTrip(req)
	}

	ctx, span := t.tracer.Start(req.Context(), "chaos.inject",
		trace.WithAttributes(
			attribute.String("http.url", req.URL.String()),
			attribute.Int("chaos.faults", len(faults)),
		),
	)
	defer span.End()

	if delay > 0 {
		span.AddEvent("injecting_latency", trace.WithAttributes(attribute.Int64("latency_ms", delay.Milliseconds())))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	for _, f := range faults {
		switch f.Kind {
		case FaultFailure:
			span.RecordError(ErrInjected)
			return nil, ErrInjected
		case FaultStatus:
			span.SetAttributes(attribute.Int("http.status_code", f.Status))
			return cannedResponse(req, f.Status, f.Body), nil
		}
	}
	return t.next.RoundTrip(req)
}

func cannedResponse(req *http.Request, status int, body string) *http.Response {
	h := make(http.Header)
	if body != "" {
		h.Set("Content-Type", "application/json")
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
