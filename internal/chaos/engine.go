// internal/chaos/engine.go
package chaos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookvault/internal/clients"
)

// ErrSteadyState aborts an experiment whose probe fails before any fault is
// injected.
var ErrSteadyState = errors.New("steady state invalid - aborting experiment")

// Probe performs one storefront call through the faulty transport.
type Probe func(ctx context.Context) error

// Experiment injects Faults while Requests probes run and then checks the
// observed failure kinds against Validation.
type Experiment struct {
	Name       string
	Hypothesis string
	Faults     []Fault
	Requests   int
	// Timeout bounds each probe; zero leaves it to the caller's context.
	Timeout    time.Duration
	Validation []Assertion
}

// Assertion validates an experiment outcome.
type Assertion struct {
	Message   string
	Condition func(*Result) bool
}

// Result captures experiment execution data. Observations counts probe
// outcomes by client error kind, with "ok" for successes.
type Result struct {
	ExperimentName   string         `json:"experiment_name"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	Duration         time.Duration  `json:"duration"`
	SteadyStateValid bool           `json:"steady_state_valid"`
	HypothesisHeld   bool           `json:"hypothesis_held"`
	Observations     map[string]int `json:"observations"`
	Failed           []string       `json:"failed_assertions,omitempty"`
	Recovered        bool           `json:"recovered"`
	Injected         int            `json:"injected"`
}

// Only reports whether every probe ended with kind.
func (r *Result) Only(kind string) bool {
	total := 0
	for _, n := range r.Observations {
		total += n
	}
	return total > 0 && r.Observations[kind] == total
}

// Engine runs experiments against a probe wired through its Transport.
type Engine struct {
	transport *Transport
	probe     Probe
	tracer    trace.Tracer
	log       logrus.FieldLogger

	mu      sync.Mutex
	results []Result
}

func NewEngine(t *Transport, probe Probe, log logrus.FieldLogger) *Engine {
	return &Engine{
		transport: t,
		probe:     probe,
		tracer:    otel.Tracer("bookvault/chaos"),
		log:       log,
	}
}

func (e *Engine) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Result(nil), e.results...)
}

func (e *Engine) runProbe(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return e.probe(ctx)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return clients.KindOf(err).String()
}

// RunExperiment executes a single experiment.
func (e *Engine) RunExperiment(ctx context.Context, exp Experiment) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "chaos.run_experiment",
		trace.WithAttributes(attribute.String("experiment.name", exp.Name)),
	)
	defer span.End()

	result := &Result{
		ExperimentName: exp.Name,
		StartTime:      time.Now(),
		Observations:   make(map[string]int),
	}

	span.AddEvent("validating_steady_state")
	e.transport.Clear()
	if err := e.runProbe(ctx, exp.Timeout); err != nil {
		span.RecordError(err)
		return result, errors.Join(ErrSteadyState, err)
	}
	result.SteadyStateValid = true

	span.AddEvent("injecting_chaos")
	before := e.transport.Injected()
	e.transport.Inject(exp.Faults...)
	requests := max(exp.Requests, 1)
	for i := 0; i < requests; i++ {
		if ctx.Err() != nil {
			break
		}
		result.Observations[outcome(e.runProbe(ctx, exp.Timeout))]++
	}
	result.Injected = e.transport.Injected() - before

	span.AddEvent("rolling_back")
	e.transport.Clear()
	result.Recovered = e.runProbe(ctx, exp.Timeout) == nil

	span.AddEvent("validating_assertions")
	result.HypothesisHeld = true
	for _, a := range exp.Validation {
		if !a.Condition(result) {
			result.HypothesisHeld = false
			result.Failed = append(result.Failed, a.Message)
		}
	}
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	e.mu.Lock()
	e.results = append(e.results, *result)
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Bool("hypothesis_held", result.HypothesisHeld),
		attribute.Int("injected", result.Injected),
	)
	return result, nil
}

// GameDay is a named series of experiments.
type GameDay struct {
	Name      string
	Scenarios []Experiment
	// Pause separates experiments so breakers and limiters settle.
	Pause time.Duration
}

// ExecuteGameDay runs every scenario and logs the outcome of each. It fails
// only if ctx ends early.
func (e *Engine) ExecuteGameDay(ctx context.Context, day GameDay) ([]Result, error) {
	ctx, span := e.tracer.Start(ctx, "chaos.game_day",
		trace.WithAttributes(attribute.String("gameday.name", day.Name)),
	)
	defer span.End()

	log := e.log.WithField("gameday", day.Name)
	log.WithField("scenarios", len(day.Scenarios)).Info("starting game day")

	var out []Result
	for i, exp := range day.Scenarios {
		if i > 0 && day.Pause > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(day.Pause):
			}
		}
		elog := log.WithFields(logrus.Fields{"experiment": exp.Name, "hypothesis": exp.Hypothesis})
		res, err := e.RunExperiment(ctx, exp)
		if err != nil {
			elog.WithError(err).Error("experiment aborted")
			continue
		}
		out = append(out, *res)
		fields := logrus.Fields{
			"observations": res.Observations,
			"injected":     res.Injected,
			"recovered":    res.Recovered,
			"duration":     res.Duration.String(),
		}
		if res.HypothesisHeld {
			elog.WithFields(fields).Info("hypothesis held")
		} else {
			elog.WithFields(fields).WithField("failed", res.Failed).Warn("hypothesis violated")
		}
	}
	return out, ctx.Err()
}
