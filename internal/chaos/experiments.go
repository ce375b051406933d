// internal/chaos/experiments.go
package chaos

import (
	"fmt"
	"net/http"
	"time"

	"bookvault/internal/clients"
)

func only(kind clients.Kind) Assertion {
	return Assertion{
		Message:   fmt.Sprintf("every request should fail as %s", kind),
		Condition: func(r *Result) bool { return r.Only(kind.String()) },
	}
}

var recovers = Assertion{
	Message:   "storefront should recover once faults are removed",
	Condition: func(r *Result) bool { return r.Recovered },
}

// Experiments returns the standard game day, one experiment per failure
// kind the client distinguishes. timeout bounds each probe and must be
// shorter than the injected latency for the latency experiment to bite.
func Experiments(timeout time.Duration) []Experiment {
	return []Experiment{
		{
			Name:       "backend-latency",
			Hypothesis: "Slow backends surface as timeouts rather than hanging the storefront",
			Faults:     []Fault{{Kind: FaultLatency, Latency: 2 * timeout, Jitter: timeout / 4}},
			Requests:   3,
			Timeout:    timeout,
			Validation: []Assertion{only(clients.KindTimeout), recovers},
		},
		{
			Name:       "network-partition",
			Hypothesis: "Unreachable backends are reported as connection problems",
			Faults:     []Fault{{Kind: FaultFailure}},
			Requests:   3,
			Timeout:    timeout,
			Validation: []Assertion{only(clients.KindNetwork), recovers},
		},
		{
			Name:       "backend-outage",
			Hypothesis: "5xx responses map to a generic server error",
			Faults:     []Fault{{Kind: FaultStatus, Status: http.StatusServiceUnavailable}},
			Requests:   3,
			Timeout:    timeout,
			Validation: []Assertion{only(clients.KindServerError), recovers},
		},
		{
			Name:       "rate-limited",
			Hypothesis: "Throttled requests tell the user to slow down",
			Faults:     []Fault{{Kind: FaultStatus, Status: http.StatusTooManyRequests}},
			Requests:   3,
			Timeout:    timeout,
			Validation: []Assertion{only(clients.KindRateLimited), recovers},
		},
		{
			Name:       "flaky-backend",
			Hypothesis: "Intermittent failures never produce an unclassified error",
			Faults:     []Fault{{Kind: FaultStatus, Status: http.StatusBadGateway, Probability: 0.5}},
			Requests:   10,
			Timeout:    timeout,
			Validation: []Assertion{
				{
					Message: "every outcome is a success or a server error",
					Condition: func(r *Result) bool {
						return r.Observations["ok"]+r.Observations[clients.KindServerError.String()] == 10
					},
				},
				recovers,
			},
		},
	}
}
