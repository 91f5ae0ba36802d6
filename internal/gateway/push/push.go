package push

import (
	"context"

	"github.com/oshokin/famcal-notifier/internal/domain/notification"
)

// Outcome classifies the result of one destination.
type Outcome int

const (
	// OutcomeDelivered means the provider accepted the message.
	OutcomeDelivered Outcome = iota
	// OutcomeTransient is any failure that says nothing about the destination itself.
	OutcomeTransient
	// OutcomeInvalidDestination means the destination is unregistered or malformed.
	OutcomeInvalidDestination
)

// String returns the metric label of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeInvalidDestination:
		return "invalid_destination"
	default:
		return "transient"
	}
}

// Result is the outcome for a single destination.
type Result struct {
	Destination string
	Outcome     Outcome
	Err         error
}

// Report aggregates a multicast send.
type Report struct {
	SuccessCount int
	FailureCount int
	// Results are positionally aligned with the destinations passed to Send.
	Results []Result
}

// InvalidDestinations returns the destinations the provider rejected as invalid.
func (r *Report) InvalidDestinations() []string {
	if r == nil {
		return nil
	}

	var invalid []string

	for _, res := range r.Results {
		if res.Outcome == OutcomeInvalidDestination {
			invalid = append(invalid, res.Destination)
		}
	}

	return invalid
}

func (r *Report) add(res Result) {
	if res.Outcome == OutcomeDelivered {
		r.SuccessCount++
	} else {
		r.FailureCount++
	}

	r.Results = append(r.Results, res)
}

// Sender delivers one payload to many destinations.
// An empty destination set yields an empty report without contacting the provider.
// A returned error means the whole request failed; per-destination failures are
// reported in the Report instead.
type Sender interface {
	Send(ctx context.Context, destinations []string, payload *notification.Payload) (*Report, error)
}
