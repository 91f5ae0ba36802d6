package push

import (
	"context"

	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/logger"
)

// LogSender writes payloads to the log instead of delivering them. Every
// destination is reported as delivered.
type LogSender struct{}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the payload once per call.
func (LogSender) Send(ctx context.Context, destinations []string, payload *notification.Payload) (*Report, error) {
	report := new(Report)
	if len(destinations) == 0 {
		return report, nil
	}

	logger.InfoKV(ctx, "push payload",
		"kind", string(payload.Kind),
		"class", payload.Class().String(),
		"title", payload.Title,
		"body", payload.Body,
		"data", payload.Data,
		"destinations", len(destinations),
	)

	for _, dest := range destinations {
		report.add(Result{Destination: dest, Outcome: OutcomeDelivered})
	}

	return report, nil
}

var (
	_ Sender = (*FCMSender)(nil)
	_ Sender = LogSender{}
)
