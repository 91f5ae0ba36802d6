package dispatcher

import (
	"context"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/gateway/push"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/metrics"
)

// outcomeSendFailed labels destinations of a provider call that failed as a whole.
const outcomeSendFailed = "send_failed"

// notice is one notification addressed to one user.
type notice struct {
	// userID is the recipient.
	userID string
	// category selects the preference switch.
	category calendar.Category
	// respectPreference skips the send when the switch is off.
	respectPreference bool
	// kind selects the template.
	kind notification.Kind
	// data fills the template.
	data *notification.Context
}

// notify resolves the recipient and delivers. It reports whether a send was attempted.
func (s *Service) notify(ctx context.Context, n *notice) bool {
	ctx = logger.WithKV(ctx, "recipient", n.userID, "kind", string(n.kind))

	rcpt, err := s.resolve(ctx, n.userID, n.category)
	if err != nil {
		logger.ErrorKV(ctx, "Recipient lookup failed", "error", err)

		return false
	}

	return s.deliver(ctx, rcpt, n)
}

// deliver applies the preference gate, composes, sends and prunes invalid destinations.
func (s *Service) deliver(ctx context.Context, rcpt recipient, n *notice) bool {
	if rcpt.user == nil {
		logger.DebugKV(ctx, "Recipient not found, skipping")

		return false
	}

	if n.respectPreference && !rcpt.enabled {
		logger.DebugKV(ctx, "Notifications disabled by preference", "category", string(n.category))

		return false
	}

	if len(rcpt.destinations) == 0 {
		logger.DebugKV(ctx, "Recipient has no destinations")

		return false
	}

	payload, err := s.composer.Compose(n.kind, n.data)
	if err != nil {
		logger.ErrorKV(ctx, "Compose notification failed", "error", err)

		return false
	}

	started := time.Now()

	report, err := s.sender.Send(ctx, rcpt.destinations, payload)
	if report == nil {
		report = new(push.Report)
	}

	outcomes := make(map[string]int, 3)
	for _, res := range report.Results {
		outcomes[res.Outcome.String()]++
	}

	if err != nil {
		outcomes[outcomeSendFailed] += len(rcpt.destinations) - len(report.Results)

		logger.ErrorKV(ctx, "Send notification failed",
			"error", err,
			"type", payload.Type(),
			"destinations", len(rcpt.destinations),
			"success", report.SuccessCount,
			"failure", report.FailureCount,
		)
	} else {
		logger.InfoKV(ctx, "Notification sent",
			"type", payload.Type(),
			"success", report.SuccessCount,
			"failure", report.FailureCount,
		)
	}

	metrics.ObservePush(payload.Type(), outcomes, time.Since(started))

	s.prune(ctx, rcpt.user, report.InvalidDestinations())

	return true
}
