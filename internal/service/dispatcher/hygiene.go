package dispatcher

import (
	"context"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/metrics"
)

// prune removes the devices whose tokens the provider rejected as invalid.
// It works from the snapshot read before sending; a concurrent registration
// may be lost and is restored on the device's next registration.
func (s *Service) prune(ctx context.Context, user *calendar.User, invalidTokens []string) {
	if user == nil || len(invalidTokens) == 0 {
		return
	}

	devices := user.DevicesWithTokens(invalidTokens)
	if len(devices) == 0 {
		return
	}

	if err := s.repo.RemoveDestinations(ctx, user.ID, devices); err != nil {
		logger.ErrorKV(ctx, "Prune invalid destinations failed", "error", err, "devices", devices)

		return
	}

	metrics.AddPruned(len(devices))

	logger.InfoKV(ctx, "Pruned invalid destinations", "user_id", user.ID, "devices", devices)
}
