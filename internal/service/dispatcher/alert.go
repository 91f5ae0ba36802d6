package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/repository/store"
)

// AlertOutcome describes what a fired escalation did.
type AlertOutcome string

// Alert outcomes.
const (
	AlertSent          AlertOutcome = "sent"
	AlertEventGone     AlertOutcome = "event_gone"
	AlertNowAssigned   AlertOutcome = "now_assigned"
	AlertEventPast     AlertOutcome = "event_past"
	AlertOwnerSkipped  AlertOutcome = "owner_skipped"
	AlertLookupFailure AlertOutcome = "lookup_failed"
)

// HandleUnassignedAlert runs a fired escalation task. The event is re-read and
// the family owner is alerted only if it still exists, is still unassigned and
// has not passed.
func (s *Service) HandleUnassignedAlert(ctx context.Context, task EscalationTask) AlertOutcome {
	ctx = logger.WithKV(ctx, "family_id", task.FamilyID, "event_id", task.EventID)

	event, err := s.repo.GetEvent(ctx, task.FamilyID, task.EventID)

	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.DebugKV(ctx, "Escalated event no longer exists")

		return AlertEventGone
	case err != nil:
		logger.ErrorKV(ctx, "Escalated event lookup failed", "error", err)

		return AlertLookupFailure
	case event.Assigned():
		logger.DebugKV(ctx, "Escalated event was assigned meanwhile")

		return AlertNowAssigned
	case event.StartDate.Before(calendar.DateOf(time.Now())):
		return AlertEventPast
	}

	family, err := s.repo.GetFamily(ctx, task.FamilyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AlertOwnerSkipped
		}

		logger.ErrorKV(ctx, "Family lookup failed", "error", err)

		return AlertLookupFailure
	}

	sent := s.notify(ctx, &notice{
		userID:            family.OwnerID,
		category:          calendar.CategoryUnassignedAlerts,
		respectPreference: true,
		kind:              notification.KindUnassignedEscalation,
		data: &notification.Context{
			FamilyID:  task.FamilyID,
			EventID:   task.EventID,
			Event:     event,
			ChildName: s.childName(ctx, task.FamilyID, event.ChildID),
		},
	})
	if !sent {
		return AlertOwnerSkipped
	}

	return AlertSent
}
