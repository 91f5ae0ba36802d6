package dispatcher

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/gateway/tasks"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/metrics"
)

// EscalationTask is the JSON body a fired escalation posts back.
type EscalationTask struct {
	FamilyID string `json:"familyId"`
	EventID  string `json:"eventId"`
}

// MaybeSchedule enqueues a delayed unassigned alert for events within the
// horizon. The alert fires a fixed delay after now, not relative to the event.
// Tasks are not deduplicated; HandleUnassignedAlert re-checks state when one fires.
func (s *Service) MaybeSchedule(ctx context.Context, familyID, eventID string, event *calendar.Event) bool {
	if event == nil {
		return false
	}

	now := time.Now()

	days := daysUntil(now, event.StartDate)
	if days > s.opts.HorizonDays {
		metrics.IncEscalation(metrics.EscalationBeyond)
		logger.DebugKV(ctx, "Event beyond escalation horizon", "days_until", days)

		return false
	}

	body, err := json.Marshal(EscalationTask{FamilyID: familyID, EventID: eventID})
	if err != nil {
		metrics.IncEscalation(metrics.EscalationFailed)
		logger.ErrorKV(ctx, "Encode escalation task failed", "error", err)

		return false
	}

	fireAt := now.Add(s.opts.EscalationDelay)

	name, err := s.queue.Enqueue(ctx, &tasks.Request{
		Queue:        s.opts.Queue,
		TargetURL:    s.opts.TargetURL,
		Body:         body,
		ScheduleTime: fireAt,
	})
	if err != nil {
		metrics.IncEscalation(metrics.EscalationFailed)
		logger.ErrorKV(ctx, "Schedule escalation failed", "error", err)

		return false
	}

	metrics.IncEscalation(metrics.EscalationScheduled)
	logger.InfoKV(ctx, "Escalation scheduled", "task", name, "fire_at", fireAt, "days_until", days)

	return true
}

// daysUntil rounds the distance to the event's date up to whole days.
func daysUntil(now, date time.Time) int {
	return int(math.Ceil(date.Sub(now).Hours() / 24))
}
