package dispatcher

import (
	"context"

	"github.com/oshokin/famcal-notifier/internal/domain/assignment"
	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/metrics"
)

// HandleEventWrite classifies one event write and runs its side effects.
// Replaying the same write is harmless: an unchanged pair classifies as NoOp.
func (s *Service) HandleEventWrite(
	ctx context.Context,
	familyID, eventID string,
	before, after *calendar.Event,
) assignment.Scenario {
	plan := assignment.Decide(before, after)

	metrics.IncScenario(plan.Scenario.String())

	ctx = logger.WithKV(ctx, "family_id", familyID, "event_id", eventID, "scenario", plan.Scenario.String())
	logger.DebugKV(ctx, "Event write classified")

	if plan.Deletion {
		s.handleDeletion(ctx, familyID, eventID, before)

		return plan.Scenario
	}

	if plan.Notice != assignment.NoticeNone {
		if plan.Suppressed(after) {
			logger.DebugKV(ctx, "Self-assignment, notification suppressed", "recipient", plan.Recipient)
		} else {
			s.notify(ctx, s.assigneeNotice(ctx, familyID, eventID, &plan, after))
		}
	}

	if plan.RemoveFrom != "" {
		s.notify(ctx, &notice{
			userID:   plan.RemoveFrom,
			category: calendar.CategoryAssignments,
			kind:     notification.KindCalendarRemoval,
			data: &notification.Context{
				FamilyID: familyID,
				EventID:  eventID,
				Event:    before,
			},
		})
	}

	if plan.Escalate {
		s.MaybeSchedule(ctx, familyID, eventID, after)
	}

	return plan.Scenario
}

// assigneeNotice builds the visible notice for the current assignee.
func (s *Service) assigneeNotice(
	ctx context.Context,
	familyID, eventID string,
	plan *assignment.Plan,
	after *calendar.Event,
) *notice {
	n := &notice{
		userID:            plan.Recipient,
		category:          calendar.CategoryAssignments,
		respectPreference: plan.RespectPreference,
		data: &notification.Context{
			FamilyID:  familyID,
			EventID:   eventID,
			Event:     after,
			ChildName: s.childName(ctx, familyID, after.ChildID),
		},
	}

	switch plan.Notice {
	case assignment.NoticeReassigned:
		n.kind = notification.KindReassigned
		n.data.ActorName = s.displayName(ctx, after.CreatedBy)
	case assignment.NoticeUpdated:
		n.kind = notification.KindUpdated
	default:
		n.kind = notification.KindAssigned
	}

	return n
}

// handleDeletion tells the last assignee of a deleted event that it is gone.
// Deleting an unassigned event notifies nobody.
func (s *Service) handleDeletion(ctx context.Context, familyID, eventID string, before *calendar.Event) {
	if !before.Assigned() {
		return
	}

	s.notify(ctx, &notice{
		userID:   before.ResponsibleMemberID,
		category: calendar.CategoryAssignments,
		kind:     notification.KindDeleted,
		data: &notification.Context{
			FamilyID:  familyID,
			EventID:   eventID,
			Event:     before,
			ChildName: s.childName(ctx, familyID, before.ChildID),
		},
	})
}
