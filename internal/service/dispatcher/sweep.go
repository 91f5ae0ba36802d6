package dispatcher

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/metrics"
)

// SweepStats summarizes one daily sweep.
type SweepStats struct {
	Families int
	Alerted  int
	Skipped  int
	Failed   int
}

// RunSweep alerts every family owner about tomorrow's unassigned events.
// Only listing the families can fail the sweep; each family is isolated.
func (s *Service) RunSweep(ctx context.Context) (SweepStats, error) {
	ctx = logger.WithName(ctx, "sweep")

	families, err := s.repo.ListFamilies(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list families: %w", err)
	}

	var (
		today            = calendar.DateOf(time.Now())
		from             = today.AddDate(0, 0, 1)
		to               = today.AddDate(0, 0, 2)
		alerted, skipped atomic.Int64
		failed           atomic.Int64
		group            errgroup.Group
	)

	group.SetLimit(s.opts.SweepConcurrency)

	for _, family := range families {
		group.Go(func() error {
			familyCtx := logger.WithKV(ctx, "family_id", family.ID)

			sent, err := s.sweepFamily(familyCtx, family, from, to)

			switch {
			case err != nil:
				failed.Add(1)
				metrics.IncSweepFamily(metrics.SweepFailed)
				logger.ErrorKV(familyCtx, "Sweep of family failed", "error", err)
			case sent:
				alerted.Add(1)
				metrics.IncSweepFamily(metrics.SweepAlerted)
			default:
				skipped.Add(1)
				metrics.IncSweepFamily(metrics.SweepSkipped)
			}

			return nil
		})
	}

	_ = group.Wait()

	stats := SweepStats{
		Families: len(families),
		Alerted:  int(alerted.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
	}

	logger.InfoKV(ctx, "Sweep finished",
		"families", stats.Families,
		"alerted", stats.Alerted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)

	return stats, nil
}

// sweepFamily sends one summary to the owner when the family has unassigned
// events in [from, to).
func (s *Service) sweepFamily(ctx context.Context, family *calendar.Family, from, to time.Time) (bool, error) {
	owner, err := s.resolve(ctx, family.OwnerID, calendar.CategoryUnassignedAlerts)
	if err != nil {
		return false, err
	}

	if owner.user == nil || !owner.enabled {
		return false, nil
	}

	events, err := s.repo.ListEventsBetween(ctx, family.ID, from, to)
	if err != nil {
		return false, fmt.Errorf("list events: %w", err)
	}

	events = slices.DeleteFunc(events, (*calendar.Event).Assigned)
	if len(events) == 0 {
		return false, nil
	}

	slices.SortStableFunc(events, func(a, b *calendar.Event) int {
		return cmp.Or(cmp.Compare(a.StartTime, b.StartTime), cmp.Compare(a.ID, b.ID))
	})

	var (
		names     = make(map[string]string)
		summaries = make([]notification.Summary, 0, len(events))
	)

	for _, ev := range events {
		name, ok := names[ev.ChildID]
		if !ok {
			name = s.childName(ctx, family.ID, ev.ChildID)
			names[ev.ChildID] = name
		}

		summaries = append(summaries, notification.Summary{
			EventID:   ev.ID,
			ChildName: name,
			Role:      ev.Role,
			Place:     ev.Place,
			StartTime: ev.StartTime,
		})
	}

	sent := s.deliver(logger.WithKV(ctx, "recipient", family.OwnerID), owner, &notice{
		userID:            family.OwnerID,
		category:          calendar.CategoryUnassignedAlerts,
		respectPreference: true,
		kind:              notification.KindUnassignedTomorrow,
		data: &notification.Context{
			FamilyID:   family.ID,
			Unassigned: summaries,
		},
	})

	return sent, nil
}
