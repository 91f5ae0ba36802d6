package dispatcher

import (
	"context"
	"errors"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/repository/store"
)

// HandleConfirmation tells every other family member that a duty was done.
// It returns the number of members a send was attempted for.
func (s *Service) HandleConfirmation(
	ctx context.Context,
	familyID, confirmationID string,
	conf *calendar.Confirmation,
) int {
	if conf == nil {
		return 0
	}

	ctx = logger.WithKV(ctx, "family_id", familyID, "confirmation_id", confirmationID)

	family, err := s.repo.GetFamily(ctx, familyID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.ErrorKV(ctx, "Family lookup failed", "error", err)
		}

		return 0
	}

	partners := family.MembersExcept(conf.ConfirmedByID)
	if len(partners) == 0 {
		return 0
	}

	data := &notification.Context{
		FamilyID:       familyID,
		EventID:        conf.EventID,
		ConfirmationID: confirmationID,
		Confirmation:   conf,
		ChildName:      s.childName(ctx, familyID, conf.ChildID),
		ActorName:      s.displayName(ctx, conf.ConfirmedByID),
	}

	var sent int

	for _, partnerID := range partners {
		if s.notify(ctx, &notice{
			userID:            partnerID,
			category:          calendar.CategoryConfirmations,
			respectPreference: true,
			kind:              notification.KindConfirmed,
			data:              data,
		}) {
			sent++
		}
	}

	return sent
}
