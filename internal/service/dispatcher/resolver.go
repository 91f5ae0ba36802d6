package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/repository/store"
)

// recipient is a resolved user for one notification category.
type recipient struct {
	// user is nil when the lookup missed.
	user *calendar.User
	// destinations are the non-empty tokens of the user.
	destinations []string
	// enabled reflects the user's switch for the category.
	enabled bool
}

// resolve looks up the user's destinations and preference. A missing user
// resolves to an empty, disabled recipient without error.
func (s *Service) resolve(ctx context.Context, userID string, category calendar.Category) (recipient, error) {
	if userID == "" {
		return recipient{}, nil
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return recipient{}, nil
		}

		return recipient{}, fmt.Errorf("resolve user %q: %w", userID, err)
	}

	return recipient{
		user:         user,
		destinations: user.Tokens(),
		enabled:      user.Preferences.Allows(category),
	}, nil
}

// childName returns the child's display name or "" when it cannot be read.
func (s *Service) childName(ctx context.Context, familyID, childID string) string {
	if childID == "" {
		return ""
	}

	child, err := s.repo.GetChild(ctx, familyID, childID)
	if err != nil {
		return ""
	}

	return child.DisplayName
}

// displayName returns the user's display name or "" when it cannot be read.
func (s *Service) displayName(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return ""
	}

	return user.DisplayName
}
