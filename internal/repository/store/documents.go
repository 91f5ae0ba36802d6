package store

import (
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

// destinationDocument is one entry of users/{id}.fcm_tokens.
type destinationDocument struct {
	Token    string `firestore:"token"`
	Platform string `firestore:"platform,omitempty"`
}

type settingsDocument struct {
	Notifications map[string]bool `firestore:"notifications"`
}

type userDocument struct {
	DisplayName  string                         `firestore:"display_name"`
	Destinations map[string]destinationDocument `firestore:"fcm_tokens"`
	Settings     settingsDocument               `firestore:"settings"`
}

func (d *userDocument) toDomain(id string) *calendar.User {
	user := &calendar.User{
		ID:           id,
		DisplayName:  d.DisplayName,
		Destinations: make(map[string]calendar.Destination, len(d.Destinations)),
		Preferences:  make(calendar.Preferences, len(d.Settings.Notifications)),
	}

	for deviceID, dest := range d.Destinations {
		user.Destinations[deviceID] = calendar.Destination{Token: dest.Token, Platform: dest.Platform}
	}

	for category, enabled := range d.Settings.Notifications {
		user.Preferences[calendar.Category(category)] = enabled
	}

	return user
}

type familyDocument struct {
	OwnerID   string   `firestore:"owner_id"`
	MemberIDs []string `firestore:"member_ids"`
}

func (d *familyDocument) toDomain(id string) *calendar.Family {
	return &calendar.Family{ID: id, OwnerID: d.OwnerID, MemberIDs: d.MemberIDs}
}

type childDocument struct {
	DisplayName string `firestore:"display_name"`
}

// eventDocument is the stored shape of families/{id}/events/{id}.
type eventDocument struct {
	ChildID             string    `firestore:"child_id"`
	Role                string    `firestore:"role"`
	Place               string    `firestore:"place"`
	StartDate           time.Time `firestore:"start_date"`
	StartTime           string    `firestore:"start_time"`
	EndTime             string    `firestore:"end_time"`
	ResponsibleMemberID string    `firestore:"responsible_member_id"`
	CreatedBy           string    `firestore:"created_by"`
}

func (d *eventDocument) toDomain(familyID, eventID string) *calendar.Event {
	if d == nil {
		return nil
	}

	return &calendar.Event{
		ID:                  eventID,
		FamilyID:            familyID,
		ChildID:             d.ChildID,
		Role:                calendar.Role(d.Role),
		Place:               d.Place,
		StartDate:           calendar.DateOf(d.StartDate),
		StartTime:           d.StartTime,
		EndTime:             d.EndTime,
		ResponsibleMemberID: d.ResponsibleMemberID,
		CreatedBy:           d.CreatedBy,
	}
}
