package trigger

import (
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

var (
	// ErrMissingIdentifier is returned when a family or entity id is empty.
	ErrMissingIdentifier = errors.New("family and entity ids are required")
	// ErrUnknownRole is returned for roles other than dropOff and pickUp.
	ErrUnknownRole = errors.New("unknown role")
	// ErrMissingConfirmation is returned when the confirmation body is absent.
	ErrMissingConfirmation = errors.New("confirmation is required")
)

// eventSnapshot mirrors the stored event document.
type eventSnapshot struct {
	ChildID             string `json:"child_id"`
	Role                string `json:"role"`
	Place               string `json:"place"`
	StartDate           string `json:"start_date"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	ResponsibleMemberID string `json:"responsible_member_id"`
	CreatedBy           string `json:"created_by"`
}

func (s *eventSnapshot) toDomain(familyID, eventID string) (*calendar.Event, error) {
	if s == nil {
		return nil, nil //nolint:nilnil // Absent side of a create or delete.
	}

	role, err := parseRole(s.Role)
	if err != nil {
		return nil, err
	}

	startDate, err := calendar.ParseDate(s.StartDate)
	if err != nil {
		return nil, err
	}

	return &calendar.Event{
		ID:                  eventID,
		FamilyID:            familyID,
		ChildID:             s.ChildID,
		Role:                role,
		Place:               s.Place,
		StartDate:           startDate,
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		ResponsibleMemberID: s.ResponsibleMemberID,
		CreatedBy:           s.CreatedBy,
	}, nil
}

// eventWriteRequest is one event change: before is absent on create, after on delete.
type eventWriteRequest struct {
	FamilyID string         `json:"family_id"`
	EventID  string         `json:"event_id"`
	Before   *eventSnapshot `json:"before"`
	After    *eventSnapshot `json:"after"`
}

func (r *eventWriteRequest) decode() (before, after *calendar.Event, err error) {
	if r.FamilyID == "" || r.EventID == "" {
		return nil, nil, ErrMissingIdentifier
	}

	if before, err = r.Before.toDomain(r.FamilyID, r.EventID); err != nil {
		return nil, nil, fmt.Errorf("before: %w", err)
	}

	if after, err = r.After.toDomain(r.FamilyID, r.EventID); err != nil {
		return nil, nil, fmt.Errorf("after: %w", err)
	}

	return before, after, nil
}

type confirmationSnapshot struct {
	EventID       string    `json:"event_id"`
	ChildID       string    `json:"child_id"`
	Role          string    `json:"role"`
	Place         string    `json:"place"`
	ConfirmedByID string    `json:"confirmed_by_id"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// confirmationRequest is one newly created confirmation.
type confirmationRequest struct {
	FamilyID       string                `json:"family_id"`
	ConfirmationID string                `json:"confirmation_id"`
	Confirmation   *confirmationSnapshot `json:"confirmation"`
}

func (r *confirmationRequest) decode() (*calendar.Confirmation, error) {
	if r.FamilyID == "" || r.ConfirmationID == "" {
		return nil, ErrMissingIdentifier
	}

	c := r.Confirmation
	if c == nil {
		return nil, ErrMissingConfirmation
	}

	role, err := parseRole(c.Role)
	if err != nil {
		return nil, err
	}

	return &calendar.Confirmation{
		EventID:       c.EventID,
		ChildID:       c.ChildID,
		Role:          role,
		Place:         c.Place,
		ConfirmedByID: c.ConfirmedByID,
		ConfirmedAt:   c.ConfirmedAt,
	}, nil
}

func parseRole(value string) (calendar.Role, error) {
	switch role := calendar.Role(value); role {
	case calendar.RoleDropOff, calendar.RolePickUp:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
}
