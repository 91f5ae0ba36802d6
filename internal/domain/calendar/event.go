package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the kind of duty an event represents.
type Role string

const (
	// RoleDropOff means taking the child to the place.
	RoleDropOff Role = "dropOff"
	// RolePickUp means collecting the child from the place.
	RolePickUp Role = "pickUp"
)

// Label returns the human form used in notification text.
// Anything other than drop-off reads as pick-up.
func (r Role) Label() string {
	if r == RoleDropOff {
		return "drop-off"
	}

	return "pick-up"
}

// DateLayout is the ISO calendar-date layout used for StartDate on the wire and in SQL.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a start date cannot be parsed.
var ErrInvalidDate = errors.New("invalid calendar date")

// Event is a single drop-off or pick-up duty inside a family calendar.
type Event struct {
	// ID is the event identifier within its family.
	ID string
	// FamilyID is the owning family.
	FamilyID string
	// ChildID references the child the duty is for.
	ChildID string
	// Role is drop-off or pick-up.
	Role Role
	// Place is a free-form location label.
	Place string
	// StartDate is the calendar date of the event at 00:00 UTC.
	StartDate time.Time
	// StartTime is the local start time as entered by the user, e.g. "08:15".
	StartTime string
	// EndTime is the local end time as entered by the user.
	EndTime string
	// ResponsibleMemberID is the assignee; empty means unassigned.
	ResponsibleMemberID string
	// CreatedBy is the user who created the event.
	CreatedBy string
}

// Assigned reports whether someone is responsible for the event.
func (e *Event) Assigned() bool {
	return e != nil && e.ResponsibleMemberID != ""
}

// Clone returns a copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}

	cloned := *e

	return &cloned
}

// ParseDate accepts either an ISO date ("2024-05-01") or an RFC 3339 timestamp
// and returns the calendar date at 00:00 UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}

	return DateOf(t), nil
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Confirmation records that a family member performed an event's duty.
// Confirmations are immutable once created.
type Confirmation struct {
	// EventID references the confirmed event.
	EventID string
	// ChildID references the child the duty was for.
	ChildID string
	// Role is drop-off or pick-up.
	Role Role
	// Place is the location label copied from the event.
	Place string
	// ConfirmedByID is the user who confirmed.
	ConfirmedByID string
	// ConfirmedAt is when the duty was confirmed.
	ConfirmedAt time.Time
}
