package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

const (
	// dateLabelLayout renders dates as "Mon, Jan 2".
	dateLabelLayout = "Mon, Jan 2"
	// clockLabelLayout renders instants as "3:04 PM".
	clockLabelLayout = "3:04 PM"

	// fallbackChildName is used when the child record is missing.
	fallbackChildName = "Child"
	// fallbackActorName is used when the acting user record is missing.
	fallbackActorName = "Someone"
)

var (
	// ErrUnknownKind is returned for kinds the composer has no template for.
	ErrUnknownKind = errors.New("unknown notification kind")
	// ErrMissingEvent is returned when an event template gets no event.
	ErrMissingEvent = errors.New("event snapshot is required")
	// ErrMissingConfirmation is returned when the confirmation template gets no confirmation.
	ErrMissingConfirmation = errors.New("confirmation is required")
	// ErrNothingToSummarize is returned when the daily summary has no events.
	ErrNothingToSummarize = errors.New("no unassigned events to summarize")
)

// Summary is one line of the daily unassigned-events alert.
type Summary struct {
	EventID   string
	ChildName string
	Role      calendar.Role
	Place     string
	StartTime string
}

// Context is the data a template substitutes.
type Context struct {
	// FamilyID is always required.
	FamilyID string
	// EventID identifies the event; falls back to Event.ID.
	EventID string
	// ConfirmationID identifies the confirmation for KindConfirmed.
	ConfirmationID string
	// Event is the snapshot the notification is about.
	Event *calendar.Event
	// Confirmation is the record for KindConfirmed.
	Confirmation *calendar.Confirmation
	// ChildName is the child's display name.
	ChildName string
	// ActorName is the assigner or confirmer display name.
	ActorName string
	// Unassigned lists tomorrow's unassigned events for KindUnassignedTomorrow.
	Unassigned []Summary
}

// Composer renders payloads. It is safe for concurrent use.
type Composer struct {
	// location is the zone used for clock labels and calendar snapshots.
	location *time.Location
	// now stamps calendar snapshots.
	now func() time.Time
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock overrides the clock used to stamp calendar snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// NewComposer creates a composer rendering clock labels in location (UTC when nil).
func NewComposer(location *time.Location, opts ...Option) *Composer {
	if location == nil {
		location = time.UTC
	}

	c := &Composer{
		location: location,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compose renders the payload of the given kind.
func (c *Composer) Compose(kind Kind, data *Context) (*Payload, error) {
	if data == nil {
		data = new(Context)
	}

	switch kind {
	case KindAssigned, KindReassigned:
		return c.assignment(kind, data)
	case KindUpdated:
		return c.updated(data)
	case KindCalendarRemoval:
		return c.removal(data), nil
	case KindDeleted:
		return c.deleted(data)
	case KindConfirmed:
		return c.confirmed(data)
	case KindUnassignedTomorrow:
		return c.unassignedTomorrow(data)
	case KindUnassignedEscalation:
		return c.unassignedEscalation(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// assignment renders the assigned and reassigned alerts.
func (c *Composer) assignment(kind Kind, data *Context) (*Payload, error) {
	ev := data.Event
	if ev == nil {
		return nil, ErrMissingEvent
	}

	var (
		child = childName(data.ChildName)
		role  = ev.Role.Label()
		when  = strings.TrimSpace(dateLabel(ev.StartDate) + " " + ev.StartTime)
		title = fmt.Sprintf("You're now responsible for %s %s", child, role)
		body  = fmt.Sprintf("%s %s at %s on %s. Added to your calendar.", child, role, ev.Place, when)
	)

	if kind == KindReassigned {
		title = fmt.Sprintf("Reassigned: %s %s", child, role)
		body = fmt.Sprintf("%s assigned you %s's %s at %s on %s. Added to your calendar.",
			actorName(data.ActorName), child, role, ev.Place, when)
	}

	return &Payload{
		Kind:  kind,
		Title: title,
		Body:  body,
		Data:  c.syncData(TypeEventAssigned, data, child),
		Hints: visibleHints(ChannelAssignments, false),
	}, nil
}

// updated renders the time/place change alert.
func (c *Composer) updated(data *Context) (*Payload, error) {
	ev := data.Event
	if ev == nil {
		return nil, ErrMissingEvent
	}

	child := childName(data.ChildName)
	when := strings.TrimSpace(dateLabel(ev.StartDate) + " " + ev.StartTime)

	return &Payload{
		Kind:  KindUpdated,
		Title: fmt.Sprintf("Updated: %s %s", child, ev.Role.Label()),
		Body:  fmt.Sprintf("Changed to %s at %s.", when, ev.Place),
		Data:  c.syncData(TypeEventUpdated, data, child),
		Hints: visibleHints(ChannelAlerts, false),
	}, nil
}

// removal renders the silent calendar removal sync.
func (c *Composer) removal(data *Context) *Payload {
	return &Payload{
		Kind: KindCalendarRemoval,
		Data: map[string]string{
			KeyType:     TypeCalendarRemoval,
			KeyEventID:  eventID(data),
			KeyFamilyID: data.FamilyID,
			KeyAction:   ActionRemoveFromCalendar,
		},
		Hints: silentHints(),
	}
}

// deleted renders the alert sent to the assignee of a deleted event.
func (c *Composer) deleted(data *Context) (*Payload, error) {
	ev := data.Event
	if ev == nil {
		return nil, ErrMissingEvent
	}

	child := childName(data.ChildName)

	return &Payload{
		Kind:  KindDeleted,
		Title: "Event removed",
		Body: fmt.Sprintf("%s %s at %s on %s was removed.",
			child, ev.Role.Label(), ev.Place, dateLabel(ev.StartDate)),
		Data: map[string]string{
			KeyType:     TypeEventDeleted,
			KeyEventID:  eventID(data),
			KeyFamilyID: data.FamilyID,
			KeyAction:   ActionRemoveFromCalendar,
		},
		Hints: visibleHints(ChannelAlerts, false),
	}, nil
}

// confirmed renders the partner confirmation alert.
func (c *Composer) confirmed(data *Context) (*Payload, error) {
	conf := data.Confirmation
	if conf == nil {
		return nil, ErrMissingConfirmation
	}

	var (
		child = childName(data.ChildName)
		role  = conf.Role.Label()
		at    = conf.ConfirmedAt.In(c.location).Format(clockLabelLayout)
	)

	return &Payload{
		Kind:  KindConfirmed,
		Title: fmt.Sprintf("Done ✅ %s %s", child, role),
		Body: fmt.Sprintf("%s confirmed %s %s at %s at %s.",
			actorName(data.ActorName), child, role, conf.Place, at),
		Data: map[string]string{
			KeyType:           TypeEventConfirmed,
			KeyEventID:        conf.EventID,
			KeyConfirmationID: data.ConfirmationID,
			KeyFamilyID:       data.FamilyID,
			KeyAction:         ActionCalendarSync,
		},
		Hints: visibleHints(ChannelConfirmations, false),
	}, nil
}

// unassignedTomorrow renders the daily owner summary.
func (c *Composer) unassignedTomorrow(data *Context) (*Payload, error) {
	count := len(data.Unassigned)
	if count == 0 {
		return nil, ErrNothingToSummarize
	}

	var (
		lines = make([]string, 0, count)
		ids   = make([]string, 0, count)
	)

	for _, s := range data.Unassigned {
		lines = append(lines, fmt.Sprintf("%s %s at %s at %s", childName(s.ChildName), s.Role.Label(), s.Place, s.StartTime))
		ids = append(ids, s.EventID)
	}

	plural := ""
	if count > 1 {
		plural = "s"
	}

	return &Payload{
		Kind:  KindUnassignedTomorrow,
		Title: fmt.Sprintf("⚠️ %d Unassigned Event%s Tomorrow", count, plural),
		Body:  "Please assign: " + strings.Join(lines, ", "),
		Data:  unassignedData(data.FamilyID, ids),
		Hints: visibleHints(ChannelAlerts, true),
	}, nil
}

// unassignedEscalation renders the delayed alert for one still-unassigned event.
func (c *Composer) unassignedEscalation(data *Context) (*Payload, error) {
	ev := data.Event
	if ev == nil {
		return nil, ErrMissingEvent
	}

	var (
		child = childName(data.ChildName)
		role  = ev.Role.Label()
		when  = strings.TrimSpace(dateLabel(ev.StartDate) + " " + ev.StartTime)
	)

	return &Payload{
		Kind:  KindUnassignedEscalation,
		Title: fmt.Sprintf("⚠️ Unassigned: %s %s", child, role),
		Body:  fmt.Sprintf("No one is assigned to %s %s at %s on %s. Please assign someone.", child, role, ev.Place, when),
		Data:  unassignedData(data.FamilyID, []string{eventID(data)}),
		Hints: visibleHints(ChannelAlerts, true),
	}, nil
}

// syncData builds the calendar-sync data block with the event snapshot.
func (c *Composer) syncData(kind string, data *Context, child string) map[string]string {
	block := map[string]string{
		KeyType:     kind,
		KeyEventID:  eventID(data),
		KeyFamilyID: data.FamilyID,
		KeyAction:   ActionCalendarSync,
	}

	if snapshot, err := json.Marshal(newEventSnapshot(data.Event, eventID(data), data.FamilyID)); err == nil {
		block[KeyEventData] = string(snapshot)
	}

	if ics, ok := c.eventICS(data.Event, data.FamilyID, eventID(data), child); ok {
		block[KeyEventICS] = ics
	}

	return block
}

// unassignedData builds the data block of both unassigned alerts.
func unassignedData(familyID string, ids []string) map[string]string {
	encoded, err := json.Marshal(ids)
	if err != nil {
		encoded = []byte("[]")
	}

	return map[string]string{
		KeyType:        TypeUnassignedEventsAlert,
		KeyFamilyID:    familyID,
		KeyEventIDs:    string(encoded),
		KeyAction:      ActionCalendarSync,
		KeyClickAction: ClickActionOpenCalendar,
	}
}

// eventID prefers the explicit id over the snapshot's own.
func eventID(data *Context) string {
	if data.EventID != "" || data.Event == nil {
		return data.EventID
	}

	return data.Event.ID
}

// dateLabel renders a calendar date like "Mon, Jan 2".
func dateLabel(date time.Time) string {
	if date.IsZero() {
		return ""
	}

	return date.UTC().Format(dateLabelLayout)
}

func childName(name string) string {
	if name == "" {
		return fallbackChildName
	}

	return name
}

func actorName(name string) string {
	if name == "" {
		return fallbackActorName
	}

	return name
}
