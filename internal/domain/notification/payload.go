package notification

// Kind identifies which template produced a payload.
type Kind string

const (
	// KindAssigned tells a member they are responsible for an event.
	KindAssigned Kind = "assigned"
	// KindReassigned tells a member an event moved to them from someone else.
	KindReassigned Kind = "reassigned"
	// KindUpdated tells the assignee that the time or place changed.
	KindUpdated Kind = "updated"
	// KindCalendarRemoval silently removes an event from a former assignee's calendar.
	KindCalendarRemoval Kind = "calendar_removal"
	// KindDeleted tells the assignee an event was removed.
	KindDeleted Kind = "deleted"
	// KindConfirmed tells partners that a duty was done.
	KindConfirmed Kind = "confirmed"
	// KindUnassignedTomorrow is the daily owner summary of tomorrow's unassigned events.
	KindUnassignedTomorrow Kind = "unassigned_tomorrow"
	// KindUnassignedEscalation is the delayed owner alert for a single unassigned event.
	KindUnassignedEscalation Kind = "unassigned_escalation"
)

// Class is the delivery class of a payload.
type Class int

const (
	// ClassVisible is a user-facing alert.
	ClassVisible Class = iota
	// ClassSilent is a background data sync without any visible alert.
	ClassSilent
)

// String returns a short label for logs and metrics.
func (c Class) String() string {
	if c == ClassSilent {
		return "silent"
	}

	return "visible"
}

// Data block keys relied on by the mobile client.
const (
	KeyType           = "type"
	KeyEventID        = "event_id"
	KeyEventIDs       = "event_ids"
	KeyFamilyID       = "family_id"
	KeyConfirmationID = "confirmation_id"
	KeyAction         = "action"
	KeyEventData      = "event_data"
	KeyEventICS       = "event_ics"
	KeyClickAction    = "click_action"
)

// Data block "type" values.
const (
	TypeEventAssigned         = "event_assigned"
	TypeEventUpdated          = "event_updated"
	TypeEventDeleted          = "event_deleted"
	TypeCalendarRemoval       = "calendar_removal"
	TypeEventConfirmed        = "event_confirmed"
	TypeUnassignedEventsAlert = "unassigned_events_alert"
)

// Data block "action" values.
const (
	ActionCalendarSync       = "calendar_sync"
	ActionRemoveFromCalendar = "remove_from_calendar"
)

// ClickActionOpenCalendar deep-links the client into the calendar screen.
const ClickActionOpenCalendar = "OPEN_CALENDAR"

// Android notification channels registered by the client.
const (
	ChannelAssignments   = "assignments"
	ChannelAlerts        = "alerts"
	ChannelConfirmations = "confirmations"
)

// DefaultSound is the platform default notification sound.
const DefaultSound = "default"

// Hints carries platform-specific delivery instructions.
type Hints struct {
	// Class is visible or silent.
	Class Class
	// Sound is played for visible alerts.
	Sound string
	// Badge is the badge increment for visible alerts.
	Badge int
	// AndroidChannel is the channel id for visible alerts on Android.
	AndroidChannel string
	// HighPriority asks the transport for immediate delivery.
	HighPriority bool
}

// Payload is a composed push notification.
type Payload struct {
	// Kind is the template that produced the payload.
	Kind Kind
	// Title is empty for silent payloads.
	Title string
	// Body is empty for silent payloads.
	Body string
	// Data is the machine-readable block delivered to the client.
	Data map[string]string
	// Hints carries the platform delivery instructions.
	Hints Hints
}

// Class returns the delivery class of the payload.
func (p *Payload) Class() Class {
	return p.Hints.Class
}

// Silent reports whether the payload must be delivered without a visible alert.
func (p *Payload) Silent() bool {
	return p.Hints.Class == ClassSilent
}

// Type returns the data block "type" value.
func (p *Payload) Type() string {
	return p.Data[KeyType]
}

// visibleHints returns the defaults shared by every visible alert.
func visibleHints(channel string, highPriority bool) Hints {
	return Hints{
		Class:          ClassVisible,
		Sound:          DefaultSound,
		Badge:          1,
		AndroidChannel: channel,
		HighPriority:   highPriority,
	}
}

// silentHints returns the hints for background syncs.
func silentHints() Hints {
	return Hints{
		Class:        ClassSilent,
		HighPriority: true,
	}
}
