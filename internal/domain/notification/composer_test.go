package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

// fixedNow pins the calendar snapshot stamp.
func fixedNow() time.Time {
	return time.Date(2024, time.April, 30, 12, 0, 0, 0, time.UTC)
}

// sampleEvent returns a Wednesday pick-up.
func sampleEvent() *calendar.Event {
	return &calendar.Event{
		ID:                  "ev-1",
		FamilyID:            "fam-1",
		ChildID:             "child-1",
		Role:                calendar.RolePickUp,
		Place:               "School",
		StartDate:           time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		StartTime:           "15:30",
		EndTime:             "16:00",
		ResponsibleMemberID: "U2",
		CreatedBy:           "U1",
	}
}

// TestCompose_Assigned checks text, data block, snapshots and hints of the assigned alert.
func TestCompose_Assigned(t *testing.T) {
	t.Parallel()

	c := NewComposer(time.UTC, WithClock(fixedNow))

	p, err := c.Compose(KindAssigned, &Context{
		FamilyID:  "fam-1",
		EventID:   "ev-1",
		Event:     sampleEvent(),
		ChildName: "Emma",
	})
	require.NoError(t, err)

	require.Equal(t, "You're now responsible for Emma pick-up", p.Title)
	require.Equal(t, "Emma pick-up at School on Wed, May 1 15:30. Added to your calendar.", p.Body)
	require.Equal(t, ClassVisible, p.Class())
	require.Equal(t, DefaultSound, p.Hints.Sound)
	require.Equal(t, 1, p.Hints.Badge)
	require.Equal(t, ChannelAssignments, p.Hints.AndroidChannel)

	require.Equal(t, TypeEventAssigned, p.Type())
	require.Equal(t, "ev-1", p.Data[KeyEventID])
	require.Equal(t, "fam-1", p.Data[KeyFamilyID])
	require.Equal(t, ActionCalendarSync, p.Data[KeyAction])

	var snapshot map[string]string
	require.NoError(t, json.Unmarshal([]byte(p.Data[KeyEventData]), &snapshot))
	require.Equal(t, "2024-05-01", snapshot["start_date"])
	require.Equal(t, "U2", snapshot["responsible_member_id"])
	require.Equal(t, "pickUp", snapshot["role"])

	require.Contains(t, p.Data[KeyEventICS], "BEGIN:VCALENDAR")
	require.Contains(t, p.Data[KeyEventICS], "20240501T153000Z")
	require.Contains(t, p.Data[KeyEventICS], "20240501T160000Z")
	require.Contains(t, p.Data[KeyEventICS], "Emma pick-up")
}

// TestCompose_Reassigned names the assigner and falls back for unknown names.
func TestCompose_Reassigned(t *testing.T) {
	t.Parallel()

	c := NewComposer(nil)

	p, err := c.Compose(KindReassigned, &Context{
		FamilyID:  "fam-1",
		Event:     sampleEvent(),
		ActorName: "Alex",
		ChildName: "Emma",
	})
	require.NoError(t, err)
	require.Equal(t, "Reassigned: Emma pick-up", p.Title)
	require.Equal(t, "Alex assigned you Emma's pick-up at School on Wed, May 1 15:30. Added to your calendar.", p.Body)
	require.Equal(t, "ev-1", p.Data[KeyEventID])

	p, err = c.Compose(KindReassigned, &Context{FamilyID: "fam-1", Event: sampleEvent()})
	require.NoError(t, err)
	require.Equal(t, "Reassigned: Child pick-up", p.Title)
	require.Contains(t, p.Body, "Someone assigned you Child's pick-up")
}

// TestCompose_Updated checks the change summary.
func TestCompose_Updated(t *testing.T) {
	t.Parallel()

	ev := sampleEvent()
	ev.Role = calendar.RoleDropOff
	ev.StartTime = "08:15"
	ev.Place = "Gym"

	p, err := NewComposer(time.UTC).Compose(KindUpdated, &Context{FamilyID: "fam-1", Event: ev, ChildName: "Emma"})
	require.NoError(t, err)
	require.Equal(t, "Updated: Emma drop-off", p.Title)
	require.Equal(t, "Changed to Wed, May 1 08:15 at Gym.", p.Body)
	require.Equal(t, TypeEventUpdated, p.Type())
	require.Equal(t, ChannelAlerts, p.Hints.AndroidChannel)
}

// TestCompose_CalendarRemoval is silent and carries no visible text.
func TestCompose_CalendarRemoval(t *testing.T) {
	t.Parallel()

	p, err := NewComposer(time.UTC).Compose(KindCalendarRemoval, &Context{FamilyID: "fam-1", EventID: "ev-9"})
	require.NoError(t, err)
	require.True(t, p.Silent())
	require.Empty(t, p.Title)
	require.Empty(t, p.Body)
	require.Empty(t, p.Hints.Sound)
	require.Zero(t, p.Hints.Badge)
	require.Equal(t, map[string]string{
		KeyType:     TypeCalendarRemoval,
		KeyEventID:  "ev-9",
		KeyFamilyID: "fam-1",
		KeyAction:   ActionRemoveFromCalendar,
	}, p.Data)
}

// TestCompose_Deleted tells the assignee the event is gone.
func TestCompose_Deleted(t *testing.T) {
	t.Parallel()

	p, err := NewComposer(time.UTC).Compose(KindDeleted, &Context{FamilyID: "fam-1", Event: sampleEvent(), ChildName: "Emma"})
	require.NoError(t, err)
	require.Equal(t, "Event removed", p.Title)
	require.Equal(t, "Emma pick-up at School on Wed, May 1 was removed.", p.Body)
	require.Equal(t, TypeEventDeleted, p.Type())
	require.Equal(t, ActionRemoveFromCalendar, p.Data[KeyAction])
}

// TestCompose_Confirmed renders the confirmation time in the configured zone.
func TestCompose_Confirmed(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*60*60)
	conf := &calendar.Confirmation{
		EventID:       "ev-1",
		ChildID:       "child-1",
		Role:          calendar.RoleDropOff,
		Place:         "School",
		ConfirmedByID: "U1",
		ConfirmedAt:   time.Date(2024, time.May, 1, 13, 5, 0, 0, time.UTC),
	}

	p, err := NewComposer(loc).Compose(KindConfirmed, &Context{
		FamilyID:       "fam-1",
		ConfirmationID: "conf-1",
		Confirmation:   conf,
		ChildName:      "Emma",
		ActorName:      "Alex",
	})
	require.NoError(t, err)
	require.Equal(t, "Done ✅ Emma drop-off", p.Title)
	require.Equal(t, "Alex confirmed Emma drop-off at School at 8:05 AM.", p.Body)
	require.Equal(t, TypeEventConfirmed, p.Type())
	require.Equal(t, "conf-1", p.Data[KeyConfirmationID])
	require.Equal(t, "ev-1", p.Data[KeyEventID])
	require.Equal(t, ChannelConfirmations, p.Hints.AndroidChannel)

	_, err = NewComposer(loc).Compose(KindConfirmed, &Context{FamilyID: "fam-1"})
	require.ErrorIs(t, err, ErrMissingConfirmation)
}

// TestCompose_UnassignedTomorrow joins the summaries and lists every event id.
func TestCompose_UnassignedTomorrow(t *testing.T) {
	t.Parallel()

	c := NewComposer(time.UTC)

	p, err := c.Compose(KindUnassignedTomorrow, &Context{
		FamilyID: "fam-1",
		Unassigned: []Summary{
			{EventID: "ev-1", ChildName: "Emma", Role: calendar.RoleDropOff, Place: "School", StartTime: "08:00"},
			{EventID: "ev-2", ChildName: "Noah", Role: calendar.RolePickUp, Place: "Gym", StartTime: "17:00"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "⚠️ 2 Unassigned Events Tomorrow", p.Title)
	require.Equal(t, "Please assign: Emma drop-off at School at 08:00, Noah pick-up at Gym at 17:00", p.Body)
	require.Equal(t, TypeUnassignedEventsAlert, p.Type())
	require.Equal(t, `["ev-1","ev-2"]`, p.Data[KeyEventIDs])
	require.Equal(t, ClickActionOpenCalendar, p.Data[KeyClickAction])
	require.True(t, p.Hints.HighPriority)

	p, err = c.Compose(KindUnassignedTomorrow, &Context{
		FamilyID:   "fam-1",
		Unassigned: []Summary{{EventID: "ev-1", Role: calendar.RoleDropOff, Place: "School", StartTime: "08:00"}},
	})
	require.NoError(t, err)
	require.Equal(t, "⚠️ 1 Unassigned Event Tomorrow", p.Title)

	_, err = c.Compose(KindUnassignedTomorrow, &Context{FamilyID: "fam-1"})
	require.ErrorIs(t, err, ErrNothingToSummarize)
}

// TestCompose_UnassignedEscalation checks the single-event alert.
func TestCompose_UnassignedEscalation(t *testing.T) {
	t.Parallel()

	ev := sampleEvent()
	ev.ResponsibleMemberID = ""

	p, err := NewComposer(time.UTC).Compose(KindUnassignedEscalation, &Context{FamilyID: "fam-1", Event: ev, ChildName: "Emma"})
	require.NoError(t, err)
	require.Equal(t, "⚠️ Unassigned: Emma pick-up", p.Title)
	require.Equal(t, "No one is assigned to Emma pick-up at School on Wed, May 1 15:30. Please assign someone.", p.Body)
	require.Equal(t, `["ev-1"]`, p.Data[KeyEventIDs])
}

// TestCompose_Errors covers unknown kinds and missing snapshots.
func TestCompose_Errors(t *testing.T) {
	t.Parallel()

	c := NewComposer(time.UTC)

	_, err := c.Compose(Kind("bogus"), &Context{})
	require.ErrorIs(t, err, ErrUnknownKind)

	for _, kind := range []Kind{KindAssigned, KindReassigned, KindUpdated, KindDeleted, KindUnassignedEscalation} {
		_, err = c.Compose(kind, nil)
		require.ErrorIs(t, err, ErrMissingEvent, kind)
	}
}

// TestEventICS_SkipsUnparsableTimes omits the calendar snapshot but keeps event_data.
func TestEventICS_SkipsUnparsableTimes(t *testing.T) {
	t.Parallel()

	ev := sampleEvent()
	ev.StartTime = "after lunch"

	p, err := NewComposer(time.UTC).Compose(KindAssigned, &Context{FamilyID: "fam-1", Event: ev})
	require.NoError(t, err)
	require.NotContains(t, p.Data, KeyEventICS)
	require.Contains(t, p.Data, KeyEventData)
}

// TestAtClock accepts 24h and 12h spellings and falls back on a short end time.
func TestAtClock(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	got, ok := atClock(date, "3:30 PM", time.UTC)
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.May, 1, 15, 30, 0, 0, time.UTC), got)

	_, ok = atClock(date, "", time.UTC)
	require.False(t, ok)

	ev := sampleEvent()
	ev.EndTime = ""

	ics, ok := NewComposer(time.UTC, WithClock(fixedNow)).eventICS(ev, "fam-1", "ev-1", "Emma")
	require.True(t, ok)
	require.Contains(t, ics, "20240501T160000Z")
}
