package notification

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

// productID identifies the calendar snapshots we emit.
const productID = "-//famcal//notifier//EN"

// defaultEventDuration is used when the end time is missing or not after the start.
const defaultEventDuration = 30 * time.Minute

// clockLayouts are the accepted spellings of StartTime/EndTime.
//
//nolint:gochecknoglobals // Read-only lookup table.
var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

// eventSnapshot is the JSON shape of the "event_data" field.
type eventSnapshot struct {
	ID                  string `json:"id"`
	FamilyID            string `json:"family_id"`
	ChildID             string `json:"child_id"`
	Role                string `json:"role"`
	Place               string `json:"place"`
	StartDate           string `json:"start_date"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	ResponsibleMemberID string `json:"responsible_member_id,omitempty"`
	CreatedBy           string `json:"created_by,omitempty"`
}

func newEventSnapshot(ev *calendar.Event, id, familyID string) eventSnapshot {
	return eventSnapshot{
		ID:                  id,
		FamilyID:            familyID,
		ChildID:             ev.ChildID,
		Role:                string(ev.Role),
		Place:               ev.Place,
		StartDate:           calendar.FormatDate(ev.StartDate),
		StartTime:           ev.StartTime,
		EndTime:             ev.EndTime,
		ResponsibleMemberID: ev.ResponsibleMemberID,
		CreatedBy:           ev.CreatedBy,
	}
}

// eventICS renders a one-event VCALENDAR the client can import directly.
// It reports false when the start time cannot be interpreted.
func (c *Composer) eventICS(ev *calendar.Event, familyID, id, child string) (string, bool) {
	if ev == nil || ev.StartDate.IsZero() {
		return "", false
	}

	start, ok := atClock(ev.StartDate, ev.StartTime, c.location)
	if !ok {
		return "", false
	}

	end, ok := atClock(ev.StartDate, ev.EndTime, c.location)
	if !ok || !end.After(start) {
		end = start.Add(defaultEventDuration)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	vevent := cal.AddEvent(familyID + "-" + id + "@famcal")
	vevent.SetDtStampTime(c.now())
	vevent.SetStartAt(start)
	vevent.SetEndAt(end)
	vevent.SetSummary(child + " " + ev.Role.Label())

	if ev.Place != "" {
		vevent.SetLocation(ev.Place)
	}

	return cal.Serialize(), true
}

// atClock places a wall-clock label on a calendar date in loc.
func atClock(date time.Time, clock string, loc *time.Location) (time.Time, bool) {
	for _, layout := range clockLayouts {
		parsed, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}

		date = date.UTC()

		return time.Date(date.Year(), date.Month(), date.Day(),
			parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc), true
	}

	return time.Time{}, false
}
