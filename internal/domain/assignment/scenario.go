package assignment

import "github.com/oshokin/famcal-notifier/internal/domain/calendar"

// Scenario is the kind of change detected between two event snapshots.
type Scenario int

const (
	// NoOp means nothing the notifier tracks has changed.
	NoOp Scenario = iota
	// Deleted means the event no longer exists; handled by the deletion path.
	Deleted
	// AssignedNew means a new event was created with an assignee.
	AssignedNew
	// Assigned means an existing unassigned event received an assignee.
	Assigned
	// Reassigned means the assignee changed from one member to another.
	Reassigned
	// UnassignedNew means a new event was created without an assignee.
	UnassignedNew
	// Unassigned means the assignee was cleared.
	Unassigned
	// DetailsUpdated means the assignee is unchanged but time or place moved.
	DetailsUpdated
)

// String returns the snake_case name used in logs, metrics and API responses.
func (s Scenario) String() string {
	switch s {
	case NoOp:
		return "no_op"
	case Deleted:
		return "deleted"
	case AssignedNew:
		return "assigned_new"
	case Assigned:
		return "assigned"
	case Reassigned:
		return "reassigned"
	case UnassignedNew:
		return "unassigned_new"
	case Unassigned:
		return "unassigned"
	case DetailsUpdated:
		return "details_updated"
	default:
		return "unknown"
	}
}

// Classify maps a before/after pair to exactly one scenario.
//
// Assignment-presence transitions take priority over detail edits, so an
// event that is unassigned and moved at the same time is Unassigned.
// Self-assignment is not special here; suppression happens at dispatch.
func Classify(before, after *calendar.Event) Scenario {
	if after == nil {
		return Deleted
	}

	if before == nil {
		if after.Assigned() {
			return AssignedNew
		}

		return UnassignedNew
	}

	previous, current := before.ResponsibleMemberID, after.ResponsibleMemberID

	switch {
	case previous != "" && current == "":
		return Unassigned
	case previous == "" && current != "":
		return Assigned
	case previous != current:
		return Reassigned
	case current != "" && detailsChanged(before, after):
		return DetailsUpdated
	default:
		return NoOp
	}
}

// detailsChanged reports whether any tracked detail differs.
func detailsChanged(before, after *calendar.Event) bool {
	return before.StartTime != after.StartTime ||
		before.EndTime != after.EndTime ||
		before.Place != after.Place
}
