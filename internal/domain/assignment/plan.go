package assignment

import "github.com/oshokin/famcal-notifier/internal/domain/calendar"

// Notice names the visible notification to send to the current assignee.
type Notice int

const (
	// NoticeNone sends nothing to the current assignee.
	NoticeNone Notice = iota
	// NoticeAssigned tells the assignee they are now responsible.
	NoticeAssigned
	// NoticeReassigned tells the new assignee the duty moved to them.
	NoticeReassigned
	// NoticeUpdated tells the assignee the time or place changed.
	NoticeUpdated
)

// Plan lists the side effects required for one classified write.
type Plan struct {
	// Scenario is the classification result.
	Scenario Scenario
	// Notice is the visible notification for the current assignee.
	Notice Notice
	// Recipient is the user receiving Notice.
	Recipient string
	// SuppressSelf skips Notice when the recipient created the event.
	SuppressSelf bool
	// RespectPreference gates Notice on the recipient's assignments switch.
	RespectPreference bool
	// RemoveFrom is the previous assignee that needs a silent calendar removal.
	RemoveFrom string
	// Escalate asks the escalation scheduler to consider a delayed alert.
	Escalate bool
	// Deletion hands the write to the deletion path.
	Deletion bool
}

// Decide classifies the write and derives its side effects.
//
// Removal and reassignment notices bypass user preferences because they
// correct the recipient's calendar; first assignment and updates do not.
func Decide(before, after *calendar.Event) Plan {
	plan := Plan{Scenario: Classify(before, after)}

	switch plan.Scenario {
	case AssignedNew, Assigned:
		plan.Notice = NoticeAssigned
		plan.Recipient = after.ResponsibleMemberID
		plan.SuppressSelf = true
		plan.RespectPreference = true
	case Reassigned:
		plan.Notice = NoticeReassigned
		plan.Recipient = after.ResponsibleMemberID
		plan.RemoveFrom = before.ResponsibleMemberID
	case UnassignedNew:
		plan.Escalate = true
	case Unassigned:
		plan.Escalate = true
		plan.RemoveFrom = before.ResponsibleMemberID
	case DetailsUpdated:
		plan.Notice = NoticeUpdated
		plan.Recipient = after.ResponsibleMemberID
		plan.RespectPreference = true
	case Deleted:
		plan.Deletion = true
	case NoOp:
	}

	return plan
}

// Suppressed reports whether the notice must be skipped because the
// recipient assigned the event to themselves.
func (p *Plan) Suppressed(after *calendar.Event) bool {
	return p.SuppressSelf && after != nil && p.Recipient == after.CreatedBy
}
