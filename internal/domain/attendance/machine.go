package attendance

import (
	"errors"
	"fmt"

	"attend/internal/domain/calendar"
)

type Event string

const (
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventOverride Event = "override"
)

var ErrInvalidTransition = errors.New("invalid attendance transition")

// transitions is the full state machine. Override is the only event allowed
// out of a terminal state; everything absent here is rejected.
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventApprove:  StatusPresent,
		EventReject:   StatusRejected,
		EventOverride: StatusLeaveOverride,
	},
	StatusPendingCO: {
		EventApprove:  StatusPresent,
		EventReject:   StatusRejected,
		EventOverride: StatusLeaveOverride,
	},
	StatusPresent: {
		EventOverride: StatusLeaveOverride,
	},
	StatusRejected: {
		EventOverride: StatusLeaveOverride,
	},
	StatusLeaveOverride: {
		EventOverride: StatusLeaveOverride,
	},
}

func Next(current Status, event Event) (Status, error) {
	if next, ok := transitions[current][event]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, current)
}

func IsTerminal(status Status) bool {
	switch status {
	case StatusPresent, StatusRejected, StatusLeaveOverride:
		return true
	}
	return false
}

// initialStatus picks the submission state for a day classification.
// Holiday wins over Sunday; the note explains the compensatory-off
// implication to the approving MD.
func initialStatus(kind calendar.DayKind) (Status, string) {
	switch kind {
	case calendar.DayHoliday:
		return StatusPendingCO, "Worked on a company holiday"
	case calendar.DaySunday:
		return StatusPendingCO, "Worked on a Sunday"
	default:
		return StatusPending, ""
	}
}
