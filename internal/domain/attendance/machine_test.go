package attendance

import (
	"errors"
	"testing"

	"attend/internal/domain/calendar"
)

func TestPendingTransitions(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusPendingCO} {
		if next, err := Next(from, EventApprove); err != nil || next != StatusPresent {
			t.Fatalf("%s approve: got %s err=%v", from, next, err)
		}
		if next, err := Next(from, EventReject); err != nil || next != StatusRejected {
			t.Fatalf("%s reject: got %s err=%v", from, next, err)
		}
	}
}

func TestTerminalStatesRejectDecisions(t *testing.T) {
	for _, from := range []Status{StatusPresent, StatusRejected, StatusLeaveOverride} {
		for _, event := range []Event{EventApprove, EventReject} {
			if _, err := Next(from, event); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected invalid transition for %s on %s, got %v", event, from, err)
			}
		}
	}
}

func TestOverrideAllowedFromEveryState(t *testing.T) {
	for from := range transitions {
		next, err := Next(from, EventOverride)
		if err != nil || next != StatusLeaveOverride {
			t.Fatalf("override from %s: got %s err=%v", from, next, err)
		}
	}
}

func TestInitialStatusHolidayWins(t *testing.T) {
	status, note := initialStatus(calendar.DayHoliday)
	if status != StatusPendingCO || note == "" {
		t.Fatalf("holiday submit: got %s note=%q", status, note)
	}
	status, note = initialStatus(calendar.DaySunday)
	if status != StatusPendingCO || note == "" {
		t.Fatalf("sunday submit: got %s note=%q", status, note)
	}
	status, note = initialStatus(calendar.DayNormal)
	if status != StatusPending || note != "" {
		t.Fatalf("normal submit: got %s note=%q", status, note)
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(StatusPending) || IsTerminal(StatusPendingCO) {
		t.Fatal("pending states must not be terminal")
	}
	for _, s := range []Status{StatusPresent, StatusRejected, StatusLeaveOverride} {
		if !IsTerminal(s) {
			t.Fatalf("%s must be terminal", s)
		}
	}
}
