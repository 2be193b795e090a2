package reports

import (
	"bytes"
	"testing"
	"time"

	"attend/internal/domain/leave"
)

func TestRenderLeaveHistoryProducesPDF(t *testing.T) {
	from := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	requests := []leave.Request{
		{Type: leave.TypePL, From: from, To: from.AddDate(0, 0, 2), TotalDays: 3, Status: leave.StatusApproved, Reason: "family function"},
		{Type: leave.TypeCO, From: from.AddDate(0, 0, 10), To: from.AddDate(0, 0, 10), TotalDays: 1, Status: leave.StatusPending},
	}

	out, err := renderLeaveHistory("Asha", "asha@example.com", requests)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", out[:min(8, len(out))])
	}
}

func TestRenderLeaveHistoryEmpty(t *testing.T) {
	out, err := renderLeaveHistory("Asha", "asha@example.com", nil)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected a document even with no requests")
	}
}
