package shared

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	if parsed, err := ParseDate("2025-06-02"); err != nil || parsed.Day() != 2 {
		t.Fatalf("plain date: got %v err=%v", parsed, err)
	}
	if parsed, err := ParseDate("2025-06-02T10:30:00+05:30"); err != nil || parsed.IsZero() {
		t.Fatalf("rfc3339: got %v err=%v", parsed, err)
	}
	if parsed, err := ParseDate(""); err != nil || !parsed.IsZero() {
		t.Fatalf("empty input must yield zero time, got %v err=%v", parsed, err)
	}
	if _, err := ParseDate("02/06/2025"); err == nil {
		t.Fatal("unsupported format must error")
	}
}

func TestValidatorDate(t *testing.T) {
	v := NewValidator()
	if _, ok := v.Date("from", "not-a-date"); ok {
		t.Fatal("invalid date must fail")
	}
	if !v.HasIssues() {
		t.Fatal("expected a recorded issue")
	}

	v = NewValidator()
	parsed, ok := v.Date("from", "2025-06-02")
	if !ok || v.HasIssues() {
		t.Fatalf("valid date rejected: %v", v.Issues())
	}
	if !parsed.Equal(time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parse result: %v", parsed)
	}
}
