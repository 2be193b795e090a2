package leave

import (
	"errors"
	"testing"
	"time"

	"attend/internal/domain/ledger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateWindow(t *testing.T) {
	today := day(2025, time.June, 10)

	cases := []struct {
		name string
		from time.Time
		to   time.Time
		want error
	}{
		{"today is allowed", today, today, nil},
		{"future range", today.AddDate(0, 0, 3), today.AddDate(0, 0, 5), nil},
		{"past start", today.AddDate(0, 0, -1), today, ErrPastStart},
		{"inverted range", today.AddDate(0, 0, 5), today.AddDate(0, 0, 3), ErrRangeInverted},
		{"at the advance cap", today.AddDate(0, 0, 29), today.AddDate(0, 0, 30), nil},
		{"past the advance cap", today.AddDate(0, 0, 29), today.AddDate(0, 0, 31), ErrTooFarAhead},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateWindow(today, tc.from, tc.to); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateDuration(t *testing.T) {
	if err := ValidateDuration(0); !errors.Is(err, ErrNoBillableDays) {
		t.Fatalf("zero days: got %v", err)
	}
	if err := ValidateDuration(MaxBillableDays); err != nil {
		t.Fatalf("cap itself must pass: %v", err)
	}
	if err := ValidateDuration(MaxBillableDays + 1); !errors.Is(err, ErrTooLong) {
		t.Fatalf("over cap: got %v", err)
	}
}

func TestBalanceField(t *testing.T) {
	if f, err := BalanceField(TypePL); err != nil || f != ledger.FieldPL {
		t.Fatalf("PL: got %s err=%v", f, err)
	}
	if f, err := BalanceField(TypeCO); err != nil || f != ledger.FieldCO {
		t.Fatalf("CO: got %s err=%v", f, err)
	}
	if _, err := BalanceField(TypeNH); !errors.Is(err, ErrHolidayType) {
		t.Fatalf("NH must be rejected, got %v", err)
	}
	if _, err := BalanceField(Type("SICK")); err == nil {
		t.Fatal("unknown type must be rejected")
	}
}

func TestOverlaps(t *testing.T) {
	a, b := day(2025, time.June, 10), day(2025, time.June, 12)

	if !Overlaps(a, b, b, b.AddDate(0, 0, 2)) {
		t.Fatal("shared boundary date must overlap")
	}
	if !Overlaps(a, b, a.AddDate(0, 0, 1), a.AddDate(0, 0, 1)) {
		t.Fatal("contained range must overlap")
	}
	if Overlaps(a, b, b.AddDate(0, 0, 1), b.AddDate(0, 0, 3)) {
		t.Fatal("adjacent ranges must not overlap")
	}
}
