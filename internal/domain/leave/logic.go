package leave

import (
	"errors"
	"time"

	"attend/internal/domain/ledger"
)

const (
	// MaxBillableDays caps a single request regardless of calendar span.
	MaxBillableDays = 30
	// MaxAdvanceDays caps how far past today the end date may lie.
	MaxAdvanceDays = 30
)

var (
	ErrPastStart          = errors.New("leave cannot start in the past")
	ErrRangeInverted      = errors.New("leave end date is before the start date")
	ErrNoBillableDays     = errors.New("leave range contains no billable days")
	ErrTooLong            = errors.New("leave exceeds the maximum billable days per request")
	ErrTooFarAhead        = errors.New("leave cannot be booked that far in advance")
	ErrHolidayType        = errors.New("national holidays cannot be requested as leave")
	ErrApprovedOverlap    = errors.New("leave already approved for these dates")
	ErrPendingOverlap     = errors.New("a pending leave request exists for these dates")
	ErrAttendanceConflict = errors.New("attendance already recorded in the requested range")
	ErrInvalidRequest     = errors.New("invalid leave request")
)

// ValidateWindow checks the date range against today: no past start, no
// inverted range, and the end at most MaxAdvanceDays out.
func ValidateWindow(today, from, to time.Time) error {
	if from.Before(today) {
		return ErrPastStart
	}
	if to.Before(from) {
		return ErrRangeInverted
	}
	if to.After(today.AddDate(0, 0, MaxAdvanceDays)) {
		return ErrTooFarAhead
	}
	return nil
}

func ValidateDuration(totalDays int) error {
	if totalDays <= 0 {
		return ErrNoBillableDays
	}
	if totalDays > MaxBillableDays {
		return ErrTooLong
	}
	return nil
}

// BalanceField maps a requestable leave type onto its ledger field. NH is
// never user-selectable.
func BalanceField(t Type) (ledger.Field, error) {
	switch t {
	case TypePL:
		return ledger.FieldPL, nil
	case TypeCO:
		return ledger.FieldCO, nil
	case TypeNH:
		return "", ErrHolidayType
	}
	return "", errors.New("unknown leave type " + string(t))
}

// Overlaps reports whether [aFrom, aTo] and [bFrom, bTo] share any date.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return !aFrom.After(bTo) && !bFrom.After(aTo)
}
