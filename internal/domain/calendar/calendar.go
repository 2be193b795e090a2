package calendar

import (
	"context"
	"time"

	"attend/internal/platform/cache"
)

// IST anchors every "today" derivation in the system. Reminders and day
// boundaries depend on this zone staying fixed.
var IST = time.FixedZone("IST", 5*3600+30*60)

const DateLayout = "2006-01-02"

// DateOf collapses an instant to the calendar date it falls on in IST,
// represented canonically as UTC midnight.
func DateOf(t time.Time) time.Time {
	year, month, day := t.In(IST).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Today() time.Time {
	return DateOf(time.Now())
}

func IsSunday(date time.Time) bool {
	return date.Weekday() == time.Sunday
}

type DayKind int

const (
	DayNormal DayKind = iota
	DaySunday
	DayHoliday
)

type HolidayStore interface {
	HolidayDates(ctx context.Context) ([]time.Time, error)
}

// Policy classifies calendar dates against the configured holiday list.
// The list is loaded through a TTL cache; edits call Invalidate.
type Policy struct {
	store HolidayStore
	cache *cache.TTL[map[string]bool]
}

const holidayCacheKey = "holidays"

func NewPolicy(store HolidayStore, ttl time.Duration) *Policy {
	return &Policy{store: store, cache: cache.New[map[string]bool](ttl)}
}

func (p *Policy) holidaySet(ctx context.Context) (map[string]bool, error) {
	if set, ok := p.cache.Get(holidayCacheKey); ok {
		return set, nil
	}
	dates, err := p.store.HolidayDates(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d.Format(DateLayout)] = true
	}
	p.cache.Set(holidayCacheKey, set)
	return set, nil
}

func (p *Policy) Invalidate() {
	p.cache.Delete(holidayCacheKey)
}

func (p *Policy) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	set, err := p.holidaySet(ctx)
	if err != nil {
		return false, err
	}
	return set[date.Format(DateLayout)], nil
}

// Classify checks the holiday list before the weekday, so a holiday that
// falls on a Sunday reports as a holiday.
func (p *Policy) Classify(ctx context.Context, date time.Time) (DayKind, error) {
	holiday, err := p.IsHoliday(ctx, date)
	if err != nil {
		return DayNormal, err
	}
	if holiday {
		return DayHoliday, nil
	}
	if IsSunday(date) {
		return DaySunday, nil
	}
	return DayNormal, nil
}

// CountBillableDays counts days in [from, to] inclusive that are neither
// Sunday nor a configured holiday.
func (p *Policy) CountBillableDays(ctx context.Context, from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, nil
	}
	set, err := p.holidaySet(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsSunday(d) {
			continue
		}
		if set[d.Format(DateLayout)] {
			continue
		}
		count++
	}
	return count, nil
}
