package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"attend/internal/domain/calendar"
	"attend/internal/domain/ledger"
	"attend/internal/platform/querier"
)

type fakeTx struct{}

func (fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (fakeTx) Commit(ctx context.Context) error                              { return nil }
func (fakeTx) Rollback(ctx context.Context) error                            { return nil }

type fakeStore struct {
	records map[string]Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Record{}}
}

func key(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format(calendar.DateLayout)
}

func (f *fakeStore) Get(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	rec, ok := f.records[key(employeeID, date)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) Insert(ctx context.Context, rec Record) error {
	f.records[key(rec.EmployeeID, rec.Date)] = rec
	return nil
}

func (f *fakeStore) UpdateSubmission(ctx context.Context, rec Record) error {
	f.records[key(rec.EmployeeID, rec.Date)] = rec
	return nil
}

func (f *fakeStore) MarkMDNotified(ctx context.Context, employeeID string, date time.Time) error {
	rec := f.records[key(employeeID, date)]
	rec.MDNotified = true
	f.records[key(employeeID, date)] = rec
	return nil
}

func (f *fakeStore) MarkEmployeeNotified(ctx context.Context, employeeID string, date time.Time) error {
	rec := f.records[key(employeeID, date)]
	rec.EmployeeNotified = true
	f.records[key(employeeID, date)] = rec
	return nil
}

func (f *fakeStore) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	var out []Record
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if rec, ok := f.records[key(employeeID, d)]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) CountRange(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	records, _ := f.ListRange(ctx, employeeID, from, to)
	return len(records), nil
}

func (f *fakeStore) OverrideRange(ctx context.Context, employeeID string, from, to time.Time, reason string) (int, error) {
	changed := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rec, ok := f.records[key(employeeID, d)]
		if !ok || rec.Status == StatusLeaveOverride {
			continue
		}
		rec.Status = StatusLeaveOverride
		rec.MDReason = reason
		f.records[key(employeeID, d)] = rec
		changed++
	}
	return changed, nil
}

func (f *fakeStore) Begin(ctx context.Context) (querier.Tx, error) {
	return fakeTx{}, nil
}

func (f *fakeStore) GetForUpdateTx(ctx context.Context, tx querier.Querier, employeeID string, date time.Time) (Record, error) {
	return f.Get(ctx, employeeID, date)
}

func (f *fakeStore) ApplyDecisionTx(ctx context.Context, tx querier.Querier, employeeID string, date time.Time, status Status, handledBy, reason string, at time.Time) error {
	rec := f.records[key(employeeID, date)]
	rec.Status = status
	rec.HandledBy = handledBy
	rec.MDReason = reason
	rec.ActionAt = &at
	f.records[key(employeeID, date)] = rec
	return nil
}

type fakeLedger struct {
	adjustments map[ledger.Field]int
}

func (f *fakeLedger) AdjustTx(ctx context.Context, tx querier.Querier, employeeID string, field ledger.Field, delta int) (int, error) {
	if f.adjustments == nil {
		f.adjustments = map[ledger.Field]int{}
	}
	f.adjustments[field] += delta
	return f.adjustments[field], nil
}

type fakeNotifier struct {
	managerCalls  int
	employeeCalls int
	err           error
}

func (f *fakeNotifier) NotifyManagers(ctx context.Context, title, body string, data map[string]string) error {
	f.managerCalls++
	return f.err
}

func (f *fakeNotifier) NotifyEmployee(ctx context.Context, employeeID, title, body string, data map[string]string) error {
	f.employeeCalls++
	return f.err
}

type holidayList []time.Time

func (h holidayList) HolidayDates(ctx context.Context) ([]time.Time, error) {
	return h, nil
}

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(holidays ...time.Time) (*Service, *fakeStore, *fakeLedger, *fakeNotifier) {
	store := newFakeStore()
	balances := &fakeLedger{}
	notifier := &fakeNotifier{}
	policy := calendar.NewPolicy(holidayList(holidays), time.Minute)
	return NewService(store, policy, balances, notifier), store, balances, notifier
}

func TestSubmitCreatesPendingRecord(t *testing.T) {
	svc, store, _, notifier := newTestService()
	monday := testDate(2025, time.June, 2)

	rec, err := svc.Submit(context.Background(), SubmitInput{
		EmployeeID:   "emp-1",
		Date:         monday,
		LocationType: LocationOffice,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected pending, got %s", rec.Status)
	}
	if !rec.MDNotified {
		t.Fatal("expected md_notified after successful dispatch")
	}
	if notifier.managerCalls != 1 {
		t.Fatalf("expected one manager notification, got %d", notifier.managerCalls)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one record, got %d", len(store.records))
	}
}

func TestSubmitOnHolidayStartsPendingCO(t *testing.T) {
	holiday := testDate(2025, time.June, 5)
	svc, _, _, _ := newTestService(holiday)

	rec, err := svc.Submit(context.Background(), SubmitInput{
		EmployeeID:   "emp-1",
		Date:         holiday,
		LocationType: LocationSite,
		SiteName:     "North Yard",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != StatusPendingCO {
		t.Fatalf("expected pending_co, got %s", rec.Status)
	}
	if rec.SpecialNote == "" {
		t.Fatal("expected special note on holiday submission")
	}
}

func TestSubmitTwiceUpdatesExistingRecord(t *testing.T) {
	svc, store, _, _ := newTestService()
	monday := testDate(2025, time.June, 2)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationOffice}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	rec, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationSite, SiteName: "Depot"})
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("resubmission must not create a second record, got %d", len(store.records))
	}
	if rec.LocationType != LocationSite || rec.SiteName != "Depot" {
		t.Fatalf("resubmission must update location, got %+v", rec)
	}
}

func TestSubmitAfterDecisionFails(t *testing.T) {
	svc, _, _, _ := newTestService()
	monday := testDate(2025, time.June, 2)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationOffice}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Decide(ctx, DecideInput{MDID: "md-1", EmployeeID: "emp-1", Date: monday, Decision: DecisionApproved}); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationOffice}); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestApproveHolidayWorkCreditsCO(t *testing.T) {
	holiday := testDate(2025, time.June, 5)
	svc, store, balances, notifier := newTestService(holiday)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: holiday, LocationType: LocationOffice}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	rec, err := svc.Decide(ctx, DecideInput{MDID: "md-1", EmployeeID: "emp-1", Date: holiday, Decision: DecisionApproved})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if rec.Status != StatusPresent {
		t.Fatalf("expected Present, got %s", rec.Status)
	}
	if balances.adjustments[ledger.FieldCO] != 1 {
		t.Fatalf("expected one CO credit, got %d", balances.adjustments[ledger.FieldCO])
	}
	if rec.MDReason == "" {
		t.Fatal("expected the special note to become the credit explanation")
	}
	if notifier.employeeCalls != 1 {
		t.Fatalf("expected one employee notification, got %d", notifier.employeeCalls)
	}
	stored := store.records[key("emp-1", holiday)]
	if !stored.EmployeeNotified {
		t.Fatal("expected employee_notified after dispatch")
	}
}

func TestApproveNormalDayDoesNotCreditCO(t *testing.T) {
	svc, _, balances, _ := newTestService()
	monday := testDate(2025, time.June, 2)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationOffice}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Decide(ctx, DecideInput{MDID: "md-1", EmployeeID: "emp-1", Date: monday, Decision: DecisionApproved}); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if balances.adjustments[ledger.FieldCO] != 0 {
		t.Fatalf("normal-day approval must not credit CO, got %d", balances.adjustments[ledger.FieldCO])
	}
}

func TestRejectRecordsReason(t *testing.T) {
	svc, _, _, _ := newTestService()
	monday := testDate(2025, time.June, 2)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationOffice}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	rec, err := svc.Decide(ctx, DecideInput{MDID: "md-1", EmployeeID: "emp-1", Date: monday, Decision: DecisionRejected, Reason: "no site log"})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if rec.Status != StatusRejected || rec.MDReason != "no site log" {
		t.Fatalf("unexpected rejection record: %+v", rec)
	}
}

func TestDecideMissingRecordIsError(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Decide(context.Background(), DecideInput{
		MDID: "md-1", EmployeeID: "emp-1", Date: testDate(2025, time.June, 2), Decision: DecisionApproved,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecideTwiceIsInvalidTransition(t *testing.T) {
	svc, _, _, _ := newTestService()
	monday := testDate(2025, time.June, 2)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationOffice}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Decide(ctx, DecideInput{MDID: "md-1", EmployeeID: "emp-1", Date: monday, Decision: DecisionApproved}); err != nil {
		t.Fatalf("first decide failed: %v", err)
	}
	if _, err := svc.Decide(ctx, DecideInput{MDID: "md-1", EmployeeID: "emp-1", Date: monday, Decision: DecisionRejected}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestOverrideByLeaveIsIdempotent(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	from := testDate(2025, time.June, 2)
	to := testDate(2025, time.June, 4)

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, err := svc.Submit(ctx, SubmitInput{EmployeeID: "emp-1", Date: d, LocationType: LocationOffice}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	if _, err := svc.Decide(ctx, DecideInput{MDID: "md-1", EmployeeID: "emp-1", Date: from, Decision: DecisionApproved}); err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	changed, err := svc.OverrideByLeave(ctx, "emp-1", from, to, "leave-9")
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}
	if changed != 3 {
		t.Fatalf("expected 3 overridden records, got %d", changed)
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if store.records[key("emp-1", d)].Status != StatusLeaveOverride {
			t.Fatalf("record on %s not overridden", d.Format(calendar.DateLayout))
		}
	}

	changed, err = svc.OverrideByLeave(ctx, "emp-1", from, to, "leave-9")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if changed != 0 {
		t.Fatalf("replay must be a no-op, changed %d", changed)
	}
}

func TestDispatchFailureDoesNotFailSubmit(t *testing.T) {
	svc, store, _, notifier := newTestService()
	notifier.err = errors.New("provider down")
	monday := testDate(2025, time.June, 2)

	rec, err := svc.Submit(context.Background(), SubmitInput{EmployeeID: "emp-1", Date: monday, LocationType: LocationOffice})
	if err != nil {
		t.Fatalf("submit must succeed despite dispatch failure: %v", err)
	}
	if rec.MDNotified {
		t.Fatal("md_notified must stay false after failed dispatch")
	}
	if len(store.records) != 1 {
		t.Fatal("record must still be persisted")
	}
}
