package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"attend/internal/platform/querier"
)

type Field string

const (
	FieldPL Field = "pl"
	FieldCO Field = "co"
)

func (f Field) column() (string, bool) {
	switch f {
	case FieldPL:
		return "pl_balance", true
	case FieldCO:
		return "co_balance", true
	}
	return "", false
}

var ErrEmployeeNotFound = errors.New("employee not found")

// InsufficientError reports a debit that would take a balance below zero.
// Callers surface both figures to the user; balances are never clamped.
type InsufficientError struct {
	Field     Field
	Available int
	Required  int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %d, required %d", e.Field, e.Available, e.Required)
}

// Service mutates employee leave balances through a single conditional
// UPDATE, so concurrent adjustments to the same employee serialize in the
// database instead of racing through read-then-write.
type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Adjust(ctx context.Context, employeeID string, field Field, delta int) (int, error) {
	return adjust(ctx, s.DB, employeeID, field, delta)
}

// AdjustTx runs the same conditional update inside a caller-owned
// transaction, for flows that must commit the balance change together with
// another state transition.
func (s *Service) AdjustTx(ctx context.Context, tx querier.Querier, employeeID string, field Field, delta int) (int, error) {
	return adjust(ctx, tx, employeeID, field, delta)
}

func adjust(ctx context.Context, q querier.Querier, employeeID string, field Field, delta int) (int, error) {
	col, ok := field.column()
	if !ok {
		return 0, fmt.Errorf("unknown balance field %q", field)
	}

	var newBalance int
	update := fmt.Sprintf(`
    UPDATE employees
    SET %s = %s + $1
    WHERE id = $2 AND %s + $1 >= 0
    RETURNING %s
  `, col, col, col, col)
	err := q.QueryRow(ctx, update, delta, employeeID).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var available int
	lookup := fmt.Sprintf("SELECT %s FROM employees WHERE id = $1", col)
	if err := q.QueryRow(ctx, lookup, employeeID).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrEmployeeNotFound
		}
		return 0, err
	}
	return 0, &InsufficientError{Field: field, Available: available, Required: -delta}
}

func (s *Service) Balances(ctx context.Context, employeeID string) (pl, co int, err error) {
	return balances(ctx, s.DB, employeeID)
}

// BalancesTx reads both balances inside a caller-owned transaction, so a
// check made after locking the employee row sees the locked values.
func (s *Service) BalancesTx(ctx context.Context, tx querier.Querier, employeeID string) (pl, co int, err error) {
	return balances(ctx, tx, employeeID)
}

func balances(ctx context.Context, q querier.Querier, employeeID string) (pl, co int, err error) {
	err = q.QueryRow(ctx, "SELECT pl_balance, co_balance FROM employees WHERE id = $1", employeeID).Scan(&pl, &co)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrEmployeeNotFound
	}
	return pl, co, err
}
