package attendance

import (
	"context"
	"time"

	"attend/internal/platform/querier"
)

type StoreAPI interface {
	Get(ctx context.Context, employeeID string, date time.Time) (Record, error)
	Insert(ctx context.Context, rec Record) error
	UpdateSubmission(ctx context.Context, rec Record) error
	MarkMDNotified(ctx context.Context, employeeID string, date time.Time) error
	MarkEmployeeNotified(ctx context.Context, employeeID string, date time.Time) error
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
	CountRange(ctx context.Context, employeeID string, from, to time.Time) (int, error)
	OverrideRange(ctx context.Context, employeeID string, from, to time.Time, reason string) (int, error)

	Begin(ctx context.Context) (querier.Tx, error)
	GetForUpdateTx(ctx context.Context, tx querier.Querier, employeeID string, date time.Time) (Record, error)
	ApplyDecisionTx(ctx context.Context, tx querier.Querier, employeeID string, date time.Time, status Status, handledBy, reason string, at time.Time) error
}
