package leave

import (
	"context"
	"time"

	"attend/internal/platform/querier"
)

type StoreAPI interface {
	Begin(ctx context.Context) (querier.Tx, error)
	LockEmployeeTx(ctx context.Context, tx querier.Querier, employeeID string) error
	ListOpenOverlappingTx(ctx context.Context, tx querier.Querier, employeeID string, from, to time.Time) ([]Request, error)
	InsertTx(ctx context.Context, tx querier.Querier, req Request) error
	GetForUpdateTx(ctx context.Context, tx querier.Querier, leaveID, employeeID string) (Request, error)
	SetDecisionTx(ctx context.Context, tx querier.Querier, leaveID string, status Status, actorID, actorRole, rejectionReason string, at time.Time) error

	History(ctx context.Context, employeeID string) ([]Request, error)
}
