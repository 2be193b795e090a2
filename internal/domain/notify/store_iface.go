package notify

import (
	"context"
	"time"
)

type StoreAPI interface {
	ManagerTokens(ctx context.Context) ([]string, error)
	EmployeeTokens(ctx context.Context, employeeID string) ([]string, error)
	BroadcastTokens(ctx context.Context) ([]string, error)
	UnmarkedTokens(ctx context.Context, date time.Time) ([]string, error)
	UpsertToken(ctx context.Context, employeeID, token string, granted bool) error
	DeleteToken(ctx context.Context, employeeID, token string) error
	PruneTokens(ctx context.Context, tokens []string) (int, error)
}
