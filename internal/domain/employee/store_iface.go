package employee

import "context"

type StoreAPI interface {
	Insert(ctx context.Context, emp Employee, passwordHash string) error
	Get(ctx context.Context, id string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, string, error)
	List(ctx context.Context) ([]Employee, error)
	SetActive(ctx context.Context, id string, active bool) error
}
