package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Provider creates the login identity backing an employee profile. The
// production deployment points this at the company's identity service; the
// local provider just mints an ID.
type Provider interface {
	CreateIdentity(ctx context.Context, email, name string) (string, error)
}

type Local struct{}

func NewLocal() Local {
	return Local{}
}

func (Local) CreateIdentity(ctx context.Context, email, name string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", ErrEmailRequired
	}
	return uuid.NewString(), nil
}
