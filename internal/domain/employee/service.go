package employee

import (
	"context"
	"errors"
	"strings"

	"attend/internal/domain/auth"
	"attend/internal/platform/identity"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	store    StoreAPI
	identity identity.Provider
}

func NewService(store StoreAPI, provider identity.Provider) *Service {
	return &Service{store: store, identity: provider}
}

type OnboardInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	PLBalance int
	COBalance int
}

// Onboard creates the login identity and the employee profile. Balances set
// here are the opening grant; everything after goes through the ledger.
func (s *Service) Onboard(ctx context.Context, in OnboardInput) (Employee, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	id, err := s.identity.CreateIdentity(ctx, email, in.Name)
	if err != nil {
		return Employee{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Employee{}, err
	}

	emp := Employee{
		ID:        id,
		Name:      in.Name,
		Email:     email,
		Role:      auth.NormalizeRole(in.Role),
		Active:    true,
		PLBalance: in.PLBalance,
		COBalance: in.COBalance,
	}
	if err := s.store.Insert(ctx, emp, hash); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// VerifyCredentials authenticates a login attempt. Unknown emails and wrong
// passwords collapse into the same error so callers cannot probe accounts.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (Employee, error) {
	emp, hash, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return Employee{}, ErrInvalidCredentials
	}
	if err != nil {
		return Employee{}, err
	}
	if !emp.Active {
		return Employee{}, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		return Employee{}, ErrInvalidCredentials
	}
	return emp, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.store.List(ctx)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.store.SetActive(ctx, id, active)
}
