package db

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"attend/internal/domain/auth"
	"attend/internal/platform/config"
)

// Seed guarantees a managing director account exists so a fresh
// deployment can log in and onboard everyone else.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return ensureMDAccount(ctx, pool, cfg.SeedMDName, cfg.SeedMDEmail, cfg.SeedMDPassword)
}

func ensureMDAccount(ctx context.Context, pool *pgxpool.Pool, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO employees (id, name, email, password_hash, role, active, pl_balance, co_balance)
		 VALUES ($1, $2, $3, $4, $5, TRUE, 0, 0)
		 ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), name, email, hash, auth.RoleMD)
	return err
}
