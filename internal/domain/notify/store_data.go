package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5"

	"attend/internal/domain/auth"
)

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func collectTokens(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, nil
}

func (s *Store) ManagerTokens(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.token
    FROM device_tokens t
    JOIN employees e ON e.id = t.employee_id
    WHERE e.active AND e.role = $1 AND t.granted
  `, auth.RoleMD)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

func (s *Store) EmployeeTokens(ctx context.Context, employeeID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.token
    FROM device_tokens t
    JOIN employees e ON e.id = t.employee_id
    WHERE e.id = $1 AND e.active AND t.granted
  `, employeeID)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

func (s *Store) BroadcastTokens(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.token
    FROM device_tokens t
    JOIN employees e ON e.id = t.employee_id
    WHERE e.active AND t.granted
  `)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

// UnmarkedTokens returns granted tokens of active employees with no
// attendance record on the given date.
func (s *Store) UnmarkedTokens(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.token
    FROM device_tokens t
    JOIN employees e ON e.id = t.employee_id
    WHERE e.active AND t.granted
      AND NOT EXISTS (
        SELECT 1 FROM attendance_records a
        WHERE a.employee_id = e.id AND a.date = $1
      )
  `, date)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

func (s *Store) UpsertToken(ctx context.Context, employeeID, token string, granted bool) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO device_tokens (employee_id, token_hash, token, granted)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (employee_id, token_hash)
    DO UPDATE SET granted = EXCLUDED.granted, updated_at = now()
  `, employeeID, tokenHash(token), token, granted)
	return err
}

func (s *Store) DeleteToken(ctx context.Context, employeeID, token string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM device_tokens WHERE employee_id = $1 AND token_hash = $2
  `, employeeID, tokenHash(token))
	return err
}

func (s *Store) PruneTokens(ctx context.Context, tokens []string) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	tag, err := s.DB.Exec(ctx, "DELETE FROM device_tokens WHERE token = ANY($1)", tokens)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
