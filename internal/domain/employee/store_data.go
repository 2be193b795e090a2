package employee

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("employee not found")
	ErrEmailTaken = errors.New("email already registered")
)

const employeeColumns = "id, name, email, role, active, pl_balance, co_balance, created_at"

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Role, &emp.Active,
		&emp.PLBalance, &emp.COBalance, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) Insert(ctx context.Context, emp Employee, passwordHash string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (id, name, email, password_hash, role, active, pl_balance, co_balance)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, emp.ID, emp.Name, emp.Email, passwordHash, emp.Role, emp.Active, emp.PLBalance, emp.COBalance)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)
	return scanEmployee(row)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (Employee, string, error) {
	var emp Employee
	var hash string
	err := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`, password_hash FROM employees WHERE email = $1
  `, email).Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Role, &emp.Active,
		&emp.PLBalance, &emp.COBalance, &emp.CreatedAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, "", ErrNotFound
	}
	if err != nil {
		return Employee{}, "", err
	}
	return emp, hash, nil
}

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, nil
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET active = $2 WHERE id = $1", id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
