package calendar

import (
	"context"
	"errors"
	"time"

	"attend/internal/platform/querier"
)

var ErrHolidayNotFound = errors.New("holiday not found")

type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Store backs the holiday list. It satisfies HolidayStore for the policy and
// carries the CRUD used by the holiday endpoints.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) HolidayDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.DB.Query(ctx, "SELECT date FROM holidays")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) List(ctx context.Context) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, "SELECT date, name FROM holidays ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, date time.Time, name string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO holidays (date, name)
    VALUES ($1,$2)
    ON CONFLICT (date) DO UPDATE SET name = EXCLUDED.name
  `, date, name)
	return err
}

func (s *Store) Delete(ctx context.Context, date time.Time) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE date = $1", date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHolidayNotFound
	}
	return nil
}
