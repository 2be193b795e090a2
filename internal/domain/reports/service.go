package reports

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"attend/internal/domain/attendance"
	"attend/internal/domain/calendar"
	"attend/internal/domain/leave"
	"attend/internal/platform/querier"
)

type Stats struct {
	Date            string `json:"date"`
	ActiveEmployees int    `json:"activeEmployees"`
	MarkedToday     int    `json:"markedToday"`
	ApprovedToday   int    `json:"approvedToday"`
	OnSite          int    `json:"onSite"`
	OnLeave         int    `json:"onLeave"`
}

type Service struct {
	DB querier.Querier
}

func NewService(db querier.Querier) *Service {
	return &Service{DB: db}
}

// DashboardStats aggregates the MD dashboard counters for IST-today.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	today := calendar.Today()
	stats := Stats{Date: today.Format(calendar.DateLayout)}

	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM employees WHERE active),
      (SELECT COUNT(1) FROM attendance_records WHERE date = $1),
      (SELECT COUNT(1) FROM attendance_records WHERE date = $1 AND status = $2),
      (SELECT COUNT(1) FROM attendance_records WHERE date = $1 AND location_type = $3),
      (SELECT COUNT(DISTINCT employee_id) FROM leave_requests
        WHERE status = $4 AND from_date <= $1 AND to_date >= $1)
  `, today, attendance.StatusPresent, attendance.LocationSite, leave.StatusApproved).Scan(
		&stats.ActiveEmployees, &stats.MarkedToday, &stats.ApprovedToday, &stats.OnSite, &stats.OnLeave,
	)
	return stats, err
}

// LeaveHistoryPDF renders an employee's full leave history as a PDF.
func (s *Service) LeaveHistoryPDF(ctx context.Context, employeeID string) ([]byte, error) {
	var name, email string
	if err := s.DB.QueryRow(ctx,
		"SELECT name, email FROM employees WHERE id = $1", employeeID,
	).Scan(&name, &email); err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT type, from_date, to_date, total_days, status, reason
    FROM leave_requests
    WHERE employee_id = $1
    ORDER BY applied_at, id
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		var req leave.Request
		if err := rows.Scan(&req.Type, &req.From, &req.To, &req.TotalDays, &req.Status, &req.Reason); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return renderLeaveHistory(name, email, requests)
}

func renderLeaveHistory(name, email string, requests []leave.Request) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave History")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", name))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", email))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(20, 8, "Type", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "From", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "To", "1", 0, "", false, 0, "")
	pdf.CellFormat(18, 8, "Days", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "Status", "1", 0, "", false, 0, "")
	pdf.CellFormat(62, 8, "Reason", "1", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, req := range requests {
		pdf.CellFormat(20, 8, string(req.Type), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 8, req.From.Format(calendar.DateLayout), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 8, req.To.Format(calendar.DateLayout), "1", 0, "", false, 0, "")
		pdf.CellFormat(18, 8, fmt.Sprintf("%d", req.TotalDays), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 8, string(req.Status), "1", 0, "", false, 0, "")
		pdf.CellFormat(62, 8, req.Reason, "1", 1, "", false, 0, "")
	}
	if len(requests) == 0 {
		pdf.CellFormat(190, 8, "No leave requests on record.", "1", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
