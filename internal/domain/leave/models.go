package leave

import "time"

type Type string

const (
	TypePL Type = "PL"
	TypeCO Type = "CO"
	TypeNH Type = "NH"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusAutoBlocked Status = "auto-blocked"
)

// Request is immutable once created except for status and action metadata.
type Request struct {
	ID              string     `json:"leaveId"`
	EmployeeID      string     `json:"employeeId"`
	EmployeeName    string     `json:"employeeName"`
	Type            Type       `json:"type"`
	From            time.Time  `json:"from"`
	To              time.Time  `json:"to"`
	TotalDays       int        `json:"totalDays"`
	Reason          string     `json:"reason"`
	Status          Status     `json:"status"`
	AppliedAt       time.Time  `json:"appliedAt"`
	ActedAt         *time.Time `json:"actedAt,omitempty"`
	ActorID         string     `json:"actorId,omitempty"`
	ActorRole       string     `json:"actorRole,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}
