package attendance

import "time"

type Status string

const (
	StatusPending       Status = "pending"
	StatusPendingCO     Status = "pending_co"
	StatusPresent       Status = "Present"
	StatusRejected      Status = "rejected"
	StatusLeaveOverride Status = "leave_override"
)

type LocationType string

const (
	LocationOffice LocationType = "Office"
	LocationSite   LocationType = "Site"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Record is the single attendance entry for an employee on a calendar date.
// At most one record exists per (EmployeeID, Date).
type Record struct {
	EmployeeID       string       `json:"employeeId"`
	Date             time.Time    `json:"date"`
	Status           Status       `json:"status"`
	LocationType     LocationType `json:"locationType"`
	SiteName         string       `json:"siteName,omitempty"`
	SubmittedAt      time.Time    `json:"timestamp"`
	SpecialNote      string       `json:"specialNote,omitempty"`
	MDNotified       bool         `json:"mdNotified"`
	EmployeeNotified bool         `json:"employeeNotified"`
	HandledBy        string       `json:"handledBy,omitempty"`
	MDReason         string       `json:"mdReason,omitempty"`
	ActionAt         *time.Time   `json:"actionTimestamp,omitempty"`
}
