package entity

import "time"

// Status values a time entry moves through. Transitions are not
// constrained; any status may be set from any other via update.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// Statuses lists the accepted status values in declaration order.
var Statuses = []string{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// TimeEntry is one weekly timesheet record for a user. At most one entry
// exists per (UserID, WeekStart) pair; the repository enforces this with
// a unique composite index.
type TimeEntry struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"userId" db:"user_id"`
	WeekStart   time.Time  `json:"weekStart" db:"week_start"`
	WeekEnd     time.Time  `json:"weekEnd" db:"week_end"`
	Hours       []float64  `json:"hours" db:"hours"`
	Notes       string     `json:"notes" db:"notes"`
	Status      string     `json:"status" db:"status"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty" db:"approved_at"`
	ApprovedBy  *string    `json:"approvedBy,omitempty" db:"approved_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Patch carries a partial update: nil fields are left untouched.
type Patch struct {
	UserID      *string
	WeekStart   *time.Time
	WeekEnd     *time.Time
	Hours       []float64
	Notes       *string
	Status      *string
	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *string
}

// Filter narrows a listing; zero-value fields impose no constraint.
// WeekFrom/WeekTo are inclusive bounds on WeekStart.
type Filter struct {
	UserID   string
	Status   string
	WeekFrom *time.Time
	WeekTo   *time.Time
}
