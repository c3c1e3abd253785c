package entity

import "time"

// Validation represents one hierarchical approval step of a mission.
// Rows are unique per (mission, approver, level); the ordinal controls
// who acts next.
type Validation struct {
	ID         int64      `json:"id"`
	MissionID  int64      `json:"mission_id"`
	ApproverID int64      `json:"approver_id"`
	Level      string     `json:"level"`
	Status     string     `json:"status"`
	Comment    string     `json:"comment,omitempty"`
	Ordinal    int        `json:"ordinal"`
	DelayHours int        `json:"delay_hours"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsOverdue reports whether the validation is still pending past its deadline
func (v *Validation) IsOverdue(now time.Time) bool {
	return v.Status == ValidationStatusPending && v.Deadline != nil && now.After(*v.Deadline)
}
