package entity

import "time"

// SignatureFinanciere represents one financial signoff step of a mission.
// Rows are unique per (mission, level) and execute in ordinal order; the
// mission is fully signed only when every created row is signed.
type SignatureFinanciere struct {
	ID           int64      `json:"id"`
	MissionID    int64      `json:"mission_id"`
	SignatoryID  int64      `json:"signatory_id"`
	Level        string     `json:"level"`
	Ordinal      int        `json:"ordinal"`
	Status       string     `json:"status"`
	Comment      string     `json:"comment,omitempty"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	ReminderSent bool       `json:"reminder_sent"`
	RemindedAt   *time.Time `json:"reminded_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsOverdue reports whether the signature is still pending past its deadline
func (s *SignatureFinanciere) IsOverdue(now time.Time) bool {
	return s.Status == SignatureStatusPending && s.Deadline != nil && now.After(*s.Deadline)
}
