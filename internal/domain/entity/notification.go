package entity

import "time"

// Notification is a record of a workflow event addressed to one user.
// It is created as a side effect of transitions and never mutates workflow
// state; the only write after creation is the read flag.
type Notification struct {
	ID          int64      `json:"id"`
	RecipientID int64      `json:"recipient_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Category    string     `json:"category"`
	Link        string     `json:"link,omitempty"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
