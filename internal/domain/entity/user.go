package entity

import "time"

// User represents an employee account. Users are shared by many missions
// (creator, approver, signatory) and never owned by one.
type User struct {
	ID           int64     `json:"id"`
	Identifiant  string    `json:"identifiant"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	ManagerID    *int64    `json:"manager_id,omitempty"`
	EntityID     *int64    `json:"entity_id,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Entite represents an organizational unit (service, direction, agency)
type Entite struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Type          string    `json:"type,omitempty"`
	ParentID      *int64    `json:"parent_id,omitempty"`
	ResponsableID *int64    `json:"responsable_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
