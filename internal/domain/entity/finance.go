package entity

import "time"

// Depense represents an actual expense line item of a mission
type Depense struct {
	ID          int64     `json:"id"`
	MissionID   int64     `json:"mission_id"`
	Nature      string    `json:"nature"`
	Amount      int64     `json:"amount"`
	ExpenseDate time.Time `json:"expense_date"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Avance represents a cash advance disbursed to the mission's agent.
// Only advances with status DISBURSED count toward the settlement balance.
type Avance struct {
	ID               int64      `json:"id"`
	MissionID        int64      `json:"mission_id"`
	Amount           int64      `json:"amount"`
	PayerID          int64      `json:"payer_id"`
	BeneficiaryID    int64      `json:"beneficiary_id"`
	Status           string     `json:"status"`
	DisbursementMode string     `json:"disbursement_mode"`
	DisbursedAt      *time.Time `json:"disbursed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Ticket represents the authorization ticket emitted for a mission
type Ticket struct {
	ID             int64     `json:"id"`
	MissionID      int64     `json:"mission_id"`
	Number         string    `json:"number"`
	ApprovedAmount int64     `json:"approved_amount"`
	IssuerID       int64     `json:"issuer_id"`
	Status         string    `json:"status"`
	IssuedAt       time.Time `json:"issued_at"`
	CreatedAt      time.Time `json:"created_at"`
}
