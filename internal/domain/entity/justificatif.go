package entity

import "time"

// Justificatif represents a proof-of-expense document submitted after
// mission return
type Justificatif struct {
	ID            int64  `json:"id"`
	MissionID     int64  `json:"mission_id"`
	ContributorID int64  `json:"contributor_id"`
	DocumentType  string `json:"document_type"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description,omitempty"`

	// Attached file metadata; the file itself lives in the storage collaborator
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size"`
	FileHash string `json:"file_hash,omitempty"`
	FileKey  string `json:"file_key,omitempty"`

	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`

	Status            string     `json:"status"`
	ValidationComment string     `json:"validation_comment,omitempty"`
	Verified          bool       `json:"verified"`
	VerifierID        *int64     `json:"verifier_id,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`

	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	ValidatedAt  *time.Time `json:"validated_at,omitempty"`
	ReimbursedAt *time.Time `json:"reimbursed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
