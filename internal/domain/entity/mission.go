package entity

import "time"

// Mission represents a travel/expense assignment undergoing approval and settlement
type Mission struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Status      string `json:"status"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Location  string    `json:"location"`

	// Amounts are whole FCFA
	BudgetEstimate   int64 `json:"budget_estimate"`
	AdvanceRequested int64 `json:"advance_requested"`
	AdvancePaid      bool  `json:"advance_paid"`

	CreatorID int64  `json:"creator_id"`
	EntityID  *int64 `json:"entity_id,omitempty"`
	Vehicle   string `json:"vehicle,omitempty"`
	DriverID  *int64 `json:"driver_id,omitempty"`

	Participants []int64 `json:"participants,omitempty"`

	SignaturesComplete bool `json:"signatures_complete"`

	// Return and settlement phase
	ActualStart             *time.Time `json:"actual_start,omitempty"`
	ActualReturn            *time.Time `json:"actual_return,omitempty"`
	ReturnDeclared          bool       `json:"return_declared"`
	JustificatifsDeadline   *time.Time `json:"justificatifs_deadline,omitempty"`
	JustificatifsDeposited  bool       `json:"justificatifs_deposited"`
	JustificatifsVerified   bool       `json:"justificatifs_verified"`
	JustificatifsReminded   bool       `json:"justificatifs_reminded"`
	LastJustificatifsRemind *time.Time `json:"last_justificatifs_remind,omitempty"`

	// Balance sign contract: positive means the organization refunds the
	// agent, negative means the agent refunds the organization.
	Balance    int64      `json:"balance"`
	Closed     bool       `json:"closed"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DurationDays returns the inclusive day count of the planned mission period.
// A one-day mission has duration 1.
func (m *Mission) DurationDays() int {
	if m.EndDate.Before(m.StartDate) {
		return 0
	}
	return int(m.EndDate.Sub(m.StartDate).Hours()/24) + 1
}

// ParticipantCount returns the number of registered participants
func (m *Mission) ParticipantCount() int {
	return len(m.Participants)
}
