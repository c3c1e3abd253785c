package port

import (
	"context"
	"time"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

// MissionRepository defines persistence operations for Mission
type MissionRepository interface {
	Create(ctx context.Context, mission *entity.Mission) error
	GetByID(ctx context.Context, id int64) (*entity.Mission, error)
	GetByReference(ctx context.Context, reference string) (*entity.Mission, error)
	Update(ctx context.Context, mission *entity.Mission) error
	List(ctx context.Context, limit, offset int) ([]*entity.Mission, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]*entity.Mission, error)
	CountByStatus(ctx context.Context) (map[string]int, error)

	// CountCreatedOn returns how many missions were created on the given
	// calendar day, for daily reference sequencing.
	CountCreatedOn(ctx context.Context, day time.Time) (int, error)

	// ReplaceParticipants rewrites the participant set of a mission
	ReplaceParticipants(ctx context.Context, missionID int64, userIDs []int64) error

	// ListOverdueJustificatifs returns missions with return declared,
	// justificatifs not deposited and deadline before now.
	ListOverdueJustificatifs(ctx context.Context, now time.Time) ([]*entity.Mission, error)

	// ListToArchive returns closed, unarchived missions closed before cutoff
	ListToArchive(ctx context.Context, cutoff time.Time) ([]*entity.Mission, error)

	// MarkArchived flips the archive flag; the write is conditional on the
	// mission not being archived yet and reports whether it applied.
	MarkArchived(ctx context.Context, id int64, at time.Time) (bool, error)

	// MarkJustificatifsReminded records the first justificatif reminder;
	// conditional on no reminder having been sent yet, reports whether the
	// write applied.
	MarkJustificatifsReminded(ctx context.Context, id int64, at time.Time) (bool, error)

	// TouchJustificatifsRemind refreshes the reminder marker for the
	// escalation path; conditional on the previous marker being absent or
	// older than cutoff, reports whether the write applied.
	TouchJustificatifsRemind(ctx context.Context, id int64, at, cutoff time.Time) (bool, error)
}

// ValidationRepository defines persistence operations for Validation
type ValidationRepository interface {
	Create(ctx context.Context, validation *entity.Validation) error
	GetByID(ctx context.Context, id int64) (*entity.Validation, error)
	GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Validation, error)
	Update(ctx context.Context, validation *entity.Validation) error

	// GetNextPending returns the pending validation with the smallest
	// ordinal greater than afterOrdinal, or nil when the chain is exhausted.
	GetNextPending(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error)

	// Decide records a decision; conditional on the row still being pending
	// and active, reports whether the write applied.
	Decide(ctx context.Context, id int64, status, comment string, decidedAt time.Time) (bool, error)
}

// SignatureRepository defines persistence operations for SignatureFinanciere
type SignatureRepository interface {
	Create(ctx context.Context, signature *entity.SignatureFinanciere) error
	GetByID(ctx context.Context, id int64) (*entity.SignatureFinanciere, error)
	GetByMissionID(ctx context.Context, missionID int64) ([]*entity.SignatureFinanciere, error)
	Update(ctx context.Context, signature *entity.SignatureFinanciere) error

	// GetNextPending returns the unresolved signature with the smallest
	// ordinal greater than afterOrdinal, or nil when none remain. A refused
	// row is unresolved: it keeps its place in the circuit until re-signed.
	GetNextPending(ctx context.Context, missionID int64, afterOrdinal int) (*entity.SignatureFinanciere, error)

	// Decide records a signature outcome; conditional on the row not
	// already being signed, reports whether the write applied.
	Decide(ctx context.Context, id int64, status, comment string, signedAt time.Time) (bool, error)

	// CountByMission returns total created rows and signed rows for a mission
	CountByMission(ctx context.Context, missionID int64) (total int, signed int, err error)

	// ListOverdue returns pending signatures past their deadline with no
	// reminder sent yet
	ListOverdue(ctx context.Context, now time.Time) ([]*entity.SignatureFinanciere, error)

	// MarkReminded flips the reminder flag; conditional on the reminder not
	// having been sent, reports whether the write applied.
	MarkReminded(ctx context.Context, id int64, at time.Time) (bool, error)
}

// JustificatifRepository defines persistence operations for Justificatif
type JustificatifRepository interface {
	Create(ctx context.Context, justificatif *entity.Justificatif) error
	GetByID(ctx context.Context, id int64) (*entity.Justificatif, error)
	GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Justificatif, error)
	Update(ctx context.Context, justificatif *entity.Justificatif) error
}

// DepenseRepository defines persistence operations for Depense
type DepenseRepository interface {
	Create(ctx context.Context, depense *entity.Depense) error
	GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Depense, error)

	// SumByMission returns the total declared expense amount of a mission
	SumByMission(ctx context.Context, missionID int64) (int64, error)
}

// AvanceRepository defines persistence operations for Avance
type AvanceRepository interface {
	Create(ctx context.Context, avance *entity.Avance) error
	GetByID(ctx context.Context, id int64) (*entity.Avance, error)
	GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Avance, error)
	Update(ctx context.Context, avance *entity.Avance) error

	// SumDisbursedByMission returns the total of advances with status
	// DISBURSED for a mission
	SumDisbursedByMission(ctx context.Context, missionID int64) (int64, error)
}

// TicketRepository defines persistence operations for Ticket
type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	GetByMissionID(ctx context.Context, missionID int64) (*entity.Ticket, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)

	// MarkRead sets the read flag; scoped to the recipient so users cannot
	// acknowledge each other's notifications.
	MarkRead(ctx context.Context, id, recipientID int64, at time.Time) error
}

// UserRepository defines read operations for User
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByIdentifiant(ctx context.Context, identifiant string) (*entity.User, error)
	ListByRole(ctx context.Context, role string) ([]*entity.User, error)
	ListSubordinateIDs(ctx context.Context, managerID int64) ([]int64, error)
}

// EntiteRepository defines read operations for Entite
type EntiteRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Entite, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
