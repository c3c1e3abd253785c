package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"go.uber.org/zap"
)

// DepenseRepository implements port.DepenseRepository
type DepenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDepenseRepository creates a new depense repository
func NewDepenseRepository(db *sql.DB, logger *zap.Logger) port.DepenseRepository {
	return &DepenseRepository{db: db, logger: logger}
}

func (r *DepenseRepository) Create(ctx context.Context, depense *entity.Depense) error {
	query := `
		INSERT INTO depenses (mission_id, nature, amount, expense_date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		depense.MissionID,
		depense.Nature,
		depense.Amount,
		depense.ExpenseDate,
		depense.Description,
		depense.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create depense", zap.Error(err))
		return fmt.Errorf("failed to create depense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	depense.ID = id
	return nil
}

func (r *DepenseRepository) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Depense, error) {
	query := `
		SELECT id, mission_id, nature, amount, expense_date, description, created_at
		FROM depenses
		WHERE mission_id = ?
		ORDER BY expense_date ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, missionID)
	if err != nil {
		r.logger.Error("Failed to list depenses", zap.Int64("mission_id", missionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list depenses: %w", err)
	}
	defer rows.Close()

	var depenses []*entity.Depense
	for rows.Next() {
		var d entity.Depense
		if err := rows.Scan(&d.ID, &d.MissionID, &d.Nature, &d.Amount, &d.ExpenseDate, &d.Description, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan depense: %w", err)
		}
		depenses = append(depenses, &d)
	}

	return depenses, rows.Err()
}

func (r *DepenseRepository) SumByMission(ctx context.Context, missionID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM depenses WHERE mission_id = ?`

	var sum int64
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, missionID).Scan(&sum); err != nil {
		r.logger.Error("Failed to sum depenses", zap.Int64("mission_id", missionID), zap.Error(err))
		return 0, fmt.Errorf("failed to sum depenses: %w", err)
	}

	return sum, nil
}

// AvanceRepository implements port.AvanceRepository
type AvanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAvanceRepository creates a new avance repository
func NewAvanceRepository(db *sql.DB, logger *zap.Logger) port.AvanceRepository {
	return &AvanceRepository{db: db, logger: logger}
}

func (r *AvanceRepository) Create(ctx context.Context, avance *entity.Avance) error {
	query := `
		INSERT INTO avances (mission_id, amount, payer_id, beneficiary_id, status, disbursement_mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		avance.MissionID,
		avance.Amount,
		avance.PayerID,
		avance.BeneficiaryID,
		avance.Status,
		avance.DisbursementMode,
		avance.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create avance", zap.Error(err))
		return fmt.Errorf("failed to create avance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	avance.ID = id
	return nil
}

func (r *AvanceRepository) GetByID(ctx context.Context, id int64) (*entity.Avance, error) {
	query := `
		SELECT id, mission_id, amount, payer_id, beneficiary_id, status, disbursement_mode, disbursed_at, created_at
		FROM avances
		WHERE id = ?
	`

	avance, err := scanAvance(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get avance", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get avance: %w", err)
	}

	return avance, nil
}

func (r *AvanceRepository) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Avance, error) {
	query := `
		SELECT id, mission_id, amount, payer_id, beneficiary_id, status, disbursement_mode, disbursed_at, created_at
		FROM avances
		WHERE mission_id = ?
		ORDER BY created_at ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, missionID)
	if err != nil {
		r.logger.Error("Failed to list avances", zap.Int64("mission_id", missionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list avances: %w", err)
	}
	defer rows.Close()

	var avances []*entity.Avance
	for rows.Next() {
		a, err := scanAvance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan avance: %w", err)
		}
		avances = append(avances, a)
	}

	return avances, rows.Err()
}

func (r *AvanceRepository) Update(ctx context.Context, avance *entity.Avance) error {
	query := `UPDATE avances SET status = ?, disbursement_mode = ?, disbursed_at = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		avance.Status,
		avance.DisbursementMode,
		avance.DisbursedAt,
		avance.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update avance", zap.Int64("id", avance.ID), zap.Error(err))
		return fmt.Errorf("failed to update avance: %w", err)
	}

	return nil
}

func (r *AvanceRepository) SumDisbursedByMission(ctx context.Context, missionID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM avances WHERE mission_id = ? AND status = ?`

	var sum int64
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, missionID, entity.AvanceStatusDisbursed).Scan(&sum)
	if err != nil {
		r.logger.Error("Failed to sum disbursed avances", zap.Int64("mission_id", missionID), zap.Error(err))
		return 0, fmt.Errorf("failed to sum disbursed avances: %w", err)
	}

	return sum, nil
}

func scanAvance(s rowScanner) (*entity.Avance, error) {
	var a entity.Avance
	var disbursedAt sql.NullTime

	err := s.Scan(
		&a.ID, &a.MissionID, &a.Amount, &a.PayerID, &a.BeneficiaryID,
		&a.Status, &a.DisbursementMode, &disbursedAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if disbursedAt.Valid {
		a.DisbursedAt = &disbursedAt.Time
	}

	return &a, nil
}

// TicketRepository implements port.TicketRepository
type TicketRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB, logger *zap.Logger) port.TicketRepository {
	return &TicketRepository{db: db, logger: logger}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	query := `
		INSERT INTO tickets (mission_id, number, approved_amount, issuer_id, status, issued_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		ticket.MissionID,
		ticket.Number,
		ticket.ApprovedAmount,
		ticket.IssuerID,
		ticket.Status,
		ticket.IssuedAt,
		ticket.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ticket", zap.Error(err))
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	ticket.ID = id
	return nil
}

func (r *TicketRepository) GetByMissionID(ctx context.Context, missionID int64) (*entity.Ticket, error) {
	query := `
		SELECT id, mission_id, number, approved_amount, issuer_id, status, issued_at, created_at
		FROM tickets
		WHERE mission_id = ?
	`

	var t entity.Ticket
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, missionID).Scan(
		&t.ID, &t.MissionID, &t.Number, &t.ApprovedAmount, &t.IssuerID,
		&t.Status, &t.IssuedAt, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ticket", zap.Int64("mission_id", missionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return &t, nil
}

// Verify interface compliance
var (
	_ port.DepenseRepository = (*DepenseRepository)(nil)
	_ port.AvanceRepository  = (*AvanceRepository)(nil)
	_ port.TicketRepository  = (*TicketRepository)(nil)
)
