package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"go.uber.org/zap"
)

const validationColumns = `
	id, mission_id, approver_id, level, status, comment,
	ordinal, delay_hours, deadline, decided_at, active, created_at`

// ValidationRepository implements port.ValidationRepository
type ValidationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewValidationRepository creates a new validation repository
func NewValidationRepository(db *sql.DB, logger *zap.Logger) port.ValidationRepository {
	return &ValidationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ValidationRepository) Create(ctx context.Context, validation *entity.Validation) error {
	query := `
		INSERT INTO validations (
			mission_id, approver_id, level, status, comment,
			ordinal, delay_hours, deadline, active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		validation.MissionID,
		validation.ApproverID,
		validation.Level,
		validation.Status,
		validation.Comment,
		validation.Ordinal,
		validation.DelayHours,
		validation.Deadline,
		validation.Active,
		validation.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: validation for mission %d approver %d level %s",
				port.ErrDuplicate, validation.MissionID, validation.ApproverID, validation.Level)
		}
		r.logger.Error("Failed to create validation", zap.Error(err))
		return fmt.Errorf("failed to create validation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	validation.ID = id
	return nil
}

func (r *ValidationRepository) GetByID(ctx context.Context, id int64) (*entity.Validation, error) {
	query := `SELECT` + validationColumns + ` FROM validations WHERE id = ?`

	validation, err := scanValidation(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get validation", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get validation: %w", err)
	}

	return validation, nil
}

func (r *ValidationRepository) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Validation, error) {
	query := `SELECT` + validationColumns + ` FROM validations WHERE mission_id = ? ORDER BY ordinal ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, missionID)
	if err != nil {
		r.logger.Error("Failed to list validations", zap.Int64("mission_id", missionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list validations: %w", err)
	}
	defer rows.Close()

	var validations []*entity.Validation
	for rows.Next() {
		v, err := scanValidation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan validation: %w", err)
		}
		validations = append(validations, v)
	}

	return validations, rows.Err()
}

func (r *ValidationRepository) Update(ctx context.Context, validation *entity.Validation) error {
	query := `
		UPDATE validations SET
			status = ?, comment = ?, deadline = ?, decided_at = ?, active = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		validation.Status,
		validation.Comment,
		validation.Deadline,
		validation.DecidedAt,
		validation.Active,
		validation.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update validation", zap.Int64("id", validation.ID), zap.Error(err))
		return fmt.Errorf("failed to update validation: %w", err)
	}

	return nil
}

func (r *ValidationRepository) Decide(ctx context.Context, id int64, status, comment string, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE validations SET status = ?, comment = ?, decided_at = ?
		WHERE id = ? AND status = ? AND active = 1
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		status, comment, decidedAt, id, entity.ValidationStatusPending)
	if err != nil {
		r.logger.Error("Failed to decide validation", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to decide validation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *ValidationRepository) GetNextPending(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
	query := `SELECT` + validationColumns + `
		FROM validations
		WHERE mission_id = ? AND status = ? AND active = 1 AND ordinal > ?
		ORDER BY ordinal ASC
		LIMIT 1`

	validation, err := scanValidation(getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		missionID, entity.ValidationStatusPending, afterOrdinal))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get next pending validation", zap.Int64("mission_id", missionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get next pending validation: %w", err)
	}

	return validation, nil
}

func scanValidation(s rowScanner) (*entity.Validation, error) {
	var v entity.Validation
	var deadline, decidedAt sql.NullTime

	err := s.Scan(
		&v.ID, &v.MissionID, &v.ApproverID, &v.Level, &v.Status, &v.Comment,
		&v.Ordinal, &v.DelayHours, &deadline, &decidedAt, &v.Active, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deadline.Valid {
		v.Deadline = &deadline.Time
	}
	if decidedAt.Valid {
		v.DecidedAt = &decidedAt.Time
	}

	return &v, nil
}

// Verify interface compliance
var _ port.ValidationRepository = (*ValidationRepository)(nil)
