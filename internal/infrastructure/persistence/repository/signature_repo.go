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

const signatureColumns = `
	id, mission_id, signatory_id, level, ordinal, status, comment,
	signed_at, deadline, reminder_sent, reminded_at, created_at`

// SignatureRepository implements port.SignatureRepository
type SignatureRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSignatureRepository creates a new signature repository
func NewSignatureRepository(db *sql.DB, logger *zap.Logger) port.SignatureRepository {
	return &SignatureRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SignatureRepository) Create(ctx context.Context, signature *entity.SignatureFinanciere) error {
	query := `
		INSERT INTO signatures_financieres (
			mission_id, signatory_id, level, ordinal, status, comment,
			deadline, reminder_sent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		signature.MissionID,
		signature.SignatoryID,
		signature.Level,
		signature.Ordinal,
		signature.Status,
		signature.Comment,
		signature.Deadline,
		signature.ReminderSent,
		signature.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: signature for mission %d level %s",
				port.ErrDuplicate, signature.MissionID, signature.Level)
		}
		r.logger.Error("Failed to create signature", zap.Error(err))
		return fmt.Errorf("failed to create signature: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	signature.ID = id
	return nil
}

func (r *SignatureRepository) GetByID(ctx context.Context, id int64) (*entity.SignatureFinanciere, error) {
	query := `SELECT` + signatureColumns + ` FROM signatures_financieres WHERE id = ?`

	signature, err := scanSignature(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get signature", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get signature: %w", err)
	}

	return signature, nil
}

func (r *SignatureRepository) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.SignatureFinanciere, error) {
	query := `SELECT` + signatureColumns + ` FROM signatures_financieres WHERE mission_id = ? ORDER BY ordinal ASC`

	return r.queryMany(ctx, query, missionID)
}

func (r *SignatureRepository) Update(ctx context.Context, signature *entity.SignatureFinanciere) error {
	query := `
		UPDATE signatures_financieres SET
			status = ?, comment = ?, signed_at = ?, deadline = ?,
			reminder_sent = ?, reminded_at = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		signature.Status,
		signature.Comment,
		signature.SignedAt,
		signature.Deadline,
		signature.ReminderSent,
		signature.RemindedAt,
		signature.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update signature", zap.Int64("id", signature.ID), zap.Error(err))
		return fmt.Errorf("failed to update signature: %w", err)
	}

	return nil
}

func (r *SignatureRepository) GetNextPending(ctx context.Context, missionID int64, afterOrdinal int) (*entity.SignatureFinanciere, error) {
	// A refused row stays in the circuit: it blocks higher ordinals until
	// it is re-signed.
	query := `SELECT` + signatureColumns + `
		FROM signatures_financieres
		WHERE mission_id = ? AND status IN (?, ?) AND ordinal > ?
		ORDER BY ordinal ASC
		LIMIT 1`

	signature, err := scanSignature(getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		missionID, entity.SignatureStatusPending, entity.SignatureStatusRefused, afterOrdinal))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get next pending signature", zap.Int64("mission_id", missionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get next pending signature: %w", err)
	}

	return signature, nil
}

func (r *SignatureRepository) Decide(ctx context.Context, id int64, status, comment string, signedAt time.Time) (bool, error) {
	query := `
		UPDATE signatures_financieres SET status = ?, comment = ?, signed_at = ?
		WHERE id = ? AND status != ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		status, comment, signedAt, id, entity.SignatureStatusSigned)
	if err != nil {
		r.logger.Error("Failed to decide signature", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to decide signature: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SignatureRepository) CountByMission(ctx context.Context, missionID int64) (int, int, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM signatures_financieres
		WHERE mission_id = ?
	`

	var total, signed int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, entity.SignatureStatusSigned, missionID).
		Scan(&total, &signed)
	if err != nil {
		r.logger.Error("Failed to count signatures", zap.Int64("mission_id", missionID), zap.Error(err))
		return 0, 0, fmt.Errorf("failed to count signatures: %w", err)
	}

	return total, signed, nil
}

func (r *SignatureRepository) ListOverdue(ctx context.Context, now time.Time) ([]*entity.SignatureFinanciere, error) {
	query := `SELECT` + signatureColumns + `
		FROM signatures_financieres
		WHERE status = ? AND reminder_sent = 0
		  AND deadline IS NOT NULL AND deadline < ?
		ORDER BY deadline ASC`

	return r.queryMany(ctx, query, entity.SignatureStatusPending, now)
}

func (r *SignatureRepository) MarkReminded(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `UPDATE signatures_financieres SET reminder_sent = 1, reminded_at = ? WHERE id = ? AND reminder_sent = 0`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, at, id)
	if err != nil {
		r.logger.Error("Failed to mark signature reminded", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark signature reminded: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SignatureRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.SignatureFinanciere, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list signatures", zap.Error(err))
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	defer rows.Close()

	var signatures []*entity.SignatureFinanciere
	for rows.Next() {
		sig, err := scanSignature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures = append(signatures, sig)
	}

	return signatures, rows.Err()
}

func scanSignature(s rowScanner) (*entity.SignatureFinanciere, error) {
	var sig entity.SignatureFinanciere
	var signedAt, deadline, remindedAt sql.NullTime

	err := s.Scan(
		&sig.ID, &sig.MissionID, &sig.SignatoryID, &sig.Level, &sig.Ordinal,
		&sig.Status, &sig.Comment,
		&signedAt, &deadline, &sig.ReminderSent, &remindedAt, &sig.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if signedAt.Valid {
		sig.SignedAt = &signedAt.Time
	}
	if deadline.Valid {
		sig.Deadline = &deadline.Time
	}
	if remindedAt.Valid {
		sig.RemindedAt = &remindedAt.Time
	}

	return &sig, nil
}

// Verify interface compliance
var _ port.SignatureRepository = (*SignatureRepository)(nil)
