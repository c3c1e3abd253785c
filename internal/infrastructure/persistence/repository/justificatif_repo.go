package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"go.uber.org/zap"
)

const justificatifColumns = `
	id, mission_id, contributor_id, document_type, category, description,
	file_name, file_size, file_hash, file_key,
	amount, currency, status, validation_comment,
	verified, verifier_id, verified_at,
	submitted_at, validated_at, reimbursed_at, created_at`

// JustificatifRepository implements port.JustificatifRepository
type JustificatifRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewJustificatifRepository creates a new justificatif repository
func NewJustificatifRepository(db *sql.DB, logger *zap.Logger) port.JustificatifRepository {
	return &JustificatifRepository{
		db:     db,
		logger: logger,
	}
}

func (r *JustificatifRepository) Create(ctx context.Context, justificatif *entity.Justificatif) error {
	query := `
		INSERT INTO justificatifs (
			mission_id, contributor_id, document_type, category, description,
			file_name, file_size, file_hash, file_key,
			amount, currency, status, verified,
			submitted_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		justificatif.MissionID,
		justificatif.ContributorID,
		justificatif.DocumentType,
		justificatif.Category,
		justificatif.Description,
		justificatif.FileName,
		justificatif.FileSize,
		justificatif.FileHash,
		justificatif.FileKey,
		justificatif.Amount,
		justificatif.Currency,
		justificatif.Status,
		justificatif.Verified,
		justificatif.SubmittedAt,
		justificatif.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create justificatif", zap.Error(err))
		return fmt.Errorf("failed to create justificatif: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	justificatif.ID = id
	return nil
}

func (r *JustificatifRepository) GetByID(ctx context.Context, id int64) (*entity.Justificatif, error) {
	query := `SELECT` + justificatifColumns + ` FROM justificatifs WHERE id = ?`

	justificatif, err := scanJustificatif(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get justificatif", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get justificatif: %w", err)
	}

	return justificatif, nil
}

func (r *JustificatifRepository) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Justificatif, error) {
	query := `SELECT` + justificatifColumns + ` FROM justificatifs WHERE mission_id = ? ORDER BY created_at ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, missionID)
	if err != nil {
		r.logger.Error("Failed to list justificatifs", zap.Int64("mission_id", missionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list justificatifs: %w", err)
	}
	defer rows.Close()

	var justificatifs []*entity.Justificatif
	for rows.Next() {
		j, err := scanJustificatif(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan justificatif: %w", err)
		}
		justificatifs = append(justificatifs, j)
	}

	return justificatifs, rows.Err()
}

func (r *JustificatifRepository) Update(ctx context.Context, justificatif *entity.Justificatif) error {
	query := `
		UPDATE justificatifs SET
			document_type = ?, category = ?, description = ?,
			amount = ?, currency = ?, status = ?, validation_comment = ?,
			verified = ?, verifier_id = ?, verified_at = ?,
			validated_at = ?, reimbursed_at = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		justificatif.DocumentType,
		justificatif.Category,
		justificatif.Description,
		justificatif.Amount,
		justificatif.Currency,
		justificatif.Status,
		justificatif.ValidationComment,
		justificatif.Verified,
		justificatif.VerifierID,
		justificatif.VerifiedAt,
		justificatif.ValidatedAt,
		justificatif.ReimbursedAt,
		justificatif.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update justificatif", zap.Int64("id", justificatif.ID), zap.Error(err))
		return fmt.Errorf("failed to update justificatif: %w", err)
	}

	return nil
}

func scanJustificatif(s rowScanner) (*entity.Justificatif, error) {
	var j entity.Justificatif
	var verifierID sql.NullInt64
	var verifiedAt, submittedAt, validatedAt, reimbursedAt sql.NullTime

	err := s.Scan(
		&j.ID, &j.MissionID, &j.ContributorID, &j.DocumentType, &j.Category, &j.Description,
		&j.FileName, &j.FileSize, &j.FileHash, &j.FileKey,
		&j.Amount, &j.Currency, &j.Status, &j.ValidationComment,
		&j.Verified, &verifierID, &verifiedAt,
		&submittedAt, &validatedAt, &reimbursedAt, &j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verifierID.Valid {
		j.VerifierID = &verifierID.Int64
	}
	if verifiedAt.Valid {
		j.VerifiedAt = &verifiedAt.Time
	}
	if submittedAt.Valid {
		j.SubmittedAt = &submittedAt.Time
	}
	if validatedAt.Valid {
		j.ValidatedAt = &validatedAt.Time
	}
	if reimbursedAt.Valid {
		j.ReimbursedAt = &reimbursedAt.Time
	}

	return &j, nil
}

// Verify interface compliance
var _ port.JustificatifRepository = (*JustificatifRepository)(nil)
