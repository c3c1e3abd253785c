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

const missionColumns = `
	id, reference, title, description, type, status,
	start_date, end_date, location,
	budget_estimate, advance_requested, advance_paid,
	creator_id, entity_id, vehicle, driver_id,
	signatures_complete,
	actual_start, actual_return, return_declared,
	justificatifs_deadline, justificatifs_deposited, justificatifs_verified,
	justificatifs_reminded, last_justificatifs_remind,
	balance, closed, closed_at, archived, archived_at,
	created_at, updated_at`

// MissionRepository implements port.MissionRepository
type MissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMissionRepository creates a new mission repository
func NewMissionRepository(db *sql.DB, logger *zap.Logger) port.MissionRepository {
	return &MissionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MissionRepository) Create(ctx context.Context, mission *entity.Mission) error {
	query := `
		INSERT INTO missions (
			reference, title, description, type, status,
			start_date, end_date, location,
			budget_estimate, advance_requested, advance_paid,
			creator_id, entity_id, vehicle, driver_id,
			signatures_complete, return_declared,
			justificatifs_deposited, justificatifs_verified, justificatifs_reminded,
			balance, closed, archived,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		mission.Reference,
		mission.Title,
		mission.Description,
		mission.Type,
		mission.Status,
		mission.StartDate,
		mission.EndDate,
		mission.Location,
		mission.BudgetEstimate,
		mission.AdvanceRequested,
		mission.AdvancePaid,
		mission.CreatorID,
		mission.EntityID,
		mission.Vehicle,
		mission.DriverID,
		mission.SignaturesComplete,
		mission.ReturnDeclared,
		mission.JustificatifsDeposited,
		mission.JustificatifsVerified,
		mission.JustificatifsReminded,
		mission.Balance,
		mission.Closed,
		mission.Archived,
		mission.CreatedAt,
		mission.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create mission", zap.Error(err))
		return fmt.Errorf("failed to create mission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	mission.ID = id
	return nil
}

func (r *MissionRepository) GetByID(ctx context.Context, id int64) (*entity.Mission, error) {
	query := `SELECT` + missionColumns + ` FROM missions WHERE id = ?`

	mission, err := r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		r.logger.Error("Failed to get mission by ID", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if mission != nil {
		if err := r.loadParticipants(ctx, mission); err != nil {
			return nil, err
		}
	}
	return mission, nil
}

func (r *MissionRepository) GetByReference(ctx context.Context, reference string) (*entity.Mission, error) {
	query := `SELECT` + missionColumns + ` FROM missions WHERE reference = ?`

	mission, err := r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, reference))
	if err != nil {
		r.logger.Error("Failed to get mission by reference", zap.String("reference", reference), zap.Error(err))
		return nil, err
	}
	if mission != nil {
		if err := r.loadParticipants(ctx, mission); err != nil {
			return nil, err
		}
	}
	return mission, nil
}

func (r *MissionRepository) Update(ctx context.Context, mission *entity.Mission) error {
	query := `
		UPDATE missions SET
			title = ?, description = ?, type = ?, status = ?,
			start_date = ?, end_date = ?, location = ?,
			budget_estimate = ?, advance_requested = ?, advance_paid = ?,
			entity_id = ?, vehicle = ?, driver_id = ?,
			signatures_complete = ?,
			actual_start = ?, actual_return = ?, return_declared = ?,
			justificatifs_deadline = ?, justificatifs_deposited = ?, justificatifs_verified = ?,
			justificatifs_reminded = ?, last_justificatifs_remind = ?,
			balance = ?, closed = ?, closed_at = ?, archived = ?, archived_at = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		mission.Title,
		mission.Description,
		mission.Type,
		mission.Status,
		mission.StartDate,
		mission.EndDate,
		mission.Location,
		mission.BudgetEstimate,
		mission.AdvanceRequested,
		mission.AdvancePaid,
		mission.EntityID,
		mission.Vehicle,
		mission.DriverID,
		mission.SignaturesComplete,
		mission.ActualStart,
		mission.ActualReturn,
		mission.ReturnDeclared,
		mission.JustificatifsDeadline,
		mission.JustificatifsDeposited,
		mission.JustificatifsVerified,
		mission.JustificatifsReminded,
		mission.LastJustificatifsRemind,
		mission.Balance,
		mission.Closed,
		mission.ClosedAt,
		mission.Archived,
		mission.ArchivedAt,
		mission.UpdatedAt,
		mission.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update mission", zap.Int64("id", mission.ID), zap.Error(err))
		return fmt.Errorf("failed to update mission: %w", err)
	}

	return nil
}

func (r *MissionRepository) List(ctx context.Context, limit, offset int) ([]*entity.Mission, error) {
	query := `SELECT` + missionColumns + `
		FROM missions
		WHERE archived = 0
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	return r.queryMany(ctx, query, limit, offset)
}

func (r *MissionRepository) ListByCreator(ctx context.Context, creatorID int64) ([]*entity.Mission, error) {
	query := `SELECT` + missionColumns + `
		FROM missions
		WHERE creator_id = ? AND archived = 0
		ORDER BY created_at DESC`

	return r.queryMany(ctx, query, creatorID)
}

func (r *MissionRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM missions WHERE archived = 0 GROUP BY status`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to count missions by status", zap.Error(err))
		return nil, fmt.Errorf("failed to count missions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

func (r *MissionRepository) CountCreatedOn(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	query := `SELECT COUNT(*) FROM missions WHERE created_at >= ? AND created_at < ?`

	var count int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, start, end).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count missions for day", zap.Error(err))
		return 0, fmt.Errorf("failed to count missions: %w", err)
	}

	return count, nil
}

func (r *MissionRepository) ReplaceParticipants(ctx context.Context, missionID int64, userIDs []int64) error {
	exec := getExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM mission_participants WHERE mission_id = ?`, missionID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}

	for _, userID := range userIDs {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO mission_participants (mission_id, user_id) VALUES (?, ?)`, missionID, userID)
		if err != nil {
			return fmt.Errorf("failed to add participant %d: %w", userID, err)
		}
	}

	return nil
}

func (r *MissionRepository) ListOverdueJustificatifs(ctx context.Context, now time.Time) ([]*entity.Mission, error) {
	query := `SELECT` + missionColumns + `
		FROM missions
		WHERE return_declared = 1
		  AND justificatifs_deposited = 0
		  AND justificatifs_deadline IS NOT NULL
		  AND justificatifs_deadline < ?
		  AND archived = 0
		ORDER BY justificatifs_deadline ASC`

	return r.queryMany(ctx, query, now)
}

func (r *MissionRepository) ListToArchive(ctx context.Context, cutoff time.Time) ([]*entity.Mission, error) {
	query := `SELECT` + missionColumns + `
		FROM missions
		WHERE closed = 1
		  AND archived = 0
		  AND closed_at IS NOT NULL
		  AND closed_at < ?
		ORDER BY closed_at ASC`

	return r.queryMany(ctx, query, cutoff)
}

func (r *MissionRepository) MarkArchived(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `UPDATE missions SET archived = 1, archived_at = ?, updated_at = ? WHERE id = ? AND archived = 0`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, at, at, id)
	if err != nil {
		r.logger.Error("Failed to archive mission", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to archive mission: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MissionRepository) MarkJustificatifsReminded(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE missions SET justificatifs_reminded = 1, last_justificatifs_remind = ?, updated_at = ?
		WHERE id = ? AND justificatifs_reminded = 0
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, at, at, id)
	if err != nil {
		r.logger.Error("Failed to mark justificatifs reminded", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark justificatifs reminded: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MissionRepository) TouchJustificatifsRemind(ctx context.Context, id int64, at, cutoff time.Time) (bool, error) {
	query := `
		UPDATE missions SET justificatifs_reminded = 1, last_justificatifs_remind = ?, updated_at = ?
		WHERE id = ? AND (last_justificatifs_remind IS NULL OR last_justificatifs_remind < ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, at, at, id, cutoff)
	if err != nil {
		r.logger.Error("Failed to refresh justificatifs reminder marker", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to refresh justificatifs reminder marker: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MissionRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Mission, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list missions", zap.Error(err))
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	var missions []*entity.Mission
	for rows.Next() {
		mission, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, mission)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, m := range missions {
		if err := r.loadParticipants(ctx, m); err != nil {
			return nil, err
		}
	}

	return missions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *MissionRepository) scanOne(row *sql.Row) (*entity.Mission, error) {
	mission, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return mission, nil
}

func (r *MissionRepository) scanRow(rows *sql.Rows) (*entity.Mission, error) {
	mission, err := scanMission(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan mission: %w", err)
	}
	return mission, nil
}

func scanMission(s rowScanner) (*entity.Mission, error) {
	var m entity.Mission
	var entityID, driverID sql.NullInt64
	var actualStart, actualReturn, justifDeadline, lastRemind, closedAt, archivedAt sql.NullTime

	err := s.Scan(
		&m.ID, &m.Reference, &m.Title, &m.Description, &m.Type, &m.Status,
		&m.StartDate, &m.EndDate, &m.Location,
		&m.BudgetEstimate, &m.AdvanceRequested, &m.AdvancePaid,
		&m.CreatorID, &entityID, &m.Vehicle, &driverID,
		&m.SignaturesComplete,
		&actualStart, &actualReturn, &m.ReturnDeclared,
		&justifDeadline, &m.JustificatifsDeposited, &m.JustificatifsVerified,
		&m.JustificatifsReminded, &lastRemind,
		&m.Balance, &m.Closed, &closedAt, &m.Archived, &archivedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if entityID.Valid {
		m.EntityID = &entityID.Int64
	}
	if driverID.Valid {
		m.DriverID = &driverID.Int64
	}
	if actualStart.Valid {
		m.ActualStart = &actualStart.Time
	}
	if actualReturn.Valid {
		m.ActualReturn = &actualReturn.Time
	}
	if justifDeadline.Valid {
		m.JustificatifsDeadline = &justifDeadline.Time
	}
	if lastRemind.Valid {
		m.LastJustificatifsRemind = &lastRemind.Time
	}
	if closedAt.Valid {
		m.ClosedAt = &closedAt.Time
	}
	if archivedAt.Valid {
		m.ArchivedAt = &archivedAt.Time
	}

	return &m, nil
}

func (r *MissionRepository) loadParticipants(ctx context.Context, mission *entity.Mission) error {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT user_id FROM mission_participants WHERE mission_id = ? ORDER BY user_id`, mission.ID)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		ids = append(ids, id)
	}

	mission.Participants = ids
	return rows.Err()
}

// Verify interface compliance
var _ port.MissionRepository = (*MissionRepository)(nil)
