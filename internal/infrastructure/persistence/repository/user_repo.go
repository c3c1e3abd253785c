package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"go.uber.org/zap"
)

const userColumns = `
	id, identifiant, first_name, last_name, email, role,
	manager_id, entity_id, password_hash, active, created_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByIdentifiant(ctx context.Context, identifiant string) (*entity.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE identifiant = ?`

	user, err := scanUser(getExecutor(ctx, r.db).QueryRowContext(ctx, query, identifiant))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by identifiant", zap.String("identifiant", identifiant), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE role = ? AND active = 1 ORDER BY id ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, role)
	if err != nil {
		r.logger.Error("Failed to list users by role", zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *UserRepository) ListSubordinateIDs(ctx context.Context, managerID int64) ([]int64, error) {
	query := `SELECT id FROM users WHERE manager_id = ? AND active = 1`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, managerID)
	if err != nil {
		r.logger.Error("Failed to list subordinates", zap.Int64("manager_id", managerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list subordinates: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan subordinate id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanUser(s rowScanner) (*entity.User, error) {
	var u entity.User
	var managerID, entityID sql.NullInt64

	err := s.Scan(
		&u.ID, &u.Identifiant, &u.FirstName, &u.LastName, &u.Email, &u.Role,
		&managerID, &entityID, &u.PasswordHash, &u.Active, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if managerID.Valid {
		u.ManagerID = &managerID.Int64
	}
	if entityID.Valid {
		u.EntityID = &entityID.Int64
	}

	return &u, nil
}

// EntiteRepository implements port.EntiteRepository
type EntiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEntiteRepository creates a new entite repository
func NewEntiteRepository(db *sql.DB, logger *zap.Logger) port.EntiteRepository {
	return &EntiteRepository{
		db:     db,
		logger: logger,
	}
}

func (r *EntiteRepository) GetByID(ctx context.Context, id int64) (*entity.Entite, error) {
	query := `
		SELECT id, name, code, type, parent_id, responsable_id, created_at
		FROM entites
		WHERE id = ?
	`

	var e entity.Entite
	var parentID, responsableID sql.NullInt64

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.Code, &e.Type, &parentID, &responsableID, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get entite", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get entite: %w", err)
	}

	if parentID.Valid {
		e.ParentID = &parentID.Int64
	}
	if responsableID.Valid {
		e.ResponsableID = &responsableID.Int64
	}

	return &e, nil
}

// Verify interface compliance
var (
	_ port.UserRepository   = (*UserRepository)(nil)
	_ port.EntiteRepository = (*EntiteRepository)(nil)
)
