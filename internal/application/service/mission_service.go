package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"github.com/coopec/missions-backend/internal/domain/policy"
	"github.com/coopec/missions-backend/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateMissionInput carries the fields of a new mission request
type CreateMissionInput struct {
	Title            string
	Description      string
	Type             string
	StartDate        time.Time
	EndDate          time.Time
	Location         string
	BudgetEstimate   int64
	AdvanceRequested int64
	EntityID         *int64
	Vehicle          string
	DriverID         *int64
	Participants     []int64
}

// MissionService manages mission records and the creator-driven transitions
type MissionService interface {
	CreateMission(ctx context.Context, actor *entity.User, input CreateMissionInput) (*entity.Mission, error)
	GetMission(ctx context.Context, id int64, actor *entity.User) (*entity.Mission, error)
	SubmitMission(ctx context.Context, id int64, actor *entity.User) (*entity.Mission, error)
	DeclareDeparture(ctx context.Context, id int64, actor *entity.User) (*entity.Mission, error)
	ListMissions(ctx context.Context, actor *entity.User, limit, offset int) ([]*entity.Mission, error)
	Statistics(ctx context.Context) (map[string]int, error)
}

type missionServiceImpl struct {
	missionRepo   port.MissionRepository
	userRepo      port.UserRepository
	validationSvc ValidationService
	txManager     port.TransactionManager
	clock         port.Clock
	logger        Logger
}

// NewMissionService creates a new MissionService
func NewMissionService(
	missionRepo port.MissionRepository,
	userRepo port.UserRepository,
	validationSvc ValidationService,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) MissionService {
	return &missionServiceImpl{
		missionRepo:   missionRepo,
		userRepo:      userRepo,
		validationSvc: validationSvc,
		txManager:     txManager,
		clock:         clock,
		logger:        logger,
	}
}

// CreateMission creates a DRAFT mission with a generated daily reference
func (s *missionServiceImpl) CreateMission(ctx context.Context, actor *entity.User, input CreateMissionInput) (*entity.Mission, error) {
	if !policy.CanCreateMissions(actor) {
		return nil, fmt.Errorf("%w: role %s cannot create missions", ErrNotAuthorized, actor.Role)
	}

	if input.Title == "" || input.Location == "" {
		return nil, fmt.Errorf("%w: title and location are required", ErrInvalidInput)
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	if input.BudgetEstimate < 0 || input.AdvanceRequested < 0 {
		return nil, fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}

	missionType := input.Type
	if missionType == "" {
		missionType = entity.MissionTypeAutre
	}

	now := s.clock.Now()
	mission := &entity.Mission{
		Title:            input.Title,
		Description:      input.Description,
		Type:             missionType,
		Status:           entity.MissionStatusDraft,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		Location:         input.Location,
		BudgetEstimate:   input.BudgetEstimate,
		AdvanceRequested: input.AdvanceRequested,
		CreatorID:        actor.ID,
		EntityID:         input.EntityID,
		Vehicle:          input.Vehicle,
		DriverID:         input.DriverID,
		Participants:     input.Participants,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// The reference count and the insert run in one transaction so the
	// daily sequence stays contiguous under concurrent creation.
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		count, err := s.missionRepo.CountCreatedOn(txCtx, now)
		if err != nil {
			return fmt.Errorf("count missions for reference: %w", err)
		}
		mission.Reference = fmt.Sprintf("MIS-%s-%03d", now.Format("20060102"), count+1)

		if err := s.missionRepo.Create(txCtx, mission); err != nil {
			return fmt.Errorf("create mission: %w", err)
		}

		if len(input.Participants) > 0 {
			if err := s.missionRepo.ReplaceParticipants(txCtx, mission.ID, input.Participants); err != nil {
				return fmt.Errorf("set participants: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		s.logger.Error("Failed to create mission", "error", err, "creator_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Mission created", "id", mission.ID, "reference", mission.Reference, "creator_id", actor.ID)
	return mission, nil
}

// GetMission retrieves a mission the actor is allowed to see
func (s *missionServiceImpl) GetMission(ctx context.Context, id int64, actor *entity.User) (*entity.Mission, error) {
	mission, err := s.missionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, fmt.Errorf("%w: mission %d", ErrNotFound, id)
	}

	subordinates, err := s.subordinateIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !policy.MissionVisibleTo(actor, subordinates, mission) {
		return nil, fmt.Errorf("%w: mission %d is outside your scope", ErrNotAuthorized, id)
	}

	return mission, nil
}

// SubmitMission moves a DRAFT mission into validation. The required chain
// is computed and persisted atomically with the status change, and the
// first approver is notified within the same operation.
func (s *missionServiceImpl) SubmitMission(ctx context.Context, id int64, actor *entity.User) (*entity.Mission, error) {
	mission, err := s.missionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, fmt.Errorf("%w: mission %d", ErrNotFound, id)
	}

	if !policy.IsCreator(actor, mission) {
		return nil, fmt.Errorf("%w: only the creator can submit the mission", ErrNotAuthorized)
	}
	if mission.EntityID == nil || mission.BudgetEstimate <= 0 {
		return nil, fmt.Errorf("%w: organizational entity and budget estimate are required before submission", ErrInvalidInput)
	}

	machine := workflow.BuildMissionStateMachine(workflow.State(mission.Status))
	if err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: cannot submit mission in status %s", ErrInvalidState, mission.Status)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		mission.Status = machine.State().String()
		mission.UpdatedAt = s.clock.Now()
		if err := s.missionRepo.Update(txCtx, mission); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}

		if _, err := s.validationSvc.InitiateWorkflow(txCtx, mission); err != nil {
			return fmt.Errorf("initiate validation workflow: %w", err)
		}

		return nil
	})

	if err != nil {
		s.logger.Error("Failed to submit mission", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Mission submitted", "id", id, "reference", mission.Reference)
	return mission, nil
}

// DeclareDeparture records the actual start of a validated mission
func (s *missionServiceImpl) DeclareDeparture(ctx context.Context, id int64, actor *entity.User) (*entity.Mission, error) {
	mission, err := s.missionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, fmt.Errorf("%w: mission %d", ErrNotFound, id)
	}

	if !policy.IsCreator(actor, mission) {
		return nil, fmt.Errorf("%w: only the creator can declare the departure", ErrNotAuthorized)
	}

	machine := workflow.BuildMissionStateMachine(workflow.State(mission.Status))
	if err := machine.Fire(ctx, workflow.TriggerDepart); err != nil {
		return nil, fmt.Errorf("%w: cannot declare departure in status %s", ErrInvalidState, mission.Status)
	}

	now := s.clock.Now()
	mission.Status = machine.State().String()
	mission.ActualStart = &now
	mission.UpdatedAt = now

	if err := s.missionRepo.Update(ctx, mission); err != nil {
		s.logger.Error("Failed to declare departure", "error", err, "id", id)
		return nil, fmt.Errorf("update mission: %w", err)
	}

	s.logger.Info("Mission departure declared", "id", id, "reference", mission.Reference)
	return mission, nil
}

// ListMissions returns the missions visible to the actor
func (s *missionServiceImpl) ListMissions(ctx context.Context, actor *entity.User, limit, offset int) ([]*entity.Mission, error) {
	missions, err := s.missionRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list missions", "error", err)
		return nil, err
	}

	subordinates, err := s.subordinateIDs(ctx, actor)
	if err != nil {
		return nil, err
	}

	return policy.FilterMissions(actor, subordinates, missions), nil
}

// Statistics returns mission counts per status
func (s *missionServiceImpl) Statistics(ctx context.Context) (map[string]int, error) {
	return s.missionRepo.CountByStatus(ctx)
}

func (s *missionServiceImpl) subordinateIDs(ctx context.Context, actor *entity.User) ([]int64, error) {
	if actor.Role != entity.RoleChefAgence {
		return nil, nil
	}
	ids, err := s.userRepo.ListSubordinateIDs(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list subordinates: %w", err)
	}
	return ids, nil
}
