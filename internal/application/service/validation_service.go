package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"github.com/coopec/missions-backend/internal/domain/policy"
	"github.com/coopec/missions-backend/internal/domain/workflow"
)

// ValidationService builds the hierarchical validation chain of a mission
// and processes approver decisions in strict ordinal order.
type ValidationService interface {
	// InitiateWorkflow creates the validation rows required by the mission's
	// budget and duration and notifies the first approver. Must be called
	// inside the submission transaction.
	InitiateWorkflow(ctx context.Context, mission *entity.Mission) ([]*entity.Validation, error)

	// ProcessDecision records an approver decision. On the last approval the
	// mission becomes VALIDATED and the signature workflow starts; on any
	// rejection the mission is terminally REJECTED.
	ProcessDecision(ctx context.Context, validationID int64, actor *entity.User, decision, comment string) (*entity.Validation, error)

	ListByMission(ctx context.Context, missionID int64) ([]*entity.Validation, error)
}

type validationServiceImpl struct {
	validationRepo port.ValidationRepository
	missionRepo    port.MissionRepository
	userRepo       port.UserRepository
	entiteRepo     port.EntiteRepository
	signatureSvc   SignatureService
	notifier       NotificationService
	renderer       port.DocumentRenderer
	txManager      port.TransactionManager
	clock          port.Clock
	logger         Logger
}

// NewValidationService creates a new ValidationService
func NewValidationService(
	validationRepo port.ValidationRepository,
	missionRepo port.MissionRepository,
	userRepo port.UserRepository,
	entiteRepo port.EntiteRepository,
	signatureSvc SignatureService,
	notifier NotificationService,
	renderer port.DocumentRenderer,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) ValidationService {
	return &validationServiceImpl{
		validationRepo: validationRepo,
		missionRepo:    missionRepo,
		userRepo:       userRepo,
		entiteRepo:     entiteRepo,
		signatureSvc:   signatureSvc,
		notifier:       notifier,
		renderer:       renderer,
		txManager:      txManager,
		clock:          clock,
		logger:         logger,
	}
}

func (s *validationServiceImpl) InitiateWorkflow(ctx context.Context, mission *entity.Mission) ([]*entity.Validation, error) {
	creator, err := s.userRepo.GetByID(ctx, mission.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("load creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: mission creator %d", ErrNotFound, mission.CreatorID)
	}

	levels := policy.RequiredValidationLevels(mission.BudgetEstimate, mission.DurationDays())
	now := s.clock.Now()

	validations := make([]*entity.Validation, 0, len(levels))
	for _, level := range levels {
		approver, err := s.resolveApprover(ctx, creator, mission, level.Level)
		if err != nil {
			return nil, err
		}

		deadline := now.Add(level.Delay())
		v := &entity.Validation{
			MissionID:  mission.ID,
			ApproverID: approver.ID,
			Level:      level.Level,
			Status:     entity.ValidationStatusPending,
			Ordinal:    level.Ordinal,
			DelayHours: level.DelayHours,
			Deadline:   &deadline,
			Active:     true,
			CreatedAt:  now,
		}

		if err := s.validationRepo.Create(ctx, v); err != nil {
			if errors.Is(err, port.ErrDuplicate) {
				return nil, fmt.Errorf("%w: validation chain already created", ErrInvalidState)
			}
			return nil, fmt.Errorf("create validation level %s: %w", level.Level, err)
		}
		validations = append(validations, v)
	}

	// Only the first approver is notified; the rest are told when their
	// turn comes.
	first := validations[0]
	approver, err := s.userRepo.GetByID(ctx, first.ApproverID)
	if err != nil {
		return nil, fmt.Errorf("load first approver: %w", err)
	}
	if approver != nil {
		if err := s.notifier.NotifyValidationRequired(ctx, mission, first, approver); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Validation chain created",
		"mission_id", mission.ID, "reference", mission.Reference, "levels", len(validations))
	return validations, nil
}

// resolveApprover maps a chain level to a concrete user, falling back to the
// creator when the organization has no one to fill the level.
func (s *validationServiceImpl) resolveApprover(ctx context.Context, creator *entity.User, mission *entity.Mission, level string) (*entity.User, error) {
	var candidate *entity.User
	var err error

	switch level {
	case entity.ValidationLevelNPlus1:
		if creator.ManagerID != nil {
			candidate, err = s.userRepo.GetByID(ctx, *creator.ManagerID)
		}
	case entity.ValidationLevelNPlus2:
		if mission.EntityID != nil {
			var entite *entity.Entite
			entite, err = s.entiteRepo.GetByID(ctx, *mission.EntityID)
			if err == nil && entite != nil && entite.ResponsableID != nil {
				candidate, err = s.userRepo.GetByID(ctx, *entite.ResponsableID)
			}
		}
	case entity.ValidationLevelDG:
		var holders []*entity.User
		holders, err = s.userRepo.ListByRole(ctx, entity.RoleDG)
		if err == nil && len(holders) > 0 {
			candidate = holders[0]
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve approver for level %s: %w", level, err)
	}

	resolution := policy.ResolveApprover(creator, candidate)
	if resolution.FallbackSelf {
		s.logger.Info("No distinct approver for level, falling back to creator",
			"mission_id", mission.ID, "level", level, "creator_id", creator.ID)
	}
	return resolution.Approver, nil
}

func (s *validationServiceImpl) ProcessDecision(ctx context.Context, validationID int64, actor *entity.User, decision, comment string) (*entity.Validation, error) {
	if decision != entity.ValidationStatusApproved && decision != entity.ValidationStatusRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	// Every guard is evaluated inside the transaction that writes the
	// decision, so a concurrent decision on the same validation cannot pass
	// on stale reads. The status flip itself is a conditional write.
	var validation *entity.Validation
	var mission *entity.Mission
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		validation, err = s.validationRepo.GetByID(txCtx, validationID)
		if err != nil {
			return err
		}
		if validation == nil {
			return fmt.Errorf("%w: validation %d", ErrNotFound, validationID)
		}

		if validation.Status != entity.ValidationStatusPending || !validation.Active {
			return fmt.Errorf("%w: validation already decided", ErrInvalidState)
		}
		if validation.ApproverID != actor.ID {
			return fmt.Errorf("%w: you are not the designated approver", ErrNotAuthorized)
		}

		mission, err = s.missionRepo.GetByID(txCtx, validation.MissionID)
		if err != nil {
			return err
		}
		if mission == nil {
			return fmt.Errorf("%w: mission %d", ErrNotFound, validation.MissionID)
		}
		if mission.Status != entity.MissionStatusPendingValidation {
			return fmt.Errorf("%w: mission is not pending validation", ErrInvalidState)
		}

		// Decisions are accepted only for the lowest pending ordinal.
		next, err := s.validationRepo.GetNextPending(txCtx, mission.ID, 0)
		if err != nil {
			return err
		}
		if next == nil || next.ID != validation.ID {
			return fmt.Errorf("%w: a lower validation level is still pending", ErrInvalidState)
		}

		now := s.clock.Now()
		applied, err := s.validationRepo.Decide(txCtx, validation.ID, decision, comment, now)
		if err != nil {
			return fmt.Errorf("decide validation: %w", err)
		}
		if !applied {
			return fmt.Errorf("%w: validation already decided", ErrInvalidState)
		}
		validation.Status = decision
		validation.Comment = comment
		validation.DecidedAt = &now

		if decision == entity.ValidationStatusRejected {
			return s.rejectMission(txCtx, mission, validation)
		}
		return s.advanceChain(txCtx, mission, validation)
	})

	if err != nil {
		s.logger.Error("Failed to process validation decision",
			"error", err, "validation_id", validationID, "decision", decision)
		return nil, err
	}

	s.logger.Info("Validation decision recorded",
		"validation_id", validationID, "mission_id", mission.ID, "decision", decision)
	return validation, nil
}

// advanceChain notifies the next approver, or finishes the validation phase
// when the chain is exhausted.
func (s *validationServiceImpl) advanceChain(ctx context.Context, mission *entity.Mission, decided *entity.Validation) error {
	next, err := s.validationRepo.GetNextPending(ctx, mission.ID, decided.Ordinal)
	if err != nil {
		return err
	}

	if next != nil {
		approver, err := s.userRepo.GetByID(ctx, next.ApproverID)
		if err != nil {
			return fmt.Errorf("load next approver: %w", err)
		}
		if approver != nil {
			return s.notifier.NotifyValidationRequired(ctx, mission, next, approver)
		}
		return nil
	}

	return s.approveMission(ctx, mission)
}

func (s *validationServiceImpl) approveMission(ctx context.Context, mission *entity.Mission) error {
	machine := workflow.BuildMissionStateMachine(workflow.State(mission.Status))
	if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
		return fmt.Errorf("%w: cannot approve mission in status %s", ErrInvalidState, mission.Status)
	}

	mission.Status = machine.State().String()
	mission.UpdatedAt = s.clock.Now()
	if err := s.missionRepo.Update(ctx, mission); err != nil {
		return fmt.Errorf("update mission: %w", err)
	}

	s.renderMissionOrder(ctx, mission)

	if _, err := s.signatureSvc.InitiateWorkflow(ctx, mission); err != nil {
		return fmt.Errorf("initiate signature workflow: %w", err)
	}

	creator, err := s.userRepo.GetByID(ctx, mission.CreatorID)
	if err != nil {
		return fmt.Errorf("load creator: %w", err)
	}
	if creator != nil {
		if err := s.notifier.NotifyMissionValidated(ctx, mission, creator); err != nil {
			return err
		}
	}

	return nil
}

// renderMissionOrder produces the order document after final approval.
// Rendering failures are logged, never fatal to the transition.
func (s *validationServiceImpl) renderMissionOrder(ctx context.Context, mission *entity.Mission) {
	if s.renderer == nil {
		return
	}

	creator, err := s.userRepo.GetByID(ctx, mission.CreatorID)
	if err != nil || creator == nil {
		s.logger.Error("Failed to load creator for mission order", "error", err, "mission_id", mission.ID)
		return
	}

	entityName := ""
	if mission.EntityID != nil {
		if entite, err := s.entiteRepo.GetByID(ctx, *mission.EntityID); err == nil && entite != nil {
			entityName = entite.Name
		}
	}

	data := &port.MissionOrderData{Mission: mission, Creator: creator, EntityName: entityName}
	if _, _, err := s.renderer.RenderMissionOrder(ctx, data); err != nil {
		s.logger.Error("Failed to render mission order", "error", err, "mission_id", mission.ID)
	}
}

func (s *validationServiceImpl) rejectMission(ctx context.Context, mission *entity.Mission, decided *entity.Validation) error {
	machine := workflow.BuildMissionStateMachine(workflow.State(mission.Status))
	if err := machine.Fire(ctx, workflow.TriggerReject); err != nil {
		return fmt.Errorf("%w: cannot reject mission in status %s", ErrInvalidState, mission.Status)
	}

	mission.Status = machine.State().String()
	mission.UpdatedAt = s.clock.Now()
	if err := s.missionRepo.Update(ctx, mission); err != nil {
		return fmt.Errorf("update mission: %w", err)
	}

	// Downstream levels are deactivated so they never become due.
	validations, err := s.validationRepo.GetByMissionID(ctx, mission.ID)
	if err != nil {
		return err
	}
	for _, v := range validations {
		if v.Status == entity.ValidationStatusPending && v.Active {
			v.Active = false
			if err := s.validationRepo.Update(ctx, v); err != nil {
				return fmt.Errorf("deactivate validation %d: %w", v.ID, err)
			}
		}
	}

	creator, err := s.userRepo.GetByID(ctx, mission.CreatorID)
	if err != nil {
		return fmt.Errorf("load creator: %w", err)
	}
	if creator != nil {
		if err := s.notifier.NotifyMissionRejected(ctx, mission, creator, decided); err != nil {
			return err
		}
	}

	return nil
}

func (s *validationServiceImpl) ListByMission(ctx context.Context, missionID int64) ([]*entity.Validation, error) {
	return s.validationRepo.GetByMissionID(ctx, missionID)
}
