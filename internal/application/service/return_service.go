package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"github.com/coopec/missions-backend/internal/domain/policy"
	"github.com/coopec/missions-backend/internal/domain/workflow"
)

// justificatifsDelay is the window the agent gets after declaring the return
// to deposit the supporting documents.
const justificatifsDelay = 72 * time.Hour

// Settlement decisions accepted by VerifyJustificatifs
const (
	SettlementDecisionApprove = "APPROVE"
	SettlementDecisionReject  = "REJECT"
)

// AddJustificatifInput carries one uploaded supporting document
type AddJustificatifInput struct {
	DocumentType string
	Category     string
	Description  string
	FileName     string
	FileSize     int64
	FileHash     string
	Content      []byte
	Amount       int64
	Currency     string
}

// ReturnService handles the return declaration, justificatif deposit and the
// final settlement of a mission.
type ReturnService interface {
	// DeclareReturn records the actual return of the agent and opens the
	// justificatif deposit window.
	DeclareReturn(ctx context.Context, missionID int64, actor *entity.User) (*entity.Mission, error)

	// AddJustificatif stores one supporting document for a returned mission
	AddJustificatif(ctx context.Context, missionID int64, actor *entity.User, input AddJustificatifInput) (*entity.Justificatif, error)

	// SubmitJustificatifs marks the deposit complete and hands the file over
	// to verification.
	SubmitJustificatifs(ctx context.Context, missionID int64, actor *entity.User) (*entity.Mission, error)

	// VerifyJustificatifs settles the mission. APPROVE computes the balance
	// and closes the mission; REJECT reopens the deposit.
	VerifyJustificatifs(ctx context.Context, missionID int64, actor *entity.User, decision, comment string) (*entity.Mission, error)

	// ReviewJustificatif approves or rejects a single document
	ReviewJustificatif(ctx context.Context, justificatifID int64, actor *entity.User, decision, comment string) (*entity.Justificatif, error)

	ListJustificatifs(ctx context.Context, missionID int64) ([]*entity.Justificatif, error)
}

type returnServiceImpl struct {
	missionRepo      port.MissionRepository
	justificatifRepo port.JustificatifRepository
	depenseRepo      port.DepenseRepository
	avanceRepo       port.AvanceRepository
	userRepo         port.UserRepository
	storage          port.FileStorage
	notifier         NotificationService
	txManager        port.TransactionManager
	clock            port.Clock
	logger           Logger
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	missionRepo port.MissionRepository,
	justificatifRepo port.JustificatifRepository,
	depenseRepo port.DepenseRepository,
	avanceRepo port.AvanceRepository,
	userRepo port.UserRepository,
	storage port.FileStorage,
	notifier NotificationService,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) ReturnService {
	return &returnServiceImpl{
		missionRepo:      missionRepo,
		justificatifRepo: justificatifRepo,
		depenseRepo:      depenseRepo,
		avanceRepo:       avanceRepo,
		userRepo:         userRepo,
		storage:          storage,
		notifier:         notifier,
		txManager:        txManager,
		clock:            clock,
		logger:           logger,
	}
}

func (s *returnServiceImpl) DeclareReturn(ctx context.Context, missionID int64, actor *entity.User) (*entity.Mission, error) {
	mission, err := s.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	if !policy.IsCreator(actor, mission) {
		return nil, fmt.Errorf("%w: only the creator can declare the return", ErrNotAuthorized)
	}

	machine := workflow.BuildMissionStateMachine(workflow.State(mission.Status))
	if err := machine.Fire(ctx, workflow.TriggerDeclareReturn); err != nil {
		return nil, fmt.Errorf("%w: cannot declare return in status %s", ErrInvalidState, mission.Status)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		deadline := now.Add(justificatifsDelay)

		mission.Status = machine.State().String()
		mission.ActualReturn = &now
		mission.ReturnDeclared = true
		mission.JustificatifsDeadline = &deadline
		mission.UpdatedAt = now
		if err := s.missionRepo.Update(txCtx, mission); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}

		return s.notifier.NotifyReturnDeclared(txCtx, mission, actor)
	})

	if err != nil {
		s.logger.Error("Failed to declare return", "error", err, "mission_id", missionID)
		return nil, err
	}

	s.logger.Info("Mission return declared", "mission_id", missionID, "reference", mission.Reference)
	return mission, nil
}

func (s *returnServiceImpl) AddJustificatif(ctx context.Context, missionID int64, actor *entity.User, input AddJustificatifInput) (*entity.Justificatif, error) {
	mission, err := s.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	if !policy.IsCreator(actor, mission) && !isParticipant(actor, mission) {
		return nil, fmt.Errorf("%w: only the creator or a participant can add justificatifs", ErrNotAuthorized)
	}
	if mission.Status != entity.MissionStatusReturned {
		return nil, fmt.Errorf("%w: justificatifs can only be added after the return is declared", ErrInvalidState)
	}
	if input.FileName == "" || len(input.Content) == 0 {
		return nil, fmt.Errorf("%w: a file is required", ErrInvalidInput)
	}

	fileKey := fmt.Sprintf("justificatifs/%d/%s-%s", mission.ID, uuid.New().String(), input.FileName)
	if _, err := s.storage.Save(ctx, fileKey, input.Content); err != nil {
		return nil, fmt.Errorf("store justificatif file: %w", err)
	}

	now := s.clock.Now()
	currency := input.Currency
	if currency == "" {
		currency = "FCFA"
	}
	justificatif := &entity.Justificatif{
		MissionID:     mission.ID,
		ContributorID: actor.ID,
		DocumentType:  input.DocumentType,
		Category:      input.Category,
		Description:   input.Description,
		FileName:      input.FileName,
		FileSize:      input.FileSize,
		FileHash:      input.FileHash,
		FileKey:       fileKey,
		Amount:        input.Amount,
		Currency:      currency,
		Status:        entity.JustificatifStatusPending,
		SubmittedAt:   &now,
		CreatedAt:     now,
	}

	if err := s.justificatifRepo.Create(ctx, justificatif); err != nil {
		// Best effort cleanup of the orphaned file
		if delErr := s.storage.Delete(ctx, fileKey); delErr != nil {
			s.logger.Error("Failed to delete orphaned justificatif file", "error", delErr, "key", fileKey)
		}
		return nil, fmt.Errorf("create justificatif: %w", err)
	}

	s.logger.Info("Justificatif added",
		"mission_id", missionID, "justificatif_id", justificatif.ID, "file", input.FileName)
	return justificatif, nil
}

func (s *returnServiceImpl) SubmitJustificatifs(ctx context.Context, missionID int64, actor *entity.User) (*entity.Mission, error) {
	mission, err := s.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	if !policy.IsCreator(actor, mission) {
		return nil, fmt.Errorf("%w: only the creator can submit the justificatifs", ErrNotAuthorized)
	}
	if !mission.ReturnDeclared {
		return nil, fmt.Errorf("%w: the return has not been declared", ErrInvalidState)
	}
	if mission.JustificatifsDeposited {
		return nil, fmt.Errorf("%w: justificatifs already submitted", ErrInvalidState)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		mission.JustificatifsDeposited = true
		mission.UpdatedAt = s.clock.Now()
		if err := s.missionRepo.Update(txCtx, mission); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}
		return s.notifier.NotifyJustificatifsSubmitted(txCtx, mission, actor)
	})

	if err != nil {
		s.logger.Error("Failed to submit justificatifs", "error", err, "mission_id", missionID)
		return nil, err
	}

	s.logger.Info("Justificatifs submitted", "mission_id", missionID, "reference", mission.Reference)
	return mission, nil
}

func (s *returnServiceImpl) VerifyJustificatifs(ctx context.Context, missionID int64, actor *entity.User, decision, comment string) (*entity.Mission, error) {
	if decision != SettlementDecisionApprove && decision != SettlementDecisionReject {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	if !policy.CanVerifyJustificatifs(actor) {
		return nil, fmt.Errorf("%w: role %s cannot verify justificatifs", ErrNotAuthorized, actor.Role)
	}

	mission, err := s.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if mission.Status != entity.MissionStatusReturned || !mission.JustificatifsDeposited {
		return nil, fmt.Errorf("%w: justificatifs are not awaiting verification", ErrInvalidState)
	}

	creator, err := s.userRepo.GetByID(ctx, mission.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("load creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: mission creator %d", ErrNotFound, mission.CreatorID)
	}

	if decision == SettlementDecisionReject {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			mission.JustificatifsDeposited = false
			mission.UpdatedAt = s.clock.Now()
			if err := s.missionRepo.Update(txCtx, mission); err != nil {
				return fmt.Errorf("update mission: %w", err)
			}
			return s.notifier.NotifyJustificatifsRejected(txCtx, mission, creator, comment)
		})
		if err != nil {
			s.logger.Error("Failed to reject justificatifs", "error", err, "mission_id", missionID)
			return nil, err
		}

		s.logger.Info("Justificatifs rejected", "mission_id", missionID)
		return mission, nil
	}

	machine := workflow.BuildMissionStateMachine(workflow.State(mission.Status))
	if err := machine.Fire(ctx, workflow.TriggerClose); err != nil {
		return nil, fmt.Errorf("%w: cannot close mission in status %s", ErrInvalidState, mission.Status)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()

		expenses, err := s.depenseRepo.SumByMission(txCtx, mission.ID)
		if err != nil {
			return fmt.Errorf("sum expenses: %w", err)
		}
		disbursed, err := s.avanceRepo.SumDisbursedByMission(txCtx, mission.ID)
		if err != nil {
			return fmt.Errorf("sum disbursed advances: %w", err)
		}

		mission.JustificatifsVerified = true
		mission.Balance = expenses - disbursed
		mission.Status = machine.State().String()
		mission.Closed = true
		mission.ClosedAt = &now
		mission.UpdatedAt = now
		if err := s.missionRepo.Update(txCtx, mission); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}

		// Documents still pending at settlement time are accepted with the
		// mission-level approval.
		justificatifs, err := s.justificatifRepo.GetByMissionID(txCtx, mission.ID)
		if err != nil {
			return err
		}
		for _, j := range justificatifs {
			if j.Status != entity.JustificatifStatusPending {
				continue
			}
			j.Status = entity.JustificatifStatusApproved
			j.Verified = true
			j.VerifierID = &actor.ID
			j.VerifiedAt = &now
			j.ValidatedAt = &now
			if err := s.justificatifRepo.Update(txCtx, j); err != nil {
				return fmt.Errorf("approve justificatif %d: %w", j.ID, err)
			}
		}

		return s.notifier.NotifySettlement(txCtx, mission, creator)
	})

	if err != nil {
		s.logger.Error("Failed to settle mission", "error", err, "mission_id", missionID)
		return nil, err
	}

	s.logger.Info("Mission settled and closed",
		"mission_id", missionID, "reference", mission.Reference, "balance", mission.Balance)
	return mission, nil
}

func (s *returnServiceImpl) ReviewJustificatif(ctx context.Context, justificatifID int64, actor *entity.User, decision, comment string) (*entity.Justificatif, error) {
	if decision != entity.JustificatifStatusApproved && decision != entity.JustificatifStatusRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
	if !policy.CanVerifyJustificatifs(actor) {
		return nil, fmt.Errorf("%w: role %s cannot review justificatifs", ErrNotAuthorized, actor.Role)
	}

	justificatif, err := s.justificatifRepo.GetByID(ctx, justificatifID)
	if err != nil {
		return nil, err
	}
	if justificatif == nil {
		return nil, fmt.Errorf("%w: justificatif %d", ErrNotFound, justificatifID)
	}
	if justificatif.Status != entity.JustificatifStatusPending {
		return nil, fmt.Errorf("%w: justificatif already reviewed", ErrInvalidState)
	}

	now := s.clock.Now()
	justificatif.Status = decision
	justificatif.ValidationComment = comment
	justificatif.VerifierID = &actor.ID
	justificatif.VerifiedAt = &now
	if decision == entity.JustificatifStatusApproved {
		justificatif.Verified = true
		justificatif.ValidatedAt = &now
	}

	if err := s.justificatifRepo.Update(ctx, justificatif); err != nil {
		s.logger.Error("Failed to review justificatif", "error", err, "justificatif_id", justificatifID)
		return nil, fmt.Errorf("update justificatif: %w", err)
	}

	s.logger.Info("Justificatif reviewed", "justificatif_id", justificatifID, "decision", decision)
	return justificatif, nil
}

func (s *returnServiceImpl) ListJustificatifs(ctx context.Context, missionID int64) ([]*entity.Justificatif, error) {
	return s.justificatifRepo.GetByMissionID(ctx, missionID)
}

func (s *returnServiceImpl) getMission(ctx context.Context, id int64) (*entity.Mission, error) {
	mission, err := s.missionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, fmt.Errorf("%w: mission %d", ErrNotFound, id)
	}
	return mission, nil
}

func isParticipant(actor *entity.User, m *entity.Mission) bool {
	for _, id := range m.Participants {
		if id == actor.ID {
			return true
		}
	}
	return false
}
