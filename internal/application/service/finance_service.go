package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"github.com/coopec/missions-backend/internal/domain/policy"
)

// AddDepenseInput carries one declared expense line
type AddDepenseInput struct {
	Nature      string
	Amount      int64
	ExpenseDate time.Time
	Description string
}

// CreateAvanceInput carries a cash advance request
type CreateAvanceInput struct {
	Amount           int64
	BeneficiaryID    int64
	DisbursementMode string
}

// FinanceService manages expenses, advances and authorization tickets
type FinanceService interface {
	// AddDepense records an expense declared by the agent during or after
	// the mission.
	AddDepense(ctx context.Context, missionID int64, actor *entity.User, input AddDepenseInput) (*entity.Depense, error)

	// CreateAvance registers an approved advance. Requires the signature
	// circuit to be complete.
	CreateAvance(ctx context.Context, missionID int64, actor *entity.User, input CreateAvanceInput) (*entity.Avance, error)

	// DisburseAvance marks the advance paid out and notifies the agent
	DisburseAvance(ctx context.Context, avanceID int64, actor *entity.User) (*entity.Avance, error)

	// EmitTicket issues the authorization ticket once funds are released
	EmitTicket(ctx context.Context, missionID int64, actor *entity.User, approvedAmount int64) (*entity.Ticket, error)

	ListDepenses(ctx context.Context, missionID int64) ([]*entity.Depense, error)
	ListAvances(ctx context.Context, missionID int64) ([]*entity.Avance, error)
}

type financeServiceImpl struct {
	missionRepo port.MissionRepository
	depenseRepo port.DepenseRepository
	avanceRepo  port.AvanceRepository
	ticketRepo  port.TicketRepository
	userRepo    port.UserRepository
	notifier    NotificationService
	txManager   port.TransactionManager
	clock       port.Clock
	logger      Logger
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(
	missionRepo port.MissionRepository,
	depenseRepo port.DepenseRepository,
	avanceRepo port.AvanceRepository,
	ticketRepo port.TicketRepository,
	userRepo port.UserRepository,
	notifier NotificationService,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) FinanceService {
	return &financeServiceImpl{
		missionRepo: missionRepo,
		depenseRepo: depenseRepo,
		avanceRepo:  avanceRepo,
		ticketRepo:  ticketRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		txManager:   txManager,
		clock:       clock,
		logger:      logger,
	}
}

func (s *financeServiceImpl) AddDepense(ctx context.Context, missionID int64, actor *entity.User, input AddDepenseInput) (*entity.Depense, error) {
	mission, err := s.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	if !policy.IsCreator(actor, mission) {
		return nil, fmt.Errorf("%w: only the creator can declare expenses", ErrNotAuthorized)
	}
	if mission.Status != entity.MissionStatusInProgress && mission.Status != entity.MissionStatusReturned {
		return nil, fmt.Errorf("%w: expenses can only be declared during or after the mission", ErrInvalidState)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}

	nature := input.Nature
	if nature == "" {
		nature = entity.DepenseNatureDivers
	}
	depense := &entity.Depense{
		MissionID:   mission.ID,
		Nature:      nature,
		Amount:      input.Amount,
		ExpenseDate: input.ExpenseDate,
		Description: input.Description,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.depenseRepo.Create(ctx, depense); err != nil {
		s.logger.Error("Failed to add expense", "error", err, "mission_id", missionID)
		return nil, fmt.Errorf("create depense: %w", err)
	}

	s.logger.Info("Expense declared",
		"mission_id", missionID, "depense_id", depense.ID, "amount", depense.Amount)
	return depense, nil
}

func (s *financeServiceImpl) CreateAvance(ctx context.Context, missionID int64, actor *entity.User, input CreateAvanceInput) (*entity.Avance, error) {
	if !policy.CanDisburseAdvances(actor) {
		return nil, fmt.Errorf("%w: role %s cannot manage advances", ErrNotAuthorized, actor.Role)
	}

	mission, err := s.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if !mission.SignaturesComplete {
		return nil, fmt.Errorf("%w: the signature circuit is not complete", ErrInvalidState)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: advance amount must be positive", ErrInvalidInput)
	}

	beneficiaryID := input.BeneficiaryID
	if beneficiaryID == 0 {
		beneficiaryID = mission.CreatorID
	}
	mode := input.DisbursementMode
	if mode == "" {
		mode = entity.DisbursementModeCash
	}

	avance := &entity.Avance{
		MissionID:        mission.ID,
		Amount:           input.Amount,
		PayerID:          actor.ID,
		BeneficiaryID:    beneficiaryID,
		Status:           entity.AvanceStatusApproved,
		DisbursementMode: mode,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.avanceRepo.Create(ctx, avance); err != nil {
		s.logger.Error("Failed to create advance", "error", err, "mission_id", missionID)
		return nil, fmt.Errorf("create avance: %w", err)
	}

	s.logger.Info("Advance created",
		"mission_id", missionID, "avance_id", avance.ID, "amount", avance.Amount)
	return avance, nil
}

func (s *financeServiceImpl) DisburseAvance(ctx context.Context, avanceID int64, actor *entity.User) (*entity.Avance, error) {
	if !policy.CanDisburseAdvances(actor) {
		return nil, fmt.Errorf("%w: role %s cannot disburse advances", ErrNotAuthorized, actor.Role)
	}

	avance, err := s.avanceRepo.GetByID(ctx, avanceID)
	if err != nil {
		return nil, err
	}
	if avance == nil {
		return nil, fmt.Errorf("%w: avance %d", ErrNotFound, avanceID)
	}
	if avance.Status != entity.AvanceStatusApproved {
		return nil, fmt.Errorf("%w: advance is not approved for disbursement", ErrInvalidState)
	}

	mission, err := s.getMission(ctx, avance.MissionID)
	if err != nil {
		return nil, err
	}
	creator, err := s.userRepo.GetByID(ctx, mission.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("load creator: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		avance.Status = entity.AvanceStatusDisbursed
		avance.DisbursedAt = &now
		if err := s.avanceRepo.Update(txCtx, avance); err != nil {
			return fmt.Errorf("update avance: %w", err)
		}

		mission.AdvancePaid = true
		mission.UpdatedAt = now
		if err := s.missionRepo.Update(txCtx, mission); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}

		if creator != nil {
			return s.notifier.NotifyPaymentMade(txCtx, mission, creator, avance)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to disburse advance", "error", err, "avance_id", avanceID)
		return nil, err
	}

	s.logger.Info("Advance disbursed",
		"avance_id", avanceID, "mission_id", avance.MissionID, "amount", avance.Amount)
	return avance, nil
}

func (s *financeServiceImpl) EmitTicket(ctx context.Context, missionID int64, actor *entity.User, approvedAmount int64) (*entity.Ticket, error) {
	if !policy.CanDisburseAdvances(actor) {
		return nil, fmt.Errorf("%w: role %s cannot emit tickets", ErrNotAuthorized, actor.Role)
	}

	mission, err := s.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if !mission.SignaturesComplete {
		return nil, fmt.Errorf("%w: the signature circuit is not complete", ErrInvalidState)
	}

	existing, err := s.ticketRepo.GetByMissionID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: a ticket was already emitted for this mission", ErrInvalidState)
	}

	now := s.clock.Now()
	ticket := &entity.Ticket{
		MissionID:      mission.ID,
		Number:         fmt.Sprintf("TKT-%s", strings.ToUpper(uuid.New().String()[:8])),
		ApprovedAmount: approvedAmount,
		IssuerID:       actor.ID,
		Status:         entity.TicketStatusIssued,
		IssuedAt:       now,
		CreatedAt:      now,
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		s.logger.Error("Failed to emit ticket", "error", err, "mission_id", missionID)
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.logger.Info("Ticket emitted", "mission_id", missionID, "number", ticket.Number)
	return ticket, nil
}

func (s *financeServiceImpl) ListDepenses(ctx context.Context, missionID int64) ([]*entity.Depense, error) {
	return s.depenseRepo.GetByMissionID(ctx, missionID)
}

func (s *financeServiceImpl) ListAvances(ctx context.Context, missionID int64) ([]*entity.Avance, error) {
	return s.avanceRepo.GetByMissionID(ctx, missionID)
}

func (s *financeServiceImpl) getMission(ctx context.Context, id int64) (*entity.Mission, error) {
	mission, err := s.missionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, fmt.Errorf("%w: mission %d", ErrNotFound, id)
	}
	return mission, nil
}
