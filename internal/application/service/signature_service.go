package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
)

// signatureDelay is the window each signatory gets before the reminder sweep
// picks the signature up.
const signatureDelay = 72 * time.Hour

// SignatureService builds the financial signature circuit of a validated
// mission and enforces its strict sequential order.
type SignatureService interface {
	// InitiateWorkflow creates the signature rows for a freshly validated
	// mission and notifies the first signatory. Must run inside the approval
	// transaction.
	InitiateWorkflow(ctx context.Context, mission *entity.Mission) ([]*entity.SignatureFinanciere, error)

	// ProcessSignature records a signature. When every created row is signed
	// the mission is marked signatures complete and accounting is notified.
	ProcessSignature(ctx context.Context, signatureID int64, actor *entity.User) (*entity.SignatureFinanciere, error)

	// RefuseSignature records a refusal with a mandatory comment. The
	// circuit halts on the refused row until it is re-signed or the mission
	// is handled out of band.
	RefuseSignature(ctx context.Context, signatureID int64, actor *entity.User, comment string) (*entity.SignatureFinanciere, error)

	ListByMission(ctx context.Context, missionID int64) ([]*entity.SignatureFinanciere, error)
}

type signatureServiceImpl struct {
	signatureRepo port.SignatureRepository
	missionRepo   port.MissionRepository
	userRepo      port.UserRepository
	notifier      NotificationService
	txManager     port.TransactionManager
	clock         port.Clock
	logger        Logger
}

// NewSignatureService creates a new SignatureService
func NewSignatureService(
	signatureRepo port.SignatureRepository,
	missionRepo port.MissionRepository,
	userRepo port.UserRepository,
	notifier NotificationService,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) SignatureService {
	return &signatureServiceImpl{
		signatureRepo: signatureRepo,
		missionRepo:   missionRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		txManager:     txManager,
		clock:         clock,
		logger:        logger,
	}
}

func (s *signatureServiceImpl) InitiateWorkflow(ctx context.Context, mission *entity.Mission) ([]*entity.SignatureFinanciere, error) {
	creator, err := s.userRepo.GetByID(ctx, mission.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("load creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: mission creator %d", ErrNotFound, mission.CreatorID)
	}

	now := s.clock.Now()

	type slot struct {
		signatoryID int64
		level       string
	}

	// The agent always signs first. The hierarchical and finance rows are
	// only created when the organization actually has someone to sign them.
	slots := []slot{{signatoryID: creator.ID, level: entity.SignatureLevelAgent}}

	if creator.ManagerID != nil {
		manager, err := s.userRepo.GetByID(ctx, *creator.ManagerID)
		if err != nil {
			return nil, fmt.Errorf("load manager: %w", err)
		}
		if manager != nil {
			slots = append(slots, slot{signatoryID: manager.ID, level: entity.SignatureLevelChefAgence})
		}
	}

	financeDirectors, err := s.userRepo.ListByRole(ctx, entity.RoleDirecteurFinances)
	if err != nil {
		return nil, fmt.Errorf("list finance directors: %w", err)
	}
	if len(financeDirectors) > 0 {
		slots = append(slots, slot{signatoryID: financeDirectors[0].ID, level: entity.SignatureLevelDirecteurFinance})
	}

	signatures := make([]*entity.SignatureFinanciere, 0, len(slots))
	for i, sl := range slots {
		deadline := now.Add(signatureDelay)
		sig := &entity.SignatureFinanciere{
			MissionID:   mission.ID,
			SignatoryID: sl.signatoryID,
			Level:       sl.level,
			Ordinal:     i + 1,
			Status:      entity.SignatureStatusPending,
			Deadline:    &deadline,
			CreatedAt:   now,
		}
		if err := s.signatureRepo.Create(ctx, sig); err != nil {
			if errors.Is(err, port.ErrDuplicate) {
				return nil, fmt.Errorf("%w: signature circuit already initiated", ErrInvalidState)
			}
			return nil, fmt.Errorf("create signature level %s: %w", sl.level, err)
		}
		signatures = append(signatures, sig)
	}

	if err := s.notifier.NotifySignatureRequired(ctx, mission, signatures[0], creator); err != nil {
		return nil, err
	}

	s.logger.Info("Signature circuit created",
		"mission_id", mission.ID, "reference", mission.Reference, "signatures", len(signatures))
	return signatures, nil
}

func (s *signatureServiceImpl) ProcessSignature(ctx context.Context, signatureID int64, actor *entity.User) (*entity.SignatureFinanciere, error) {
	// Guards and the status flip share one transaction; the flip is a
	// conditional write so two concurrent signatures of the same row cannot
	// both conclude they completed the circuit.
	var signature *entity.SignatureFinanciere
	var mission *entity.Mission
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		signature, mission, err = s.loadUnresolved(txCtx, signatureID, actor)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		applied, err := s.signatureRepo.Decide(txCtx, signature.ID, entity.SignatureStatusSigned, signature.Comment, now)
		if err != nil {
			return fmt.Errorf("decide signature: %w", err)
		}
		if !applied {
			return fmt.Errorf("%w: signature already decided", ErrInvalidState)
		}
		signature.Status = entity.SignatureStatusSigned
		signature.SignedAt = &now

		total, signed, err := s.signatureRepo.CountByMission(txCtx, mission.ID)
		if err != nil {
			return err
		}

		if signed < total {
			next, err := s.signatureRepo.GetNextPending(txCtx, mission.ID, signature.Ordinal)
			if err != nil {
				return err
			}
			if next != nil {
				signatory, err := s.userRepo.GetByID(txCtx, next.SignatoryID)
				if err != nil {
					return fmt.Errorf("load next signatory: %w", err)
				}
				if signatory != nil {
					return s.notifier.NotifySignatureRequired(txCtx, mission, next, signatory)
				}
			}
			return nil
		}

		// Every created row is signed: funds can be released.
		mission.SignaturesComplete = true
		mission.UpdatedAt = now
		if err := s.missionRepo.Update(txCtx, mission); err != nil {
			return fmt.Errorf("update mission: %w", err)
		}
		return s.notifier.NotifyPaymentAuthorized(txCtx, mission)
	})

	if err != nil {
		s.logger.Error("Failed to process signature", "error", err, "signature_id", signatureID)
		return nil, err
	}

	s.logger.Info("Signature recorded",
		"signature_id", signatureID, "mission_id", mission.ID, "level", signature.Level)
	return signature, nil
}

func (s *signatureServiceImpl) RefuseSignature(ctx context.Context, signatureID int64, actor *entity.User, comment string) (*entity.SignatureFinanciere, error) {
	if comment == "" {
		return nil, fmt.Errorf("%w: a refusal requires a comment", ErrInvalidInput)
	}

	var signature *entity.SignatureFinanciere
	var mission *entity.Mission
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		signature, mission, err = s.loadUnresolved(txCtx, signatureID, actor)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		applied, err := s.signatureRepo.Decide(txCtx, signature.ID, entity.SignatureStatusRefused, comment, now)
		if err != nil {
			return fmt.Errorf("decide signature: %w", err)
		}
		if !applied {
			return fmt.Errorf("%w: signature already decided", ErrInvalidState)
		}
		signature.Status = entity.SignatureStatusRefused
		signature.Comment = comment
		signature.SignedAt = &now
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to refuse signature", "error", err, "signature_id", signatureID)
		return nil, err
	}

	s.logger.Info("Signature refused",
		"signature_id", signatureID, "mission_id", mission.ID, "level", signature.Level)
	return signature, nil
}

// loadUnresolved fetches the signature and its mission, then checks every
// guard shared by signing and refusing, including the sequential order. A
// refused signature is still unresolved: it can be re-signed and it keeps
// blocking the rest of the circuit.
func (s *signatureServiceImpl) loadUnresolved(ctx context.Context, signatureID int64, actor *entity.User) (*entity.SignatureFinanciere, *entity.Mission, error) {
	signature, err := s.signatureRepo.GetByID(ctx, signatureID)
	if err != nil {
		return nil, nil, err
	}
	if signature == nil {
		return nil, nil, fmt.Errorf("%w: signature %d", ErrNotFound, signatureID)
	}

	if signature.Status == entity.SignatureStatusSigned {
		return nil, nil, fmt.Errorf("%w: signature already signed", ErrInvalidState)
	}
	if signature.SignatoryID != actor.ID {
		return nil, nil, fmt.Errorf("%w: you are not the designated signatory", ErrNotAuthorized)
	}

	mission, err := s.missionRepo.GetByID(ctx, signature.MissionID)
	if err != nil {
		return nil, nil, err
	}
	if mission == nil {
		return nil, nil, fmt.Errorf("%w: mission %d", ErrNotFound, signature.MissionID)
	}

	next, err := s.signatureRepo.GetNextPending(ctx, mission.ID, 0)
	if err != nil {
		return nil, nil, err
	}
	if next == nil || next.ID != signature.ID {
		return nil, nil, fmt.Errorf("%w: an earlier signature is still pending", ErrInvalidState)
	}

	return signature, mission, nil
}

func (s *signatureServiceImpl) ListByMission(ctx context.Context, missionID int64) ([]*entity.SignatureFinanciere, error) {
	return s.signatureRepo.GetByMissionID(ctx, missionID)
}
