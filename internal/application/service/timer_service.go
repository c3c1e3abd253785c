package service

import (
	"context"
	"time"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
)

const (
	// escalationThreshold is how long past the justificatif deadline the
	// sweep stops reminding the agent and starts escalating to the manager.
	escalationThreshold = 7 * 24 * time.Hour

	// archiveAge is how long a closed mission stays visible before archiving
	archiveAge = 60 * 24 * time.Hour
)

// SweepReport summarizes the actions of one timer pass
type SweepReport struct {
	SignatureReminders    int `json:"signature_reminders"`
	JustificatifReminders int `json:"justificatif_reminders"`
	Escalations           int `json:"escalations"`
	Archived              int `json:"archived"`
}

// TimerService runs the periodic deadline sweep: signature reminders,
// justificatif reminders and escalations, and archival of old missions.
// Every action is conditional on a persisted marker, so overlapping or
// repeated sweeps never duplicate a notification.
type TimerService interface {
	// Sweep performs one pass. With dryRun set it only counts what a real
	// pass would do, without writing or notifying.
	Sweep(ctx context.Context, dryRun bool) (*SweepReport, error)
}

type timerServiceImpl struct {
	missionRepo   port.MissionRepository
	signatureRepo port.SignatureRepository
	userRepo      port.UserRepository
	notifier      NotificationService
	txManager     port.TransactionManager
	clock         port.Clock
	logger        Logger
}

// NewTimerService creates a new TimerService
func NewTimerService(
	missionRepo port.MissionRepository,
	signatureRepo port.SignatureRepository,
	userRepo port.UserRepository,
	notifier NotificationService,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) TimerService {
	return &timerServiceImpl{
		missionRepo:   missionRepo,
		signatureRepo: signatureRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		txManager:     txManager,
		clock:         clock,
		logger:        logger,
	}
}

func (s *timerServiceImpl) Sweep(ctx context.Context, dryRun bool) (*SweepReport, error) {
	now := s.clock.Now()
	report := &SweepReport{}

	if err := s.sweepSignatures(ctx, now, dryRun, report); err != nil {
		return nil, err
	}
	if err := s.sweepJustificatifs(ctx, now, dryRun, report); err != nil {
		return nil, err
	}
	if err := s.sweepArchive(ctx, now, dryRun, report); err != nil {
		return nil, err
	}

	s.logger.Info("Timer sweep finished",
		"dry_run", dryRun,
		"signature_reminders", report.SignatureReminders,
		"justificatif_reminders", report.JustificatifReminders,
		"escalations", report.Escalations,
		"archived", report.Archived)
	return report, nil
}

// sweepSignatures reminds each overdue pending signatory once
func (s *timerServiceImpl) sweepSignatures(ctx context.Context, now time.Time, dryRun bool, report *SweepReport) error {
	overdue, err := s.signatureRepo.ListOverdue(ctx, now)
	if err != nil {
		return err
	}

	for _, sig := range overdue {
		if dryRun {
			report.SignatureReminders++
			continue
		}

		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			// The conditional write arbitrates between concurrent sweeps.
			applied, err := s.signatureRepo.MarkReminded(txCtx, sig.ID, now)
			if err != nil || !applied {
				return err
			}

			mission, err := s.missionRepo.GetByID(txCtx, sig.MissionID)
			if err != nil || mission == nil {
				return err
			}
			signatory, err := s.userRepo.GetByID(txCtx, sig.SignatoryID)
			if err != nil || signatory == nil {
				return err
			}

			if err := s.notifier.NotifySignatureReminder(txCtx, mission, sig, signatory); err != nil {
				return err
			}
			report.SignatureReminders++
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to remind overdue signature", "error", err, "signature_id", sig.ID)
			return err
		}
	}

	return nil
}

// sweepJustificatifs reminds the agent on the first overdue pass, then
// escalates to the manager once the delay stretches past a week, and
// re-escalates weekly after that.
func (s *timerServiceImpl) sweepJustificatifs(ctx context.Context, now time.Time, dryRun bool, report *SweepReport) error {
	overdue, err := s.missionRepo.ListOverdueJustificatifs(ctx, now)
	if err != nil {
		return err
	}

	for _, mission := range overdue {
		if mission.JustificatifsDeadline == nil {
			continue
		}
		pastDeadline := now.Sub(*mission.JustificatifsDeadline)

		switch {
		case pastDeadline >= escalationThreshold:
			if mission.LastJustificatifsRemind != nil && now.Sub(*mission.LastJustificatifsRemind) < escalationThreshold {
				continue
			}
			if dryRun {
				report.Escalations++
				continue
			}
			if err := s.escalate(ctx, mission, now, report); err != nil {
				return err
			}

		case !mission.JustificatifsReminded:
			if dryRun {
				report.JustificatifReminders++
				continue
			}
			if err := s.remindJustificatifs(ctx, mission, now, report); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *timerServiceImpl) remindJustificatifs(ctx context.Context, mission *entity.Mission, now time.Time, report *SweepReport) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// The conditional write arbitrates between concurrent sweeps.
		applied, err := s.missionRepo.MarkJustificatifsReminded(txCtx, mission.ID, now)
		if err != nil || !applied {
			return err
		}

		creator, err := s.userRepo.GetByID(txCtx, mission.CreatorID)
		if err != nil || creator == nil {
			return err
		}
		if err := s.notifier.NotifyJustificatifsReminder(txCtx, mission, creator); err != nil {
			return err
		}
		report.JustificatifReminders++
		return nil
	})
}

func (s *timerServiceImpl) escalate(ctx context.Context, mission *entity.Mission, now time.Time, report *SweepReport) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// The escalation refreshes the reminder marker so the next sweep
		// waits a full week before escalating again; the refresh is
		// conditional on the marker being at least a week old, which
		// arbitrates between concurrent sweeps.
		applied, err := s.missionRepo.TouchJustificatifsRemind(txCtx, mission.ID, now, now.Add(-escalationThreshold))
		if err != nil || !applied {
			return err
		}

		creator, err := s.userRepo.GetByID(txCtx, mission.CreatorID)
		if err != nil || creator == nil {
			return err
		}

		daysOverdue := int(now.Sub(*mission.JustificatifsDeadline).Hours() / 24)

		if creator.ManagerID != nil {
			manager, err := s.userRepo.GetByID(txCtx, *creator.ManagerID)
			if err != nil {
				return err
			}
			if manager != nil {
				if err := s.notifier.NotifyJustificatifsEscalation(txCtx, mission, creator, manager, daysOverdue); err != nil {
					return err
				}
				report.Escalations++
				return nil
			}
		}

		// No manager to escalate to: fall back to another agent reminder
		s.logger.Info("No manager for escalation, reminding creator instead",
			"mission_id", mission.ID, "creator_id", creator.ID)
		if err := s.notifier.NotifyJustificatifsReminder(txCtx, mission, creator); err != nil {
			return err
		}
		report.Escalations++
		return nil
	})
}

// sweepArchive archives missions closed for longer than the retention window
func (s *timerServiceImpl) sweepArchive(ctx context.Context, now time.Time, dryRun bool, report *SweepReport) error {
	cutoff := now.Add(-archiveAge)
	candidates, err := s.missionRepo.ListToArchive(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, mission := range candidates {
		if dryRun {
			report.Archived++
			continue
		}

		applied, err := s.missionRepo.MarkArchived(ctx, mission.ID, now)
		if err != nil {
			s.logger.Error("Failed to archive mission", "error", err, "mission_id", mission.ID)
			return err
		}
		if applied {
			report.Archived++
		}
	}

	return nil
}
