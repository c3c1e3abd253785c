package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

func newFinanceFixture() (*mockMissionRepo, *mockAvanceRepo, *mockTicketRepo, *mockNotificationRepo, FinanceService) {
	missionRepo := &mockMissionRepo{}
	depenseRepo := &mockDepenseRepo{}
	avanceRepo := &mockAvanceRepo{}
	ticketRepo := &mockTicketRepo{}
	userRepo := &mockUserRepo{}
	notificationRepo := &mockNotificationRepo{}

	notifier := newTestNotifier(notificationRepo, userRepo)
	svc := NewFinanceService(missionRepo, depenseRepo, avanceRepo, ticketRepo, userRepo,
		notifier, &mockTxManager{}, &mockClock{}, &mockLogger{})

	return missionRepo, avanceRepo, ticketRepo, notificationRepo, svc
}

func TestFinanceService_AddDepense(t *testing.T) {
	missionRepo, _, _, _, svc := newFinanceFixture()

	mission := &entity.Mission{ID: 10, Status: entity.MissionStatusInProgress, CreatorID: 1}
	missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
		return mission, nil
	}

	actor := &entity.User{ID: 1, Role: entity.RoleAgent, Active: true}
	depense, err := svc.AddDepense(context.Background(), 10, actor, AddDepenseInput{
		Nature:      entity.DepenseNatureTransport,
		Amount:      25000,
		ExpenseDate: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddDepense() error = %v", err)
	}
	if depense.Amount != 25000 || depense.Nature != entity.DepenseNatureTransport {
		t.Errorf("depense = %+v", depense)
	}

	// Not before departure
	mission.Status = entity.MissionStatusValidated
	if _, err := svc.AddDepense(context.Background(), 10, actor, AddDepenseInput{Amount: 1000}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expense before departure error = %v, want ErrInvalidState", err)
	}

	// Zero amount
	mission.Status = entity.MissionStatusInProgress
	if _, err := svc.AddDepense(context.Background(), 10, actor, AddDepenseInput{Amount: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount error = %v, want ErrInvalidInput", err)
	}
}

func TestFinanceService_CreateAvance_RequiresCompleteSignatures(t *testing.T) {
	missionRepo, _, _, _, svc := newFinanceFixture()

	mission := &entity.Mission{ID: 10, Status: entity.MissionStatusValidated, CreatorID: 1}
	missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
		return mission, nil
	}

	accountant := &entity.User{ID: 20, Role: entity.RoleComptable, Active: true}

	if _, err := svc.CreateAvance(context.Background(), 10, accountant, CreateAvanceInput{Amount: 100000}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("incomplete signatures error = %v, want ErrInvalidState", err)
	}

	mission.SignaturesComplete = true
	avance, err := svc.CreateAvance(context.Background(), 10, accountant, CreateAvanceInput{Amount: 100000})
	if err != nil {
		t.Fatalf("CreateAvance() error = %v", err)
	}
	if avance.Status != entity.AvanceStatusApproved {
		t.Errorf("status = %s, want APPROVED", avance.Status)
	}
	if avance.BeneficiaryID != 1 {
		t.Errorf("beneficiary = %d, want creator 1 by default", avance.BeneficiaryID)
	}

	// An agent cannot create advances
	agent := &entity.User{ID: 1, Role: entity.RoleAgent, Active: true}
	if _, err := svc.CreateAvance(context.Background(), 10, agent, CreateAvanceInput{Amount: 100000}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("agent create advance error = %v, want ErrNotAuthorized", err)
	}
}

func TestFinanceService_DisburseAvance(t *testing.T) {
	missionRepo, avanceRepo, _, notificationRepo, svc := newFinanceFixture()

	avance := &entity.Avance{ID: 5, MissionID: 10, Amount: 100000, Status: entity.AvanceStatusApproved}
	avanceRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Avance, error) {
		return avance, nil
	}
	mission := &entity.Mission{ID: 10, Status: entity.MissionStatusValidated, CreatorID: 1, SignaturesComplete: true}
	missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
		return mission, nil
	}

	accountant := &entity.User{ID: 20, Role: entity.RoleComptable, Active: true}
	disbursed, err := svc.DisburseAvance(context.Background(), 5, accountant)
	if err != nil {
		t.Fatalf("DisburseAvance() error = %v", err)
	}

	if disbursed.Status != entity.AvanceStatusDisbursed || disbursed.DisbursedAt == nil {
		t.Errorf("avance = %+v, want DISBURSED with timestamp", disbursed)
	}
	if !mission.AdvancePaid {
		t.Error("mission advance flag not set")
	}
	if len(notificationRepo.created) != 1 || notificationRepo.created[0].RecipientID != 1 {
		t.Errorf("expected creator notification, got %v", notificationRepo.created)
	}

	// Already disbursed
	if _, err := svc.DisburseAvance(context.Background(), 5, accountant); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double disbursement error = %v, want ErrInvalidState", err)
	}
}

func TestFinanceService_EmitTicket(t *testing.T) {
	missionRepo, _, ticketRepo, _, svc := newFinanceFixture()

	mission := &entity.Mission{ID: 10, Status: entity.MissionStatusValidated, CreatorID: 1, SignaturesComplete: true}
	missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
		return mission, nil
	}

	accountant := &entity.User{ID: 20, Role: entity.RoleComptable, Active: true}
	ticket, err := svc.EmitTicket(context.Background(), 10, accountant, 400000)
	if err != nil {
		t.Fatalf("EmitTicket() error = %v", err)
	}
	if ticket.Number == "" || ticket.Status != entity.TicketStatusIssued {
		t.Errorf("ticket = %+v", ticket)
	}

	// One ticket per mission
	ticketRepo.getByMissionIDFunc = func(ctx context.Context, missionID int64) (*entity.Ticket, error) {
		return ticket, nil
	}
	if _, err := svc.EmitTicket(context.Background(), 10, accountant, 400000); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second ticket error = %v, want ErrInvalidState", err)
	}
}
