package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
)

func int64Ptr(v int64) *int64 { return &v }

func newValidationFixture() (*mockValidationRepo, *mockMissionRepo, *mockUserRepo, *mockEntiteRepo, *mockSignatureRepo, *mockNotificationRepo, ValidationService) {
	validationRepo := &mockValidationRepo{}
	missionRepo := &mockMissionRepo{}
	userRepo := &mockUserRepo{}
	entiteRepo := &mockEntiteRepo{}
	signatureRepo := &mockSignatureRepo{}
	notificationRepo := &mockNotificationRepo{}

	notifier := newTestNotifier(notificationRepo, userRepo)
	signatureSvc := NewSignatureService(signatureRepo, missionRepo, userRepo, notifier, &mockTxManager{}, &mockClock{}, &mockLogger{})
	svc := NewValidationService(validationRepo, missionRepo, userRepo, entiteRepo, signatureSvc, notifier, nil, &mockTxManager{}, &mockClock{}, &mockLogger{})

	return validationRepo, missionRepo, userRepo, entiteRepo, signatureRepo, notificationRepo, svc
}

func TestValidationService_InitiateWorkflow_ChainSize(t *testing.T) {
	tests := []struct {
		name       string
		budget     int64
		days       int
		wantLevels []string
	}{
		{
			name:       "small short mission needs only the superior",
			budget:     100000,
			days:       2,
			wantLevels: []string{entity.ValidationLevelNPlus1},
		},
		{
			name:       "budget over 300000 adds the unit head",
			budget:     500000,
			days:       2,
			wantLevels: []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2},
		},
		{
			name:       "duration over 3 days adds the unit head",
			budget:     100000,
			days:       5,
			wantLevels: []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2},
		},
		{
			name:       "budget over 1000000 adds general management",
			budget:     2000000,
			days:       2,
			wantLevels: []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2, entity.ValidationLevelDG},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validationRepo, _, userRepo, entiteRepo, _, _, svc := newValidationFixture()

			var created []*entity.Validation
			validationRepo.createFunc = func(ctx context.Context, v *entity.Validation) error {
				v.ID = int64(len(created) + 1)
				created = append(created, v)
				return nil
			}
			userRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.User, error) {
				if id == 1 {
					return &entity.User{ID: 1, Role: entity.RoleAgent, ManagerID: int64Ptr(2), Active: true}, nil
				}
				return &entity.User{ID: id, Role: entity.RoleChefAgence, Active: true}, nil
			}
			entiteRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Entite, error) {
				return &entity.Entite{ID: id, Name: "Agence Centre", ResponsableID: int64Ptr(3)}, nil
			}
			userRepo.listByRoleFunc = func(ctx context.Context, role string) ([]*entity.User, error) {
				return []*entity.User{{ID: 4, Role: entity.RoleDG, Active: true}}, nil
			}

			start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
			mission := &entity.Mission{
				ID:             10,
				CreatorID:      1,
				EntityID:       int64Ptr(7),
				BudgetEstimate: tt.budget,
				StartDate:      start,
				EndDate:        start.AddDate(0, 0, tt.days-1),
			}

			validations, err := svc.InitiateWorkflow(context.Background(), mission)
			if err != nil {
				t.Fatalf("InitiateWorkflow() error = %v", err)
			}

			if len(validations) != len(tt.wantLevels) {
				t.Fatalf("InitiateWorkflow() created %d levels, want %d", len(validations), len(tt.wantLevels))
			}
			for i, want := range tt.wantLevels {
				if validations[i].Level != want {
					t.Errorf("level %d = %s, want %s", i, validations[i].Level, want)
				}
				if validations[i].Ordinal != i+1 {
					t.Errorf("level %s ordinal = %d, want %d", want, validations[i].Ordinal, i+1)
				}
				if validations[i].Status != entity.ValidationStatusPending {
					t.Errorf("level %s status = %s, want PENDING", want, validations[i].Status)
				}
			}
		})
	}
}

func TestValidationService_InitiateWorkflow_FallbackToCreator(t *testing.T) {
	validationRepo, _, userRepo, _, _, _, svc := newValidationFixture()

	var created []*entity.Validation
	validationRepo.createFunc = func(ctx context.Context, v *entity.Validation) error {
		created = append(created, v)
		return nil
	}
	// Creator without a manager
	userRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.User, error) {
		return &entity.User{ID: id, Role: entity.RoleAgent, Active: true}, nil
	}

	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	mission := &entity.Mission{ID: 10, CreatorID: 1, BudgetEstimate: 100000, StartDate: start, EndDate: start}

	validations, err := svc.InitiateWorkflow(context.Background(), mission)
	if err != nil {
		t.Fatalf("InitiateWorkflow() error = %v", err)
	}
	if len(validations) != 1 {
		t.Fatalf("expected 1 validation, got %d", len(validations))
	}
	if validations[0].ApproverID != 1 {
		t.Errorf("approver = %d, want fallback to creator 1", validations[0].ApproverID)
	}
}

func TestValidationService_InitiateWorkflow_Deadlines(t *testing.T) {
	validationRepo, _, userRepo, entiteRepo, _, _, svc := newValidationFixture()

	var created []*entity.Validation
	validationRepo.createFunc = func(ctx context.Context, v *entity.Validation) error {
		created = append(created, v)
		return nil
	}
	userRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.User, error) {
		if id == 1 {
			return &entity.User{ID: 1, Role: entity.RoleAgent, ManagerID: int64Ptr(2), Active: true}, nil
		}
		return &entity.User{ID: id, Role: entity.RoleChefAgence, Active: true}, nil
	}
	entiteRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Entite, error) {
		return &entity.Entite{ID: id, ResponsableID: int64Ptr(3)}, nil
	}
	userRepo.listByRoleFunc = func(ctx context.Context, role string) ([]*entity.User, error) {
		return []*entity.User{{ID: 4, Role: entity.RoleDG, Active: true}}, nil
	}

	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	mission := &entity.Mission{
		ID: 10, CreatorID: 1, EntityID: int64Ptr(7),
		BudgetEstimate: 2000000, StartDate: start, EndDate: start,
	}

	if _, err := svc.InitiateWorkflow(context.Background(), mission); err != nil {
		t.Fatalf("InitiateWorkflow() error = %v", err)
	}

	now := (&mockClock{}).Now()
	wantDelays := []time.Duration{24 * time.Hour, 48 * time.Hour, 72 * time.Hour}
	for i, v := range created {
		if v.Deadline == nil {
			t.Fatalf("validation %d has no deadline", i)
		}
		if got := v.Deadline.Sub(now); got != wantDelays[i] {
			t.Errorf("validation %d deadline delay = %v, want %v", i, got, wantDelays[i])
		}
	}
}

func TestValidationService_ProcessDecision_Guards(t *testing.T) {
	actor := &entity.User{ID: 2, Role: entity.RoleChefAgence, Active: true}

	pending := func() *entity.Validation {
		return &entity.Validation{
			ID: 5, MissionID: 10, ApproverID: 2, Ordinal: 1,
			Status: entity.ValidationStatusPending, Active: true,
		}
	}

	tests := []struct {
		name       string
		decision   string
		validation *entity.Validation
		nextFunc   func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error)
		mission    *entity.Mission
		actor      *entity.User
		wantErr    error
	}{
		{
			name:     "unknown decision value",
			decision: "MAYBE",
			wantErr:  ErrInvalidDecision,
		},
		{
			name:       "validation not found",
			decision:   entity.ValidationStatusApproved,
			validation: nil,
			wantErr:    ErrNotFound,
		},
		{
			name:     "already decided",
			decision: entity.ValidationStatusApproved,
			validation: &entity.Validation{
				ID: 5, MissionID: 10, ApproverID: 2, Ordinal: 1,
				Status: entity.ValidationStatusApproved, Active: true,
			},
			wantErr: ErrInvalidState,
		},
		{
			name:       "wrong approver",
			decision:   entity.ValidationStatusApproved,
			validation: pending(),
			actor:      &entity.User{ID: 99, Role: entity.RoleChefAgence},
			wantErr:    ErrNotAuthorized,
		},
		{
			name:       "mission not pending validation",
			decision:   entity.ValidationStatusApproved,
			validation: pending(),
			mission:    &entity.Mission{ID: 10, Status: entity.MissionStatusDraft, CreatorID: 1},
			wantErr:    ErrInvalidState,
		},
		{
			name:       "lower ordinal still pending",
			decision:   entity.ValidationStatusApproved,
			validation: &entity.Validation{ID: 6, MissionID: 10, ApproverID: 2, Ordinal: 2, Status: entity.ValidationStatusPending, Active: true},
			nextFunc: func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
				return &entity.Validation{ID: 5, MissionID: 10, Ordinal: 1, Status: entity.ValidationStatusPending, Active: true}, nil
			},
			wantErr: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validationRepo, missionRepo, _, _, _, _, svc := newValidationFixture()

			validationRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Validation, error) {
				return tt.validation, nil
			}
			if tt.nextFunc != nil {
				validationRepo.getNextPendingFunc = tt.nextFunc
			} else if tt.validation != nil {
				v := tt.validation
				validationRepo.getNextPendingFunc = func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
					return v, nil
				}
			}
			mission := tt.mission
			if mission == nil {
				mission = &entity.Mission{ID: 10, Status: entity.MissionStatusPendingValidation, CreatorID: 1}
			}
			missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
				return mission, nil
			}

			a := tt.actor
			if a == nil {
				a = actor
			}
			_, err := svc.ProcessDecision(context.Background(), 5, a, tt.decision, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ProcessDecision() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationService_ProcessDecision_AdvancesToNextApprover(t *testing.T) {
	validationRepo, missionRepo, userRepo, _, _, notificationRepo, svc := newValidationFixture()

	first := &entity.Validation{ID: 5, MissionID: 10, ApproverID: 2, Ordinal: 1, Status: entity.ValidationStatusPending, Active: true}
	second := &entity.Validation{ID: 6, MissionID: 10, ApproverID: 3, Ordinal: 2, Status: entity.ValidationStatusPending, Active: true}

	validationRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Validation, error) {
		return first, nil
	}
	validationRepo.getNextPendingFunc = func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
		if afterOrdinal < 1 {
			return first, nil
		}
		if afterOrdinal < 2 {
			return second, nil
		}
		return nil, nil
	}
	mission := &entity.Mission{ID: 10, Status: entity.MissionStatusPendingValidation, CreatorID: 1, Reference: "MIS-20250610-001"}
	missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
		return mission, nil
	}

	actor := &entity.User{ID: 2, Role: entity.RoleChefAgence, Active: true}
	decided, err := svc.ProcessDecision(context.Background(), 5, actor, entity.ValidationStatusApproved, "ok")
	if err != nil {
		t.Fatalf("ProcessDecision() error = %v", err)
	}

	if decided.Status != entity.ValidationStatusApproved {
		t.Errorf("status = %s, want APPROVED", decided.Status)
	}
	if decided.DecidedAt == nil {
		t.Error("DecidedAt not set")
	}
	if mission.Status != entity.MissionStatusPendingValidation {
		t.Errorf("mission status = %s, should stay PENDING_VALIDATION", mission.Status)
	}

	// The next approver got the hand-off notification
	if len(notificationRepo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notificationRepo.created))
	}
	if notificationRepo.created[0].RecipientID != 3 {
		t.Errorf("notification recipient = %d, want next approver 3", notificationRepo.created[0].RecipientID)
	}

	_ = userRepo
}

func TestValidationService_ProcessDecision_FinalApprovalValidatesMission(t *testing.T) {
	validationRepo, missionRepo, userRepo, _, signatureRepo, _, svc := newValidationFixture()

	last := &entity.Validation{ID: 5, MissionID: 10, ApproverID: 2, Ordinal: 1, Status: entity.ValidationStatusPending, Active: true}
	validationRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Validation, error) {
		return last, nil
	}
	validationRepo.getNextPendingFunc = func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
		if afterOrdinal < 1 {
			return last, nil
		}
		return nil, nil
	}

	mission := &entity.Mission{ID: 10, Status: entity.MissionStatusPendingValidation, CreatorID: 1}
	missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
		return mission, nil
	}
	userRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.User, error) {
		return &entity.User{ID: id, Role: entity.RoleAgent, Active: true}, nil
	}

	var signatures []*entity.SignatureFinanciere
	signatureRepo.createFunc = func(ctx context.Context, sig *entity.SignatureFinanciere) error {
		signatures = append(signatures, sig)
		return nil
	}

	actor := &entity.User{ID: 2, Role: entity.RoleChefAgence, Active: true}
	if _, err := svc.ProcessDecision(context.Background(), 5, actor, entity.ValidationStatusApproved, ""); err != nil {
		t.Fatalf("ProcessDecision() error = %v", err)
	}

	if mission.Status != entity.MissionStatusValidated {
		t.Errorf("mission status = %s, want VALIDATED", mission.Status)
	}
	if len(signatures) == 0 {
		t.Error("signature circuit was not initiated")
	}
}

func TestValidationService_ProcessDecision_RejectionIsTerminal(t *testing.T) {
	validationRepo, missionRepo, userRepo, _, _, _, svc := newValidationFixture()

	first := &entity.Validation{ID: 5, MissionID: 10, ApproverID: 2, Ordinal: 1, Status: entity.ValidationStatusPending, Active: true}
	second := &entity.Validation{ID: 6, MissionID: 10, ApproverID: 3, Ordinal: 2, Status: entity.ValidationStatusPending, Active: true}

	validationRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Validation, error) {
		return first, nil
	}
	validationRepo.getNextPendingFunc = func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
		return first, nil
	}
	validationRepo.getByMissionIDFunc = func(ctx context.Context, missionID int64) ([]*entity.Validation, error) {
		return []*entity.Validation{first, second}, nil
	}

	mission := &entity.Mission{ID: 10, Status: entity.MissionStatusPendingValidation, CreatorID: 1}
	missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
		return mission, nil
	}
	userRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.User, error) {
		return &entity.User{ID: id, Role: entity.RoleAgent, Active: true}, nil
	}

	actor := &entity.User{ID: 2, Role: entity.RoleChefAgence, Active: true}
	if _, err := svc.ProcessDecision(context.Background(), 5, actor, entity.ValidationStatusRejected, "budget trop élevé"); err != nil {
		t.Fatalf("ProcessDecision() error = %v", err)
	}

	if mission.Status != entity.MissionStatusRejected {
		t.Errorf("mission status = %s, want REJECTED", mission.Status)
	}
	if second.Active {
		t.Error("downstream pending validation should be deactivated")
	}
}

func TestValidationService_InitiateWorkflow_DuplicateChainRejected(t *testing.T) {
	validationRepo, _, userRepo, _, _, _, svc := newValidationFixture()

	validationRepo.createFunc = func(ctx context.Context, v *entity.Validation) error {
		return fmt.Errorf("%w: validation for mission %d approver %d level %s",
			port.ErrDuplicate, v.MissionID, v.ApproverID, v.Level)
	}
	userRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.User, error) {
		if id == 1 {
			return &entity.User{ID: 1, Role: entity.RoleAgent, ManagerID: int64Ptr(2), Active: true}, nil
		}
		return &entity.User{ID: id, Role: entity.RoleChefAgence, Active: true}, nil
	}

	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	mission := &entity.Mission{
		ID: 10, CreatorID: 1, BudgetEstimate: 100000,
		StartDate: start, EndDate: start.AddDate(0, 0, 1),
	}

	_, err := svc.InitiateWorkflow(context.Background(), mission)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("duplicate chain error = %v, want ErrInvalidState", err)
	}
}

func TestValidationService_ProcessDecision_ConcurrentDecisionRejected(t *testing.T) {
	newPending := func() *entity.Validation {
		return &entity.Validation{
			ID: 5, MissionID: 10, ApproverID: 2, Ordinal: 1,
			Status: entity.ValidationStatusPending, Active: true,
		}
	}
	actor := &entity.User{ID: 2, Role: entity.RoleChefAgence, Active: true}

	t.Run("guards observe a decision committed just before the transaction", func(t *testing.T) {
		validationRepo := &mockValidationRepo{}
		missionRepo := &mockMissionRepo{}
		userRepo := &mockUserRepo{}
		entiteRepo := &mockEntiteRepo{}
		signatureRepo := &mockSignatureRepo{}
		notificationRepo := &mockNotificationRepo{}

		validation := newPending()
		validationRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Validation, error) {
			return validation, nil
		}
		validationRepo.getNextPendingFunc = func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
			return validation, nil
		}
		missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
			return &entity.Mission{ID: 10, Status: entity.MissionStatusPendingValidation, CreatorID: 1}, nil
		}

		// A concurrent approval of the same row lands between the request
		// arriving and its transaction starting.
		txManager := &mockTxManager{
			withTransactionFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
				validation.Status = entity.ValidationStatusApproved
				return fn(ctx)
			},
		}

		notifier := newTestNotifier(notificationRepo, userRepo)
		signatureSvc := NewSignatureService(signatureRepo, missionRepo, userRepo, notifier, txManager, &mockClock{}, &mockLogger{})
		svc := NewValidationService(validationRepo, missionRepo, userRepo, entiteRepo, signatureSvc, notifier, nil, txManager, &mockClock{}, &mockLogger{})

		_, err := svc.ProcessDecision(context.Background(), 5, actor, entity.ValidationStatusApproved, "")
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("replayed decision error = %v, want ErrInvalidState", err)
		}
		if len(notificationRepo.created) != 0 {
			t.Errorf("no notification expected, got %d", len(notificationRepo.created))
		}
	})

	t.Run("conditional status flip refuses a row decided elsewhere", func(t *testing.T) {
		validationRepo, missionRepo, _, _, signatureRepo, notificationRepo, svc := newValidationFixture()

		validation := newPending()
		validationRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Validation, error) {
			return validation, nil
		}
		validationRepo.getNextPendingFunc = func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
			return validation, nil
		}
		validationRepo.decideFunc = func(ctx context.Context, id int64, status, comment string, decidedAt time.Time) (bool, error) {
			return false, nil
		}
		mission := &entity.Mission{ID: 10, Status: entity.MissionStatusPendingValidation, CreatorID: 1}
		missionRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Mission, error) {
			return mission, nil
		}

		var circuits int
		signatureRepo.createFunc = func(ctx context.Context, sig *entity.SignatureFinanciere) error {
			circuits++
			return nil
		}

		_, err := svc.ProcessDecision(context.Background(), 5, actor, entity.ValidationStatusApproved, "")
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("lost race error = %v, want ErrInvalidState", err)
		}
		if mission.Status != entity.MissionStatusPendingValidation {
			t.Errorf("mission status = %s, should be untouched", mission.Status)
		}
		if circuits != 0 {
			t.Errorf("signature circuit initiated %d times, want 0", circuits)
		}
		if len(notificationRepo.created) != 0 {
			t.Errorf("no notification expected, got %d", len(notificationRepo.created))
		}
	})
}
