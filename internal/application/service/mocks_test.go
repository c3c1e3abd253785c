package service

import (
	"context"
	"time"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

// Mock repositories. Each method delegates to its func field when set and
// falls back to a neutral default otherwise.

type mockMissionRepo struct {
	createFunc                   func(ctx context.Context, mission *entity.Mission) error
	getByIDFunc                  func(ctx context.Context, id int64) (*entity.Mission, error)
	getByReferenceFunc           func(ctx context.Context, reference string) (*entity.Mission, error)
	updateFunc                   func(ctx context.Context, mission *entity.Mission) error
	listFunc                     func(ctx context.Context, limit, offset int) ([]*entity.Mission, error)
	listByCreatorFunc            func(ctx context.Context, creatorID int64) ([]*entity.Mission, error)
	countByStatusFunc            func(ctx context.Context) (map[string]int, error)
	countCreatedOnFunc           func(ctx context.Context, day time.Time) (int, error)
	replaceParticipantsFunc      func(ctx context.Context, missionID int64, userIDs []int64) error
	listOverdueJustificatifsFunc func(ctx context.Context, now time.Time) ([]*entity.Mission, error)
	listToArchiveFunc            func(ctx context.Context, cutoff time.Time) ([]*entity.Mission, error)
	markArchivedFunc             func(ctx context.Context, id int64, at time.Time) (bool, error)
	markJustifRemindedFunc       func(ctx context.Context, id int64, at time.Time) (bool, error)
	touchJustifRemindFunc        func(ctx context.Context, id int64, at, cutoff time.Time) (bool, error)
}

func (m *mockMissionRepo) Create(ctx context.Context, mission *entity.Mission) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, mission)
	}
	mission.ID = 1
	return nil
}

func (m *mockMissionRepo) GetByID(ctx context.Context, id int64) (*entity.Mission, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Mission{ID: id, Status: entity.MissionStatusDraft, CreatorID: 1}, nil
}

func (m *mockMissionRepo) GetByReference(ctx context.Context, reference string) (*entity.Mission, error) {
	if m.getByReferenceFunc != nil {
		return m.getByReferenceFunc(ctx, reference)
	}
	return nil, nil
}

func (m *mockMissionRepo) Update(ctx context.Context, mission *entity.Mission) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, mission)
	}
	return nil
}

func (m *mockMissionRepo) List(ctx context.Context, limit, offset int) ([]*entity.Mission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return []*entity.Mission{}, nil
}

func (m *mockMissionRepo) ListByCreator(ctx context.Context, creatorID int64) ([]*entity.Mission, error) {
	if m.listByCreatorFunc != nil {
		return m.listByCreatorFunc(ctx, creatorID)
	}
	return []*entity.Mission{}, nil
}

func (m *mockMissionRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx)
	}
	return map[string]int{}, nil
}

func (m *mockMissionRepo) CountCreatedOn(ctx context.Context, day time.Time) (int, error) {
	if m.countCreatedOnFunc != nil {
		return m.countCreatedOnFunc(ctx, day)
	}
	return 0, nil
}

func (m *mockMissionRepo) ReplaceParticipants(ctx context.Context, missionID int64, userIDs []int64) error {
	if m.replaceParticipantsFunc != nil {
		return m.replaceParticipantsFunc(ctx, missionID, userIDs)
	}
	return nil
}

func (m *mockMissionRepo) ListOverdueJustificatifs(ctx context.Context, now time.Time) ([]*entity.Mission, error) {
	if m.listOverdueJustificatifsFunc != nil {
		return m.listOverdueJustificatifsFunc(ctx, now)
	}
	return []*entity.Mission{}, nil
}

func (m *mockMissionRepo) ListToArchive(ctx context.Context, cutoff time.Time) ([]*entity.Mission, error) {
	if m.listToArchiveFunc != nil {
		return m.listToArchiveFunc(ctx, cutoff)
	}
	return []*entity.Mission{}, nil
}

func (m *mockMissionRepo) MarkArchived(ctx context.Context, id int64, at time.Time) (bool, error) {
	if m.markArchivedFunc != nil {
		return m.markArchivedFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockMissionRepo) MarkJustificatifsReminded(ctx context.Context, id int64, at time.Time) (bool, error) {
	if m.markJustifRemindedFunc != nil {
		return m.markJustifRemindedFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockMissionRepo) TouchJustificatifsRemind(ctx context.Context, id int64, at, cutoff time.Time) (bool, error) {
	if m.touchJustifRemindFunc != nil {
		return m.touchJustifRemindFunc(ctx, id, at, cutoff)
	}
	return true, nil
}

type mockValidationRepo struct {
	createFunc         func(ctx context.Context, validation *entity.Validation) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.Validation, error)
	getByMissionIDFunc func(ctx context.Context, missionID int64) ([]*entity.Validation, error)
	updateFunc         func(ctx context.Context, validation *entity.Validation) error
	getNextPendingFunc func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error)
	decideFunc         func(ctx context.Context, id int64, status, comment string, decidedAt time.Time) (bool, error)
}

func (m *mockValidationRepo) Create(ctx context.Context, validation *entity.Validation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, validation)
	}
	validation.ID = 1
	return nil
}

func (m *mockValidationRepo) GetByID(ctx context.Context, id int64) (*entity.Validation, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockValidationRepo) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Validation, error) {
	if m.getByMissionIDFunc != nil {
		return m.getByMissionIDFunc(ctx, missionID)
	}
	return []*entity.Validation{}, nil
}

func (m *mockValidationRepo) Update(ctx context.Context, validation *entity.Validation) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, validation)
	}
	return nil
}

func (m *mockValidationRepo) GetNextPending(ctx context.Context, missionID int64, afterOrdinal int) (*entity.Validation, error) {
	if m.getNextPendingFunc != nil {
		return m.getNextPendingFunc(ctx, missionID, afterOrdinal)
	}
	return nil, nil
}

func (m *mockValidationRepo) Decide(ctx context.Context, id int64, status, comment string, decidedAt time.Time) (bool, error) {
	if m.decideFunc != nil {
		return m.decideFunc(ctx, id, status, comment, decidedAt)
	}
	return true, nil
}

type mockSignatureRepo struct {
	createFunc         func(ctx context.Context, signature *entity.SignatureFinanciere) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.SignatureFinanciere, error)
	getByMissionIDFunc func(ctx context.Context, missionID int64) ([]*entity.SignatureFinanciere, error)
	updateFunc         func(ctx context.Context, signature *entity.SignatureFinanciere) error
	getNextPendingFunc func(ctx context.Context, missionID int64, afterOrdinal int) (*entity.SignatureFinanciere, error)
	countByMissionFunc func(ctx context.Context, missionID int64) (int, int, error)
	listOverdueFunc    func(ctx context.Context, now time.Time) ([]*entity.SignatureFinanciere, error)
	markRemindedFunc   func(ctx context.Context, id int64, at time.Time) (bool, error)
	decideFunc         func(ctx context.Context, id int64, status, comment string, signedAt time.Time) (bool, error)
}

func (m *mockSignatureRepo) Create(ctx context.Context, signature *entity.SignatureFinanciere) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, signature)
	}
	signature.ID = 1
	return nil
}

func (m *mockSignatureRepo) GetByID(ctx context.Context, id int64) (*entity.SignatureFinanciere, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSignatureRepo) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.SignatureFinanciere, error) {
	if m.getByMissionIDFunc != nil {
		return m.getByMissionIDFunc(ctx, missionID)
	}
	return []*entity.SignatureFinanciere{}, nil
}

func (m *mockSignatureRepo) Update(ctx context.Context, signature *entity.SignatureFinanciere) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, signature)
	}
	return nil
}

func (m *mockSignatureRepo) GetNextPending(ctx context.Context, missionID int64, afterOrdinal int) (*entity.SignatureFinanciere, error) {
	if m.getNextPendingFunc != nil {
		return m.getNextPendingFunc(ctx, missionID, afterOrdinal)
	}
	return nil, nil
}

func (m *mockSignatureRepo) CountByMission(ctx context.Context, missionID int64) (int, int, error) {
	if m.countByMissionFunc != nil {
		return m.countByMissionFunc(ctx, missionID)
	}
	return 0, 0, nil
}

func (m *mockSignatureRepo) ListOverdue(ctx context.Context, now time.Time) ([]*entity.SignatureFinanciere, error) {
	if m.listOverdueFunc != nil {
		return m.listOverdueFunc(ctx, now)
	}
	return []*entity.SignatureFinanciere{}, nil
}

func (m *mockSignatureRepo) MarkReminded(ctx context.Context, id int64, at time.Time) (bool, error) {
	if m.markRemindedFunc != nil {
		return m.markRemindedFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockSignatureRepo) Decide(ctx context.Context, id int64, status, comment string, signedAt time.Time) (bool, error) {
	if m.decideFunc != nil {
		return m.decideFunc(ctx, id, status, comment, signedAt)
	}
	return true, nil
}

type mockJustificatifRepo struct {
	createFunc         func(ctx context.Context, justificatif *entity.Justificatif) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.Justificatif, error)
	getByMissionIDFunc func(ctx context.Context, missionID int64) ([]*entity.Justificatif, error)
	updateFunc         func(ctx context.Context, justificatif *entity.Justificatif) error
}

func (m *mockJustificatifRepo) Create(ctx context.Context, justificatif *entity.Justificatif) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, justificatif)
	}
	justificatif.ID = 1
	return nil
}

func (m *mockJustificatifRepo) GetByID(ctx context.Context, id int64) (*entity.Justificatif, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockJustificatifRepo) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Justificatif, error) {
	if m.getByMissionIDFunc != nil {
		return m.getByMissionIDFunc(ctx, missionID)
	}
	return []*entity.Justificatif{}, nil
}

func (m *mockJustificatifRepo) Update(ctx context.Context, justificatif *entity.Justificatif) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, justificatif)
	}
	return nil
}

type mockDepenseRepo struct {
	createFunc         func(ctx context.Context, depense *entity.Depense) error
	getByMissionIDFunc func(ctx context.Context, missionID int64) ([]*entity.Depense, error)
	sumByMissionFunc   func(ctx context.Context, missionID int64) (int64, error)
}

func (m *mockDepenseRepo) Create(ctx context.Context, depense *entity.Depense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, depense)
	}
	depense.ID = 1
	return nil
}

func (m *mockDepenseRepo) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Depense, error) {
	if m.getByMissionIDFunc != nil {
		return m.getByMissionIDFunc(ctx, missionID)
	}
	return []*entity.Depense{}, nil
}

func (m *mockDepenseRepo) SumByMission(ctx context.Context, missionID int64) (int64, error) {
	if m.sumByMissionFunc != nil {
		return m.sumByMissionFunc(ctx, missionID)
	}
	return 0, nil
}

type mockAvanceRepo struct {
	createFunc                func(ctx context.Context, avance *entity.Avance) error
	getByIDFunc               func(ctx context.Context, id int64) (*entity.Avance, error)
	getByMissionIDFunc        func(ctx context.Context, missionID int64) ([]*entity.Avance, error)
	updateFunc                func(ctx context.Context, avance *entity.Avance) error
	sumDisbursedByMissionFunc func(ctx context.Context, missionID int64) (int64, error)
}

func (m *mockAvanceRepo) Create(ctx context.Context, avance *entity.Avance) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, avance)
	}
	avance.ID = 1
	return nil
}

func (m *mockAvanceRepo) GetByID(ctx context.Context, id int64) (*entity.Avance, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAvanceRepo) GetByMissionID(ctx context.Context, missionID int64) ([]*entity.Avance, error) {
	if m.getByMissionIDFunc != nil {
		return m.getByMissionIDFunc(ctx, missionID)
	}
	return []*entity.Avance{}, nil
}

func (m *mockAvanceRepo) Update(ctx context.Context, avance *entity.Avance) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, avance)
	}
	return nil
}

func (m *mockAvanceRepo) SumDisbursedByMission(ctx context.Context, missionID int64) (int64, error) {
	if m.sumDisbursedByMissionFunc != nil {
		return m.sumDisbursedByMissionFunc(ctx, missionID)
	}
	return 0, nil
}

type mockTicketRepo struct {
	createFunc         func(ctx context.Context, ticket *entity.Ticket) error
	getByMissionIDFunc func(ctx context.Context, missionID int64) (*entity.Ticket, error)
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *entity.Ticket) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, ticket)
	}
	ticket.ID = 1
	return nil
}

func (m *mockTicketRepo) GetByMissionID(ctx context.Context, missionID int64) (*entity.Ticket, error) {
	if m.getByMissionIDFunc != nil {
		return m.getByMissionIDFunc(ctx, missionID)
	}
	return nil, nil
}

type mockNotificationRepo struct {
	createFunc          func(ctx context.Context, notification *entity.Notification) error
	listByRecipientFunc func(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error)
	countUnreadFunc     func(ctx context.Context, recipientID int64) (int, error)
	markReadFunc        func(ctx context.Context, id, recipientID int64, at time.Time) error

	created []*entity.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, notification)
	}
	notification.ID = int64(len(m.created) + 1)
	m.created = append(m.created, notification)
	return nil
}

func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	if m.listByRecipientFunc != nil {
		return m.listByRecipientFunc(ctx, recipientID, limit, offset)
	}
	return []*entity.Notification{}, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	if m.countUnreadFunc != nil {
		return m.countUnreadFunc(ctx, recipientID)
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, recipientID int64, at time.Time) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, recipientID, at)
	}
	return nil
}

type mockUserRepo struct {
	getByIDFunc            func(ctx context.Context, id int64) (*entity.User, error)
	getByIdentifiantFunc   func(ctx context.Context, identifiant string) (*entity.User, error)
	listByRoleFunc         func(ctx context.Context, role string) ([]*entity.User, error)
	listSubordinateIDsFunc func(ctx context.Context, managerID int64) ([]int64, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.User{ID: id, Role: entity.RoleAgent, Active: true}, nil
}

func (m *mockUserRepo) GetByIdentifiant(ctx context.Context, identifiant string) (*entity.User, error) {
	if m.getByIdentifiantFunc != nil {
		return m.getByIdentifiantFunc(ctx, identifiant)
	}
	return nil, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	if m.listByRoleFunc != nil {
		return m.listByRoleFunc(ctx, role)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) ListSubordinateIDs(ctx context.Context, managerID int64) ([]int64, error) {
	if m.listSubordinateIDsFunc != nil {
		return m.listSubordinateIDsFunc(ctx, managerID)
	}
	return []int64{}, nil
}

type mockEntiteRepo struct {
	getByIDFunc func(ctx context.Context, id int64) (*entity.Entite, error)
}

func (m *mockEntiteRepo) GetByID(ctx context.Context, id int64) (*entity.Entite, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time {
	if m.now.IsZero() {
		return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	}
	return m.now
}

type mockMailer struct {
	sendFunc func(ctx context.Context, to, subject, textBody, htmlBody string) error
	sent     []string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, to, subject, textBody, htmlBody)
	}
	m.sent = append(m.sent, to)
	return nil
}

type mockFileStorage struct {
	saveFunc   func(ctx context.Context, key string, content []byte) (string, error)
	deleteFunc func(ctx context.Context, key string) error
}

func (m *mockFileStorage) Save(ctx context.Context, key string, content []byte) (string, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, key, content)
	}
	return key, nil
}

func (m *mockFileStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// newTestNotifier wires a NotificationService over the given repos so service
// tests can assert on the persisted notification records.
func newTestNotifier(notificationRepo *mockNotificationRepo, userRepo *mockUserRepo) NotificationService {
	return NewNotificationService(notificationRepo, userRepo, &mockMailer{}, &mockClock{}, &mockLogger{})
}
