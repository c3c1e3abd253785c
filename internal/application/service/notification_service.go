package service

import (
	"context"
	"fmt"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
)

// NotificationService creates notification records and dispatches their
// email rendition. Record creation participates in the caller's transaction;
// email delivery is best effort and never fails the owning operation.
type NotificationService interface {
	NotifyValidationRequired(ctx context.Context, m *entity.Mission, v *entity.Validation, approver *entity.User) error
	NotifyMissionValidated(ctx context.Context, m *entity.Mission, creator *entity.User) error
	NotifyMissionRejected(ctx context.Context, m *entity.Mission, creator *entity.User, v *entity.Validation) error
	NotifySignatureRequired(ctx context.Context, m *entity.Mission, sig *entity.SignatureFinanciere, signatory *entity.User) error
	NotifyPaymentAuthorized(ctx context.Context, m *entity.Mission) error
	NotifyPaymentMade(ctx context.Context, m *entity.Mission, creator *entity.User, avance *entity.Avance) error
	NotifyReturnDeclared(ctx context.Context, m *entity.Mission, creator *entity.User) error
	NotifyJustificatifsSubmitted(ctx context.Context, m *entity.Mission, creator *entity.User) error
	NotifyJustificatifsRejected(ctx context.Context, m *entity.Mission, creator *entity.User, comment string) error
	NotifySettlement(ctx context.Context, m *entity.Mission, creator *entity.User) error
	NotifySignatureReminder(ctx context.Context, m *entity.Mission, sig *entity.SignatureFinanciere, signatory *entity.User) error
	NotifyJustificatifsReminder(ctx context.Context, m *entity.Mission, creator *entity.User) error
	NotifyJustificatifsEscalation(ctx context.Context, m *entity.Mission, creator, manager *entity.User, daysOverdue int) error

	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	userRepo         port.UserRepository
	mailer           port.Mailer
	clock            port.Clock
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	userRepo port.UserRepository,
	mailer port.Mailer,
	clock port.Clock,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		clock:            clock,
		logger:           logger,
	}
}

// notify persists the notification record and dispatches the email.
// The record write returns its error so the owning transaction aborts on
// storage failure; a transport failure is only logged.
func (s *notificationServiceImpl) notify(ctx context.Context, recipient *entity.User, title, body, category, link string) error {
	n := &entity.Notification{
		RecipientID: recipient.ID,
		Title:       title,
		Body:        body,
		Category:    category,
		Link:        link,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if recipient.Email != "" {
		html := fmt.Sprintf("<h2>%s</h2><p>%s</p>", title, body)
		if err := s.mailer.Send(ctx, recipient.Email, title, body, html); err != nil {
			s.logger.Error("Failed to send notification email",
				"error", err, "recipient_id", recipient.ID, "title", title)
		}
	}

	return nil
}

// notifyRole fans a notification out to every active holder of a role
func (s *notificationServiceImpl) notifyRole(ctx context.Context, role, title, body, category, link string) error {
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("list %s users: %w", role, err)
	}

	for _, u := range users {
		if err := s.notify(ctx, u, title, body, category, link); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationServiceImpl) NotifyValidationRequired(ctx context.Context, m *entity.Mission, v *entity.Validation, approver *entity.User) error {
	title := fmt.Sprintf("Validation requise - Mission %s", m.Reference)
	body := fmt.Sprintf("Une validation est requise pour la mission %s (budget estimé %d FCFA).", m.Title, m.BudgetEstimate)
	if v.Deadline != nil {
		body = fmt.Sprintf("Une validation est requise pour la mission %s (budget estimé %d FCFA). Date limite: %s.",
			m.Title, m.BudgetEstimate, v.Deadline.Format("02/01/2006 15:04"))
	}
	return s.notify(ctx, approver, title, body, entity.NotificationCategoryValidation, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifyMissionValidated(ctx context.Context, m *entity.Mission, creator *entity.User) error {
	title := fmt.Sprintf("Mission validée - %s", m.Reference)
	body := fmt.Sprintf("Votre mission %s a été validée et approuvée. Vous allez recevoir les instructions pour les signatures financières.", m.Title)
	return s.notify(ctx, creator, title, body, entity.NotificationCategoryValidation, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifyMissionRejected(ctx context.Context, m *entity.Mission, creator *entity.User, v *entity.Validation) error {
	title := fmt.Sprintf("Mission rejetée - %s", m.Reference)
	reason := v.Comment
	if reason == "" {
		reason = "Non spécifié"
	}
	body := fmt.Sprintf("Votre mission %s a été rejetée. Motif: %s", m.Title, reason)
	return s.notify(ctx, creator, title, body, entity.NotificationCategoryValidation, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifySignatureRequired(ctx context.Context, m *entity.Mission, sig *entity.SignatureFinanciere, signatory *entity.User) error {
	title := fmt.Sprintf("Signature requise - Mission %s", m.Reference)
	body := fmt.Sprintf("Votre signature est requise pour la mission %s (niveau %s).", m.Title, sig.Level)
	return s.notify(ctx, signatory, title, body, entity.NotificationCategorySignature, fmt.Sprintf("/missions/%d/sign", m.ID))
}

func (s *notificationServiceImpl) NotifyPaymentAuthorized(ctx context.Context, m *entity.Mission) error {
	title := fmt.Sprintf("Déblocage autorisé - Mission %s", m.Reference)
	body := fmt.Sprintf("Le déblocage des fonds est autorisé pour la mission %s (budget approuvé %d FCFA).", m.Title, m.BudgetEstimate)
	return s.notifyRole(ctx, entity.RoleComptable, title, body, entity.NotificationCategorySignature, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifyPaymentMade(ctx context.Context, m *entity.Mission, creator *entity.User, avance *entity.Avance) error {
	title := fmt.Sprintf("Avance versée - Mission %s", m.Reference)
	body := fmt.Sprintf("Une avance de %d FCFA a été versée pour votre mission %s (mode: %s).",
		avance.Amount, m.Title, avance.DisbursementMode)
	return s.notify(ctx, creator, title, body, entity.NotificationCategoryInfo, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifyReturnDeclared(ctx context.Context, m *entity.Mission, creator *entity.User) error {
	title := fmt.Sprintf("Retour de mission déclaré - %s", m.Reference)
	body := fmt.Sprintf("L'agent %s a déclaré son retour de mission %s. L'agent a 72h pour déposer ses justificatifs.",
		creator.FullName(), m.Title)
	return s.notifyRole(ctx, entity.RoleRH, title, body, entity.NotificationCategoryReturn, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifyJustificatifsSubmitted(ctx context.Context, m *entity.Mission, creator *entity.User) error {
	title := fmt.Sprintf("Justificatifs déposés - %s", m.Reference)
	body := fmt.Sprintf("L'agent %s a déposé ses justificatifs de mission %s. Veuillez procéder à la vérification.",
		creator.FullName(), m.Title)
	return s.notifyRole(ctx, entity.RoleRH, title, body, entity.NotificationCategoryReturn, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifyJustificatifsRejected(ctx context.Context, m *entity.Mission, creator *entity.User, comment string) error {
	title := fmt.Sprintf("Justificatifs rejetés - %s", m.Reference)
	body := fmt.Sprintf("Vos justificatifs pour la mission %s ont été rejetés. Motif: %s. Veuillez corriger et redéposer.",
		m.Title, comment)
	return s.notify(ctx, creator, title, body, entity.NotificationCategoryReturn, fmt.Sprintf("/missions/%d", m.ID))
}

// NotifySettlement picks the message from the balance sign: positive means
// the organization refunds the agent, negative the reverse, zero is balanced.
func (s *notificationServiceImpl) NotifySettlement(ctx context.Context, m *entity.Mission, creator *entity.User) error {
	var title, body string

	switch {
	case m.Balance > 0:
		title = fmt.Sprintf("Remboursement organisation - %s", m.Reference)
		body = fmt.Sprintf("L'organisation doit vous rembourser %d FCFA pour la mission %s.", m.Balance, m.Title)
	case m.Balance < 0:
		title = fmt.Sprintf("Remboursement agent - %s", m.Reference)
		body = fmt.Sprintf("Vous devez rembourser %d FCFA à l'organisation pour la mission %s.", -m.Balance, m.Title)
	default:
		title = fmt.Sprintf("Mission équilibrée - %s", m.Reference)
		body = fmt.Sprintf("La mission %s est équilibrée (dépenses = avances).", m.Title)
	}

	return s.notify(ctx, creator, title, body, entity.NotificationCategorySettlement, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifySignatureReminder(ctx context.Context, m *entity.Mission, sig *entity.SignatureFinanciere, signatory *entity.User) error {
	title := fmt.Sprintf("RAPPEL: Signature requise - Mission %s", m.Reference)
	deadline := ""
	if sig.Deadline != nil {
		deadline = sig.Deadline.Format("02/01/2006 15:04")
	}
	body := fmt.Sprintf("Vous avez une signature en attente pour la mission %s (niveau %s). Cette signature était attendue avant le %s.",
		m.Title, sig.Level, deadline)
	return s.notify(ctx, signatory, title, body, entity.NotificationCategoryReminder, fmt.Sprintf("/missions/%d/sign", m.ID))
}

func (s *notificationServiceImpl) NotifyJustificatifsReminder(ctx context.Context, m *entity.Mission, creator *entity.User) error {
	title := fmt.Sprintf("RAPPEL: Dépôt des justificatifs - Mission %s", m.Reference)
	deadline := ""
	if m.JustificatifsDeadline != nil {
		deadline = m.JustificatifsDeadline.Format("02/01/2006 15:04")
	}
	body := fmt.Sprintf("La date limite pour déposer vos justificatifs de mission %s est dépassée (limite: %s). Veuillez les déposer dans les plus brefs délais.",
		m.Title, deadline)
	return s.notify(ctx, creator, title, body, entity.NotificationCategoryReminder, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) NotifyJustificatifsEscalation(ctx context.Context, m *entity.Mission, creator, manager *entity.User, daysOverdue int) error {
	title := fmt.Sprintf("ESCALADE: Justificatifs en retard - Mission %s", m.Reference)
	body := fmt.Sprintf("L'agent %s n'a toujours pas déposé ses justificatifs pour la mission %s. Délai dépassé depuis %d jours.",
		creator.FullName(), m.Title, daysOverdue)
	return s.notify(ctx, manager, title, body, entity.NotificationCategoryEscalation, fmt.Sprintf("/missions/%d", m.ID))
}

func (s *notificationServiceImpl) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Notification, error) {
	notifications, err := s.notificationRepo.ListByRecipient(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list notifications", "error", err, "user_id", userID)
		return nil, err
	}
	return notifications, nil
}

func (s *notificationServiceImpl) CountUnread(ctx context.Context, userID int64) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, notificationID, userID int64) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID, s.clock.Now()); err != nil {
		s.logger.Error("Failed to mark notification read", "error", err, "notification_id", notificationID)
		return err
	}
	return nil
}
