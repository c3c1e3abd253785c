package http

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coopec/missions-backend/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	authService       service.AuthService
	missionService    service.MissionService
	validationService service.ValidationService
	signatureService  service.SignatureService
	returnService     service.ReturnService
	financeService    service.FinanceService
	notifier          service.NotificationService
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	authService service.AuthService,
	missionService service.MissionService,
	validationService service.ValidationService,
	signatureService service.SignatureService,
	returnService service.ReturnService,
	financeService service.FinanceService,
	notifier service.NotificationService,
	logger Logger,
) *Handlers {
	return &Handlers{
		authService:       authService,
		missionService:    missionService,
		validationService: validationService,
		signatureService:  signatureService,
		returnService:     returnService,
		financeService:    financeService,
		notifier:          notifier,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respondError maps guard failures to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, service.ErrNotAuthorized):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidDecision):
		status = http.StatusBadRequest
		message = err.Error()
	default:
		h.logger.Error("Unhandled service error", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, Response{Success: false, Error: message})
}

func (h *Handlers) respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	h.respondOK(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// LoginRequest carries the credentials for POST /api/auth/login
type LoginRequest struct {
	Identifiant string `json:"identifiant" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "identifiant and password are required")
		return
	}

	result, err := h.authService.Authenticate(c.Request.Context(), req.Identifiant, req.Password)
	if err != nil {
		// Login failures answer 401, not the usual 403 mapping
		if errors.Is(err, service.ErrNotAuthorized) {
			c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid credentials"})
			return
		}
		h.respondError(c, err)
		return
	}

	h.respondOK(c, result)
}

// RefreshRequest carries the refresh token for POST /api/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh handles POST /api/auth/refresh
func (h *Handlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "refresh_token is required")
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid refresh token"})
			return
		}
		h.respondError(c, err)
		return
	}

	h.respondOK(c, result)
}

// CreateMissionRequest carries the fields of POST /api/missions
type CreateMissionRequest struct {
	Title            string  `json:"title" binding:"required"`
	Description      string  `json:"description"`
	Type             string  `json:"type"`
	StartDate        string  `json:"start_date" binding:"required"`
	EndDate          string  `json:"end_date" binding:"required"`
	Location         string  `json:"location" binding:"required"`
	BudgetEstimate   int64   `json:"budget_estimate"`
	AdvanceRequested int64   `json:"advance_requested"`
	EntityID         *int64  `json:"entity_id"`
	Vehicle          string  `json:"vehicle"`
	DriverID         *int64  `json:"driver_id"`
	Participants     []int64 `json:"participants"`
}

// CreateMission handles POST /api/missions
func (h *Handlers) CreateMission(c *gin.Context) {
	var req CreateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "title, location, start_date and end_date are required")
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		h.badRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		h.badRequest(c, "end_date must be YYYY-MM-DD")
		return
	}

	mission, err := h.missionService.CreateMission(c.Request.Context(), currentUser(c), service.CreateMissionInput{
		Title:            req.Title,
		Description:      req.Description,
		Type:             req.Type,
		StartDate:        startDate,
		EndDate:          endDate,
		Location:         req.Location,
		BudgetEstimate:   req.BudgetEstimate,
		AdvanceRequested: req.AdvanceRequested,
		EntityID:         req.EntityID,
		Vehicle:          req.Vehicle,
		DriverID:         req.DriverID,
		Participants:     req.Participants,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: mission})
}

// ListMissions handles GET /api/missions
func (h *Handlers) ListMissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	missions, err := h.missionService.ListMissions(c.Request.Context(), currentUser(c), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, missions)
}

// GetMission handles GET /api/missions/:id
func (h *Handlers) GetMission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	mission, err := h.missionService.GetMission(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, mission)
}

// SubmitMission handles POST /api/missions/:id/submit
func (h *Handlers) SubmitMission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	mission, err := h.missionService.SubmitMission(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, mission)
}

// DeclareDeparture handles POST /api/missions/:id/depart
func (h *Handlers) DeclareDeparture(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	mission, err := h.missionService.DeclareDeparture(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, mission)
}

// DeclareReturn handles POST /api/missions/:id/return
func (h *Handlers) DeclareReturn(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	mission, err := h.returnService.DeclareReturn(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, mission)
}

// Statistics handles GET /api/stats
func (h *Handlers) Statistics(c *gin.Context) {
	stats, err := h.missionService.Statistics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, stats)
}

// DecisionRequest carries an approver decision
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

// ProcessValidation handles POST /api/validations/:id/decision
func (h *Handlers) ProcessValidation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid validation id")
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "decision is required")
		return
	}

	validation, err := h.validationService.ProcessDecision(c.Request.Context(), id, currentUser(c), req.Decision, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, validation)
}

// ListValidations handles GET /api/missions/:id/validations
func (h *Handlers) ListValidations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	validations, err := h.validationService.ListByMission(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, validations)
}

// ProcessSignature handles POST /api/signatures/:id/sign
func (h *Handlers) ProcessSignature(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid signature id")
		return
	}

	signature, err := h.signatureService.ProcessSignature(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, signature)
}

// RefuseRequest carries the mandatory refusal comment
type RefuseRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// RefuseSignature handles POST /api/signatures/:id/refuse
func (h *Handlers) RefuseSignature(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid signature id")
		return
	}

	var req RefuseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "comment is required")
		return
	}

	signature, err := h.signatureService.RefuseSignature(c.Request.Context(), id, currentUser(c), req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, signature)
}

// ListSignatures handles GET /api/missions/:id/signatures
func (h *Handlers) ListSignatures(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	signatures, err := h.signatureService.ListByMission(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, signatures)
}

// AddJustificatif handles POST /api/missions/:id/justificatifs.
// The document comes in as multipart form data.
func (h *Handlers) AddJustificatif(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.badRequest(c, "unreadable file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.badRequest(c, "unreadable file")
		return
	}

	amount, _ := strconv.ParseInt(c.PostForm("amount"), 10, 64)
	hash := sha256.Sum256(content)

	justificatif, err := h.returnService.AddJustificatif(c.Request.Context(), id, currentUser(c), service.AddJustificatifInput{
		DocumentType: c.PostForm("document_type"),
		Category:     c.PostForm("category"),
		Description:  c.PostForm("description"),
		FileName:     fileHeader.Filename,
		FileSize:     int64(len(content)),
		FileHash:     hex.EncodeToString(hash[:]),
		Content:      content,
		Amount:       amount,
		Currency:     c.PostForm("currency"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: justificatif})
}

// ListJustificatifs handles GET /api/missions/:id/justificatifs
func (h *Handlers) ListJustificatifs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	justificatifs, err := h.returnService.ListJustificatifs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, justificatifs)
}

// SubmitJustificatifs handles POST /api/missions/:id/justificatifs/submit
func (h *Handlers) SubmitJustificatifs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	mission, err := h.returnService.SubmitJustificatifs(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, mission)
}

// VerifyJustificatifs handles POST /api/missions/:id/justificatifs/verify
func (h *Handlers) VerifyJustificatifs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "decision is required")
		return
	}

	mission, err := h.returnService.VerifyJustificatifs(c.Request.Context(), id, currentUser(c), req.Decision, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, mission)
}

// ReviewJustificatif handles POST /api/justificatifs/:id/review
func (h *Handlers) ReviewJustificatif(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid justificatif id")
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "decision is required")
		return
	}

	justificatif, err := h.returnService.ReviewJustificatif(c.Request.Context(), id, currentUser(c), req.Decision, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, justificatif)
}

// AddDepenseRequest carries an expense declaration
type AddDepenseRequest struct {
	Nature      string `json:"nature"`
	Amount      int64  `json:"amount" binding:"required"`
	ExpenseDate string `json:"expense_date"`
	Description string `json:"description"`
}

// AddDepense handles POST /api/missions/:id/depenses
func (h *Handlers) AddDepense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	var req AddDepenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "amount is required")
		return
	}

	expenseDate := time.Now().UTC()
	if req.ExpenseDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			h.badRequest(c, "expense_date must be YYYY-MM-DD")
			return
		}
		expenseDate = parsed
	}

	depense, err := h.financeService.AddDepense(c.Request.Context(), id, currentUser(c), service.AddDepenseInput{
		Nature:      req.Nature,
		Amount:      req.Amount,
		ExpenseDate: expenseDate,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: depense})
}

// ListDepenses handles GET /api/missions/:id/depenses
func (h *Handlers) ListDepenses(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	depenses, err := h.financeService.ListDepenses(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, depenses)
}

// CreateAvanceRequest carries a cash advance registration
type CreateAvanceRequest struct {
	Amount           int64  `json:"amount" binding:"required"`
	BeneficiaryID    int64  `json:"beneficiary_id"`
	DisbursementMode string `json:"disbursement_mode"`
}

// CreateAvance handles POST /api/missions/:id/avances
func (h *Handlers) CreateAvance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	var req CreateAvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "amount is required")
		return
	}

	avance, err := h.financeService.CreateAvance(c.Request.Context(), id, currentUser(c), service.CreateAvanceInput{
		Amount:           req.Amount,
		BeneficiaryID:    req.BeneficiaryID,
		DisbursementMode: req.DisbursementMode,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: avance})
}

// ListAvances handles GET /api/missions/:id/avances
func (h *Handlers) ListAvances(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	avances, err := h.financeService.ListAvances(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, avances)
}

// DisburseAvance handles POST /api/avances/:id/disburse
func (h *Handlers) DisburseAvance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid avance id")
		return
	}

	avance, err := h.financeService.DisburseAvance(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, avance)
}

// EmitTicketRequest carries the approved amount for the ticket
type EmitTicketRequest struct {
	ApprovedAmount int64 `json:"approved_amount" binding:"required"`
}

// EmitTicket handles POST /api/missions/:id/ticket
func (h *Handlers) EmitTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid mission id")
		return
	}

	var req EmitTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "approved_amount is required")
		return
	}

	ticket, err := h.financeService.EmitTicket(c.Request.Context(), id, currentUser(c), req.ApprovedAmount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: ticket})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := h.notifier.ListForUser(c.Request.Context(), currentUser(c).ID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, notifications)
}

// CountUnreadNotifications handles GET /api/notifications/unread
func (h *Handlers) CountUnreadNotifications(c *gin.Context) {
	count, err := h.notifier.CountUnread(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, gin.H{"unread": count})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.badRequest(c, "invalid notification id")
		return
	}

	if err := h.notifier.MarkRead(c.Request.Context(), id, currentUser(c).ID); err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, gin.H{"read": true})
}
