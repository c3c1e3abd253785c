package entity

// Mission status constants, mirroring the workflow states
const (
	MissionStatusDraft             = "DRAFT"
	MissionStatusPendingValidation = "PENDING_VALIDATION"
	MissionStatusValidated         = "VALIDATED"
	MissionStatusInProgress        = "IN_PROGRESS"
	MissionStatusReturned          = "RETURNED"
	MissionStatusClosed            = "CLOSED"
	MissionStatusRejected          = "REJECTED"
)

// Mission type constants
const (
	MissionTypeFormation  = "FORMATION"
	MissionTypeReunion    = "REUNION"
	MissionTypeCommercial = "MISSION_COMMERCIALE"
	MissionTypeAudit      = "AUDIT"
	MissionTypeAutre      = "AUTRE"
)

// Validation level constants. N+1 is the creator's immediate superior,
// N+2 the unit head, DGA_DG the general management tier.
const (
	ValidationLevelNPlus1 = "N_PLUS_1"
	ValidationLevelNPlus2 = "N_PLUS_2"
	ValidationLevelDG     = "DGA_DG"
)

// Validation status constants
const (
	ValidationStatusPending  = "PENDING"
	ValidationStatusApproved = "APPROVED"
	ValidationStatusRejected = "REJECTED"
	ValidationStatusDeferred = "DEFERRED"
)

// Financial signature level constants
const (
	SignatureLevelAgent            = "AGENT"
	SignatureLevelChefAgence       = "CHEF_AGENCE"
	SignatureLevelDirecteurFinance = "DIRECTEUR_FINANCES"
	SignatureLevelComptable        = "COMPTABLE"
	SignatureLevelDG               = "DG"
)

// Financial signature status constants
const (
	SignatureStatusPending = "PENDING"
	SignatureStatusSigned  = "SIGNED"
	SignatureStatusRefused = "REFUSED"
)

// Justificatif status constants
const (
	JustificatifStatusPending    = "PENDING"
	JustificatifStatusApproved   = "APPROVED"
	JustificatifStatusRejected   = "REJECTED"
	JustificatifStatusReimbursed = "REIMBURSED"
)

// Justificatif document type constants
const (
	JustificatifTypeTransport    = "TRANSPORT"
	JustificatifTypeHebergement  = "HEBERGEMENT"
	JustificatifTypeRestauration = "RESTAURATION"
	JustificatifTypeAutre        = "AUTRE"
)

// Depense nature constants
const (
	DepenseNatureTransport    = "TRANSPORT"
	DepenseNatureHebergement  = "HEBERGEMENT"
	DepenseNatureRestauration = "RESTAURATION"
	DepenseNatureCarburant    = "CARBURANT"
	DepenseNaturePeage        = "PEAGE"
	DepenseNatureDivers       = "DIVERS"
)

// Avance status constants
const (
	AvanceStatusRequested  = "REQUESTED"
	AvanceStatusApproved   = "APPROVED"
	AvanceStatusDisbursed  = "DISBURSED"
	AvanceStatusCancelled  = "CANCELLED"
	AvanceStatusReimbursed = "REIMBURSED"
)

// Avance disbursement mode constants
const (
	DisbursementModeCash     = "CASH"
	DisbursementModeTransfer = "BANK_TRANSFER"
	DisbursementModeCheque   = "CHEQUE"
)

// Ticket status constants
const (
	TicketStatusIssued    = "ISSUED"
	TicketStatusApproved  = "APPROVED"
	TicketStatusCancelled = "CANCELLED"
	TicketStatusPaid      = "PAID"
)

// User role constants
const (
	RoleAgent             = "AGENT"
	RoleChefAgence        = "CHEF_AGENCE"
	RoleResponsableCopec  = "RESPONSABLE_COPEC"
	RoleDG                = "DG"
	RoleRH                = "RH"
	RoleComptable         = "COMPTABLE"
	RoleAdmin             = "ADMIN"
	RoleDirecteurFinances = "DIRECTEUR_FINANCES"
	RoleChauffeur         = "CHAUFFEUR"
)

// Notification category constants
const (
	NotificationCategoryValidation = "VALIDATION"
	NotificationCategorySignature  = "SIGNATURE"
	NotificationCategoryReturn     = "RETURN"
	NotificationCategorySettlement = "SETTLEMENT"
	NotificationCategoryReminder   = "REMINDER"
	NotificationCategoryEscalation = "ESCALATION"
	NotificationCategoryInfo       = "INFO"
)
