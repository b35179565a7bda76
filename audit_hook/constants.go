package audithook

// Action constants for audit events.
const (
	// Participant actions
	ActionParticipantAuthorized = "participant.authorized"
	ActionParticipantRevoked    = "participant.revoked"

	// Product actions
	ActionProductRegistered    = "product.registered"
	ActionStatusUpdated        = "product.status_updated"
	ActionOwnershipTransferred = "product.ownership_transferred"

	// Rejections
	ActionOperationRejected = "operation.rejected"
)

// Resource constants for audit events.
const (
	ResourceParticipant = "participant"
	ResourceProduct     = "product"
	ResourceOperation   = "operation"
)

// Category constants for audit events.
const (
	CategoryAccess      = "access"
	CategoryProvenance  = "provenance"
	CategoryCustody     = "custody"
	CategoryEnforcement = "enforcement"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
