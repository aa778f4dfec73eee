package services

// ServiceError is the sentinel error type shared by every service. Handlers
// map each sentinel to an HTTP status at the response boundary; services
// never see status codes.
type ServiceError string

func (e ServiceError) Error() string { return string(e) }

// Validation errors (400).
const (
	ErrCheckboxOptions    ServiceError = "options are required for CHECKBOX type questions"
	ErrInvalidQuestion    ServiceError = "invalid question type"
	ErrQueryRequired      ServiceError = "query parameter is required"
	ErrTemplateFields     ServiceError = "title, description, and topic are required"
	ErrFormInput          ServiceError = "a template id and at least one answer are required"
	ErrAnswerMismatch     ServiceError = "answer does not match a question of the template"
	ErrInvalidRole        ServiceError = "role must be USER or ADMIN"
	ErrSelfDemotion       ServiceError = "admins cannot remove their own admin access"
	ErrInvalidPriority    ServiceError = "priority must be one of: High, Medium, Low"
	ErrInvalidCredentials ServiceError = "invalid credentials"
)

// Authorization errors (403).
const (
	ErrForbidden ServiceError = "insufficient permissions"
)

// Not-found errors (404).
const (
	ErrTemplateNotFound ServiceError = "template not found"
	ErrFormNotFound     ServiceError = "form not found"
	ErrCommentNotFound  ServiceError = "comment not found"
	ErrUserNotFound     ServiceError = "user not found"
)

// Conflict errors (409).
const (
	ErrEmailTaken        ServiceError = "email already registered"
	ErrUserHasDependents ServiceError = "user still owns templates, forms, comments or likes"
)

// Upstream errors (500, remote detail surfaced).
const (
	ErrTicketUpstream ServiceError = "ticketing service request failed"
	ErrCRMUpstream    ServiceError = "crm service request failed"
)

// Caller is the identity derived from the bearer token, trusted for the
// lifetime of one request.
type Caller struct {
	ID    uint
	Email string
	Role  string
}

func (c Caller) IsAdmin() bool { return c.Role == "ADMIN" }
