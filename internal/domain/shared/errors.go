package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists    = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState     = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateTitle   = NewDomainError("DUPLICATE_TITLE", "An entity with this title already exists")
	ErrDuplicateAddress = NewDomainError("DUPLICATE_ADDRESS", "An entity with this address already exists")
	ErrAlreadyExported  = NewDomainError("ALREADY_EXPORTED", "Order already carries an external identifier")
	ErrOrphanParent     = NewDomainError("ORPHAN_PARENT", "Declared parent cannot be resolved")
)
