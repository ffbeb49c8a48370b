package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeDuplicateSKU       = "DUPLICATE_SKU"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInvalidReason      = "INVALID_REASON"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeMappingRequired    = "MAPPING_REQUIRED"
	ErrCodeEmptyImport        = "EMPTY_IMPORT"
	ErrCodeSelfDelete         = "SELF_DELETE"
	ErrCodeLastOwner          = "LAST_OWNER"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeUnsupportedMedia   = "UNSUPPORTED_MEDIA"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure with a stable code and a
// user-visible message.
type DomainError struct {
	Code    string
	Message string
}

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
	ErrNameRequired        = NewDomainError(ErrCodeMissingField, "product name is required")
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "product not found")
	ErrProfileNotFound     = NewDomainError(ErrCodeProfileNotFound, "profile not found")
	ErrUserNotFound        = NewDomainError(ErrCodeUserNotFound, "user not found")
	ErrDuplicateSKU        = NewDomainError(ErrCodeDuplicateSKU, "a product with this SKU already exists")
	ErrInsufficientStock   = NewDomainError(ErrCodeInsufficientStock, "stock cannot go below zero")
	ErrZeroChange          = NewDomainError(ErrCodeInvalidQuantity, "change must be a non-zero integer")
	ErrNegativeQuantity    = NewDomainError(ErrCodeInvalidQuantity, "quantity cannot be negative")
	ErrObservedQtyRequired = NewDomainError(ErrCodeMissingField, "observedQty is required when editing a product")
	ErrInvalidReason       = NewDomainError(ErrCodeInvalidReason, "reason must be one of RESTOCK, SALE, ADJUST")
	ErrInvalidRole         = NewDomainError(ErrCodeInvalidRole, "role must be one of STAFF, MANAGER, OWNER")
	ErrNameMappingRequired = NewDomainError(ErrCodeMappingRequired, "select a valid column for \"name\"")
	ErrNoCSVRows           = NewDomainError(ErrCodeEmptyImport, "the CSV file has no data rows")
	ErrNoNamedRows         = NewDomainError(ErrCodeEmptyImport, "no rows have a product name")
	ErrEmailRequired       = NewDomainError(ErrCodeMissingField, "email is required")
	ErrEmailAndRole        = NewDomainError(ErrCodeMissingField, "email and role are required")
	ErrEmailTaken          = NewDomainError(ErrCodeEmailTaken, "a user with this email already exists")
	ErrDeleteIDsRequired   = NewDomainError(ErrCodeMissingField, "targetUserId and actorUserId are required")
	ErrSelfDelete          = NewDomainError(ErrCodeSelfDelete, "you cannot delete your own account")
	ErrLastOwner           = NewDomainError(ErrCodeLastOwner, "cannot delete the last OWNER")
	ErrLastOwnerDemotion   = NewDomainError(ErrCodeLastOwner, "cannot change the role of the last OWNER")
	ErrInvalidCredentials  = NewDomainError(ErrCodeInvalidCredentials, "invalid email or password")
	ErrInvalidToken        = NewDomainError(ErrCodeInvalidToken, "link is invalid or has expired")
	ErrWeakPassword        = NewDomainError(ErrCodeValidation, "password must be at least 8 characters")
	ErrNotImage            = NewDomainError(ErrCodeUnsupportedMedia, "only image uploads are accepted")
	ErrImageTooLarge       = NewDomainError(ErrCodeValidation, "images must be 5 MB or smaller")
	ErrInvalidCSV          = NewDomainError(ErrCodeValidation, "the file is not a readable CSV")
	ErrFileNotFound        = NewDomainError(ErrCodeFileNotFound, "file not found")
	ErrUnauthenticated     = NewDomainError(ErrCodeUnauthorised, "not signed in")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "this action is for managers and owners only")
)
