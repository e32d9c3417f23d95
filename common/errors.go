package common

import (
	"errors"
	"fmt"
	"strings"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
)

// EntityNotFoundError records an error indicating an entity was not found in any repository.
type EntityNotFoundError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// NewEntityNotFoundError creates an instance of EntityNotFoundError.
func NewEntityNotFoundError(entityType string) EntityNotFoundError {
	return EntityNotFoundError{EntityType: entityType}
}

// WrapEntityNotFoundError creates an instance of EntityNotFoundError wrapping err.
func WrapEntityNotFoundError(entityType string, err error) EntityNotFoundError {
	return EntityNotFoundError{EntityType: entityType, Err: err}
}

// Error implements the error interface.
func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		if strings.TrimSpace(e.EntityType) != "" {
			return fmt.Sprintf("Entity %s not found", e.EntityType)
		}

		if e.Err != nil {
			return e.Err.Error()
		}

		return "entity not found"
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError records an error indicating a request failed field-level validation.
type ValidationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// EntityConflictError records a version or uniqueness conflict detected on write.
type EntityConflictError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e EntityConflictError) Error() string {
	if e.Err != nil && strings.TrimSpace(e.Message) == "" {
		return e.Err.Error()
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityConflictError) Unwrap() error {
	return e.Err
}

// UnauthorizedError indicates a request whose bearer token could not be resolved to a user/device.
type UnauthorizedError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e UnauthorizedError) Error() string {
	return e.Message
}

// ForbiddenError indicates a request from an authenticated user who lacks membership in the target wallet.
type ForbiddenError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e ForbiddenError) Error() string {
	return e.Message
}

// UnprocessableOperationError indicates an operation that is well-formed but cannot be applied.
type UnprocessableOperationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e UnprocessableOperationError) Error() string {
	return e.Message
}

// FailedPreconditionError indicates a precondition failed during an operation.
type FailedPreconditionError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e FailedPreconditionError) Error() string {
	return e.Message
}

// InternalServerError wraps an unexpected error that should be hidden from the client behind a generic message.
type InternalServerError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e InternalServerError) Error() string {
	return e.Message
}

// ResponseError is a struct used to return errors to the client.
type ResponseError struct {
	Code    int    `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error returns the message of the ResponseError.
func (r ResponseError) Error() string {
	return r.Message
}

// ValidationKnownFieldsError records field-level validation failures keyed by field name.
type ValidationKnownFieldsError struct {
	EntityType string           `json:"entityType,omitempty"`
	Title      string           `json:"title,omitempty"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
	Fields     FieldValidations `json:"fields,omitempty"`
}

// Error returns the error message for a ValidationKnownFieldsError.
func (r ValidationKnownFieldsError) Error() string {
	return r.Message
}

// FieldValidations is a map of known fields and their validation errors.
type FieldValidations map[string]string

// ValidationUnknownFieldsError records fields present in a request but not recognized by the target struct.
type ValidationUnknownFieldsError struct {
	EntityType string        `json:"entityType,omitempty"`
	Title      string        `json:"title,omitempty"`
	Code       string        `json:"code,omitempty"`
	Message    string        `json:"message,omitempty"`
	Fields     UnknownFields `json:"fields,omitempty"`
}

// Error returns the error message for a ValidationUnknownFieldsError.
func (r ValidationUnknownFieldsError) Error() string {
	return r.Message
}

// UnknownFields is a map of unknown fields and their raw values.
type UnknownFields map[string]any

// ValidateInternalError wraps err behind a generic InternalServerError message.
func ValidateInternalError(err error, entityType string) error {
	return InternalServerError{
		EntityType: entityType,
		Code:       cn.ErrInternal.Error(),
		Title:      "Internal Server Error",
		Message:    "The server encountered an unexpected error. Please try again later or contact support.",
		Err:        err,
	}
}

// ValidateBadRequestFieldsError returns the appropriate bad-request error for known-invalid or unknown fields.
func ValidateBadRequestFieldsError(knownInvalidFields map[string]string, entityType string, unknownFields map[string]any) error {
	if len(unknownFields) == 0 && len(knownInvalidFields) == 0 {
		return errors.New("expected knownInvalidFields and unknownFields to be non-empty")
	}

	if len(unknownFields) > 0 {
		return ValidationUnknownFieldsError{
			EntityType: entityType,
			Code:       cn.ErrUnexpectedFieldsInRequest.Error(),
			Title:      "Unexpected Fields in the Request",
			Message:    "The request body contains more fields than expected. Please send only the allowed fields as per the documentation. The unexpected fields are listed in the fields object.",
			Fields:     unknownFields,
		}
	}

	return ValidationKnownFieldsError{
		EntityType: entityType,
		Code:       cn.ErrBadRequest.Error(),
		Title:      "Bad Request",
		Message:    "The server could not understand the request due to malformed syntax. Please check the listed fields and try again.",
		Fields:     knownInvalidFields,
	}
}

// ValidateBusinessError translates a sentinel error from common/constant into the
// structured error type and stable item error_code the HTTP layer serializes.
//
//nolint:gocyclo
func ValidateBusinessError(err error, entityType string, args ...any) error {
	switch {
	case errors.Is(err, cn.ErrEntityTypeRequired):
		return ValidationError{EntityType: entityType, Code: cn.ErrEntityTypeRequired.Error(), Title: "Entity Type Required", Message: "The entity_type field is required."}
	case errors.Is(err, cn.ErrUnsupportedEntityType):
		return ValidationError{EntityType: entityType, Code: cn.ErrUnsupportedEntityType.Error(), Title: "Unsupported Entity Type", Message: fmt.Sprintf("Entity type %v is not declared in the entity registry.", args...)}
	case errors.Is(err, cn.ErrInvalidOperation):
		return ValidationError{EntityType: entityType, Code: cn.ErrInvalidOperation.Error(), Title: "Invalid Operation", Message: fmt.Sprintf("Operation %v is not one of create, update, delete.", args...)}
	case errors.Is(err, cn.ErrEntityIDRequired):
		return ValidationError{EntityType: entityType, Code: cn.ErrEntityIDRequired.Error(), Title: "Entity ID Required", Message: "entity_id must be present and non-empty."}
	case errors.Is(err, cn.ErrEntityIDMismatch):
		return ValidationError{EntityType: entityType, Code: cn.ErrEntityIDMismatch.Error(), Title: "Entity ID Mismatch", Message: "entity_id must equal payload.client_id."}
	case errors.Is(err, cn.ErrInvalidClientID):
		return ValidationError{EntityType: entityType, Code: cn.ErrInvalidClientID.Error(), Title: "Invalid Client ID", Message: "payload.client_id is missing or malformed."}
	case errors.Is(err, cn.ErrPayloadMustBeObject):
		return ValidationError{EntityType: entityType, Code: cn.ErrPayloadMustBeObject.Error(), Title: "Payload Must Be Object", Message: "payload must be a JSON object."}
	case errors.Is(err, cn.ErrWalletIDMismatch):
		return ValidationError{EntityType: entityType, Code: cn.ErrWalletIDMismatch.Error(), Title: "Wallet ID Mismatch", Message: "payload.wallet_id must equal the request's wallet_id."}
	case errors.Is(err, cn.ErrWalletIDMustEqualClientID):
		return ValidationError{EntityType: entityType, Code: cn.ErrWalletIDMustEqualClientID.Error(), Title: "Wallet ID Must Equal Client ID", Message: "For the Wallet entity type, wallet_id must equal client_id."}
	case errors.Is(err, cn.ErrSensitiveFieldNotAllowed):
		return ValidationError{EntityType: entityType, Code: cn.ErrSensitiveFieldNotAllowed.Error(), Title: "Sensitive Field Not Allowed", Message: fmt.Sprintf("Field %v is on the denylist and cannot be set via sync.", args...)}
	case errors.Is(err, cn.ErrMissingRequiredFields):
		return ValidationError{EntityType: entityType, Code: cn.ErrMissingRequiredFields.Error(), Title: "Missing Required Fields", Message: fmt.Sprintf("Missing required fields: %v.", args...)}
	case errors.Is(err, cn.ErrInvalidFieldType):
		return ValidationError{EntityType: entityType, Code: cn.ErrInvalidFieldType.Error(), Title: "Invalid Field Type", Message: fmt.Sprintf("Field %v has an invalid type.", args...)}
	case errors.Is(err, cn.ErrBaseVersionRequired):
		return ValidationError{EntityType: entityType, Code: cn.ErrBaseVersionRequired.Error(), Title: "Base Version Required", Message: "base_version is required for update and delete operations."}
	case errors.Is(err, cn.ErrBaseVersionInvalid):
		return ValidationError{EntityType: entityType, Code: cn.ErrBaseVersionInvalid.Error(), Title: "Base Version Invalid", Message: "base_version must be a non-negative integer."}
	case errors.Is(err, cn.ErrNotFound):
		return EntityNotFoundError{EntityType: entityType, Code: cn.ErrNotFound.Error(), Title: "Not Found", Message: "No row exists for the given entity_id."}
	case errors.Is(err, cn.ErrPayloadTooLarge):
		return ValidationError{EntityType: entityType, Code: cn.ErrPayloadTooLarge.Error(), Title: "Payload Too Large", Message: "payload exceeds the maximum allowed size."}
	case errors.Is(err, cn.ErrInvalidCursor):
		return ValidationError{EntityType: entityType, Code: cn.ErrInvalidCursor.Error(), Title: "Invalid Cursor", Message: "cursor/since could not be parsed as ISO-8601, epoch millis, or an opaque next_cursor."}
	case errors.Is(err, cn.ErrUnauthorized):
		return UnauthorizedError{EntityType: entityType, Code: cn.ErrUnauthorized.Error(), Title: "Unauthorized", Message: "The bearer token is missing, unknown, revoked, or bound to a different device."}
	case errors.Is(err, cn.ErrForbidden):
		return ForbiddenError{EntityType: entityType, Code: cn.ErrForbidden.Error(), Title: "Forbidden", Message: "The user is not a member of the requested wallet."}
	case errors.Is(err, cn.ErrConflict):
		return EntityConflictError{EntityType: entityType, Code: cn.ErrConflict.Error(), Title: "Conflict", Message: "base_version does not match the row's current doc_version."}
	case errors.Is(err, cn.ErrBadRequest):
		return ValidationError{EntityType: entityType, Code: cn.ErrBadRequest.Error(), Title: "Bad Request", Message: err.Error(), Err: err}
	default:
		return err
	}
}
