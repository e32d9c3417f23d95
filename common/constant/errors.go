package constant

import "errors"

// Sentinel errors for the sync engine's stable item error-code taxonomy.
// Each one's Error() string IS the wire error_code.
var (
	ErrEntityTypeRequired        = errors.New("entity_type_required")
	ErrUnsupportedEntityType     = errors.New("unsupported_entity_type")
	ErrInvalidOperation          = errors.New("invalid_operation")
	ErrEntityIDRequired          = errors.New("entity_id_required")
	ErrEntityIDMismatch          = errors.New("entity_id_mismatch")
	ErrInvalidClientID           = errors.New("invalid_client_id")
	ErrPayloadMustBeObject       = errors.New("payload_must_be_object")
	ErrWalletIDMismatch          = errors.New("wallet_id_mismatch")
	ErrWalletIDMustEqualClientID = errors.New("wallet_id_must_equal_client_id")
	ErrSensitiveFieldNotAllowed  = errors.New("sensitive_field_not_allowed")
	ErrMissingRequiredFields     = errors.New("missing_required_fields")
	ErrInvalidFieldType          = errors.New("invalid_field_type")
	ErrBaseVersionRequired       = errors.New("base_version_required")
	ErrBaseVersionInvalid        = errors.New("base_version_invalid")
	ErrNotFound                  = errors.New("not_found")
	ErrPayloadTooLarge           = errors.New("payload_too_large")
	ErrInvalidCursor             = errors.New("invalid_cursor")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrForbidden                 = errors.New("forbidden")
	ErrInternal                  = errors.New("internal_error")
	ErrBadRequest                = errors.New("bad_request")
	ErrUnexpectedFieldsInRequest = errors.New("unexpected_fields_in_request")
	ErrConflict                  = errors.New("conflict")
)
