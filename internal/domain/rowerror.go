package domain

// RowErrorCode is a stable, machine-readable validation failure code.
type RowErrorCode string

const (
	ErrCodeFormatInvalid         RowErrorCode = "FORMAT_INVALID"
	ErrCodeFieldRequired         RowErrorCode = "FIELD_REQUIRED"
	ErrCodeOrderNumberInvalid    RowErrorCode = "ORDER_NUMBER_INVALID"
	ErrCodeOrderDuplicate        RowErrorCode = "ORDER_DUPLICATE"
	ErrCodeClientNotFound        RowErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeZoneNotFound          RowErrorCode = "ZONE_NOT_FOUND"
	ErrCodeColdChainUnsupported  RowErrorCode = "COLD_CHAIN_UNSUPPORTED"
	ErrCodeDeliveryDatePast      RowErrorCode = "DELIVERY_DATE_PAST"
	ErrCodeStatusInvalid         RowErrorCode = "STATUS_INVALID"
	ErrCodeAlreadyProcessed      RowErrorCode = "ALREADY_PROCESSED"
	ErrCodeBeingProcessed        RowErrorCode = "BEING_PROCESSED"
	ErrCodeUnauthorized          RowErrorCode = "UNAUTHORIZED"
	ErrCodeInternalError         RowErrorCode = "INTERNAL_ERROR"
	ErrCodeRateLimited           RowErrorCode = "RATE_LIMITED"
)

func (c RowErrorCode) String() string { return string(c) }

// RowError is one failed-row diagnostic. Never co-exists with a
// ValidatedOrder for the same row.
type RowError struct {
	LineNumber int
	Code       RowErrorCode
	Message    string
}
