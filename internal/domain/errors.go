package domain

import "errors"

// Sentinel errors matched at the transport boundary with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource conflict")
	ErrAlreadyReserved = errors.New("batch load already reserved")
)
