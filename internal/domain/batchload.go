package domain

import (
	"fmt"
	"strings"
	"time"
)

// BatchLoadStatus is the processing state of a batch-load record.
type BatchLoadStatus string

const (
	BatchLoadStatusProcessing BatchLoadStatus = "PROCESSING"
	BatchLoadStatusCompleted  BatchLoadStatus = "COMPLETED"
	BatchLoadStatusFailed     BatchLoadStatus = "FAILED"
)

func (s BatchLoadStatus) String() string { return string(s) }

func (s BatchLoadStatus) IsValid() bool {
	switch s {
	case BatchLoadStatusProcessing, BatchLoadStatusCompleted, BatchLoadStatusFailed:
		return true
	}
	return false
}

func ParseBatchLoadStatusFromString(s string) (BatchLoadStatus, error) {
	st := BatchLoadStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid batch load status %q", ErrValidation, s)
	}
	return st, nil
}

// RowErrorRecord is the persisted, audited form of a RowError, owned
// exclusively by its parent BatchLoad. No back-reference to the parent
// is kept at the type level; the parent ID is attached at insert time.
type RowErrorRecord struct {
	ID         string
	LineNumber int
	Code       RowErrorCode
	Message    string
	CreatedAt  time.Time
}

// BatchLoad is the persisted idempotency aggregate. Identity is an
// opaque UUID; the natural key is (IdempotencyKey, FileHash), unique.
// Once COMPLETED or FAILED, Counters and Errors are immutable.
type BatchLoad struct {
	ID             string
	IdempotencyKey string
	FileHash       string
	Status         BatchLoadStatus
	TotalProcessed int
	SuccessCount   int
	ErrorCount     int
	Errors         []RowErrorRecord
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewBatchLoad constructs the initial PROCESSING form: empty children,
// zero counters. This is the only constructor; reserve is what persists it.
func NewBatchLoad(id, idempotencyKey, fileHash string) *BatchLoad {
	return &BatchLoad{
		ID:             id,
		IdempotencyKey: idempotencyKey,
		FileHash:       fileHash,
		Status:         BatchLoadStatusProcessing,
	}
}

// FinishProcessing transitions PROCESSING -> COMPLETED, attaching
// counters and error children in one step. COMPLETED describes the run,
// not its success: it is set even when every row failed.
func (b *BatchLoad) FinishProcessing(totalProcessed, successCount int, errs []RowErrorRecord) {
	b.TotalProcessed = totalProcessed
	b.SuccessCount = successCount
	b.ErrorCount = len(errs)
	b.Errors = errs
	b.Status = BatchLoadStatusCompleted
}

// FailProcessing transitions PROCESSING -> FAILED on infrastructural
// error. Counters and children are left untouched.
func (b *BatchLoad) FailProcessing() {
	b.Status = BatchLoadStatusFailed
}
