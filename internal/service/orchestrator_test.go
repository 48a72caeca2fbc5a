package service

import (
	"testing"
	"time"

	"github.com/codares/order-ingestion/internal/domain"
)

func TestReplayErrorForStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		status domain.BatchLoadStatus
		want   domain.RowErrorCode
		isNil  bool
	}{
		{name: "completed maps to already processed", status: domain.BatchLoadStatusCompleted, want: domain.ErrCodeAlreadyProcessed},
		{name: "processing maps to being processed", status: domain.BatchLoadStatusProcessing, want: domain.ErrCodeBeingProcessed},
		{name: "failed is treated as not present", status: domain.BatchLoadStatusFailed, isNil: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := replayErrorForStatus(tc.status)
			if tc.isNil {
				if got != nil {
					t.Fatalf("replayErrorForStatus(%s) = %+v, want nil", tc.status, got)
				}
				return
			}
			if got == nil || got.Code != tc.want {
				t.Fatalf("replayErrorForStatus(%s) = %+v, want code %s", tc.status, got, tc.want)
			}
		})
	}
}

func TestReplayError_Error(t *testing.T) {
	t.Parallel()

	err := &ReplayError{Code: domain.ErrCodeAlreadyProcessed}
	if err.Error() != string(domain.ErrCodeAlreadyProcessed) {
		t.Fatalf("Error() = %q, want %q", err.Error(), domain.ErrCodeAlreadyProcessed)
	}
}

func testSnapshot() *domain.CatalogSnapshot {
	return domain.NewCatalogSnapshot(
		[]string{"CLI-1"},
		map[string]bool{"ZONA1": false, "ZONA2": true},
		nil,
	)
}

func TestValidateRows_SplitsAcceptedAndRejected(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	validator := domain.NewValidator(loc, false)
	snapshot := testSnapshot()
	future := time.Now().In(loc).AddDate(0, 0, 7).Format("2006-01-02")

	rows := []domain.Row{
		{LineNumber: 2, OrderNumber: "P001", ClientID: "CLI-1", DeliveryDate: future, Status: "PENDING", ZoneID: "ZONA1", RequiresRefrigeration: false},
		{LineNumber: 3, OrderNumber: "P002", ClientID: "CLI-999", DeliveryDate: future, Status: "PENDING", ZoneID: "ZONA1", RequiresRefrigeration: false},
	}

	validOrders, rowErrors := validateRows(validator, rows, snapshot)

	if len(validOrders) != 1 {
		t.Fatalf("len(validOrders) = %d, want 1", len(validOrders))
	}
	if len(rowErrors) != 1 {
		t.Fatalf("len(rowErrors) = %d, want 1", len(rowErrors))
	}
	if rowErrors[0].Code != domain.ErrCodeClientNotFound {
		t.Fatalf("rowErrors[0].Code = %s, want %s", rowErrors[0].Code, domain.ErrCodeClientNotFound)
	}
}

func TestValidateRows_IntraBatchDuplicateUsesSnapshotCopy(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	validator := domain.NewValidator(loc, false)
	snapshot := testSnapshot()
	future := time.Now().In(loc).AddDate(0, 0, 7).Format("2006-01-02")

	rows := []domain.Row{
		{LineNumber: 2, OrderNumber: "P020", ClientID: "CLI-1", DeliveryDate: future, Status: "PENDING", ZoneID: "ZONA1", RequiresRefrigeration: false},
		{LineNumber: 3, OrderNumber: "P020", ClientID: "CLI-1", DeliveryDate: future, Status: "PENDING", ZoneID: "ZONA1", RequiresRefrigeration: false},
	}

	validOrders, rowErrors := validateRows(validator, rows, snapshot)

	if len(validOrders) != 1 || len(rowErrors) != 1 {
		t.Fatalf("got %d valid, %d errors, want 1 and 1", len(validOrders), len(rowErrors))
	}
	if rowErrors[0].Code != domain.ErrCodeOrderDuplicate {
		t.Fatalf("rowErrors[0].Code = %s, want %s", rowErrors[0].Code, domain.ErrCodeOrderDuplicate)
	}

	// The snapshot's own seen set must remain untouched across calls.
	if _, exists := snapshot.ExistingOrderNumbers["P020"]; exists {
		t.Fatal("snapshot.ExistingOrderNumbers should not be mutated by validation")
	}
}

func TestRowErrorRecords_AssignsIDsAndTimestamps(t *testing.T) {
	t.Parallel()

	rowErrors := []domain.RowError{
		{LineNumber: 2, Code: domain.ErrCodeClientNotFound, Message: "client not found"},
		{LineNumber: 3, Code: domain.ErrCodeZoneNotFound, Message: "zone not found"},
	}

	records := rowErrorRecords(rowErrors)

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	for i, r := range records {
		if r.ID == "" {
			t.Errorf("records[%d].ID is empty", i)
		}
		if r.CreatedAt.IsZero() {
			t.Errorf("records[%d].CreatedAt is zero", i)
		}
		if r.LineNumber != rowErrors[i].LineNumber || r.Code != rowErrors[i].Code {
			t.Errorf("records[%d] = %+v, want fields from %+v", i, r, rowErrors[i])
		}
	}
	if records[0].ID == records[1].ID {
		t.Error("expected distinct ids for distinct row errors")
	}
}

func TestSummarize_CountsErrorsByCode(t *testing.T) {
	t.Parallel()

	batch := domain.NewBatchLoad("batch-1", "key-1", "hash-1")
	batch.FinishProcessing(3, 1, []domain.RowErrorRecord{
		{ID: "e1", LineNumber: 2, Code: domain.ErrCodeClientNotFound, Message: "x"},
		{ID: "e2", LineNumber: 3, Code: domain.ErrCodeClientNotFound, Message: "y"},
	})

	rowErrors := []domain.RowError{
		{LineNumber: 2, Code: domain.ErrCodeClientNotFound, Message: "x"},
		{LineNumber: 3, Code: domain.ErrCodeClientNotFound, Message: "y"},
	}

	summary := summarize(batch, rowErrors)

	if summary.BatchLoadID != "batch-1" {
		t.Errorf("BatchLoadID = %q, want batch-1", summary.BatchLoadID)
	}
	if summary.StoredCount != 1 || summary.ErrorCount != 2 {
		t.Errorf("StoredCount=%d ErrorCount=%d, want 1 and 2", summary.StoredCount, summary.ErrorCount)
	}
	if summary.ErrorsByCode[domain.ErrCodeClientNotFound] != 2 {
		t.Errorf("ErrorsByCode[CLIENT_NOT_FOUND] = %d, want 2", summary.ErrorsByCode[domain.ErrCodeClientNotFound])
	}
	if len(summary.ErrorDetails) != 2 {
		t.Errorf("len(ErrorDetails) = %d, want 2", len(summary.ErrorDetails))
	}
}
