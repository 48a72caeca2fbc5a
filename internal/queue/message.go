package queue

import "fmt"

// BatchCompletedEvent is the best-effort notification published after
// a batch load finalizes. No consumer is owned by this service; this
// is a fire-and-forget signal to downstream reporting consumers.
type BatchCompletedEvent struct {
	BatchLoadID    string `json:"batchLoadId"`
	Status         string `json:"status"`
	TotalProcessed int    `json:"totalProcessed"`
	SuccessCount   int    `json:"successCount"`
	ErrorCount     int    `json:"errorCount"`
}

func (e BatchCompletedEvent) Validate() error {
	if e.BatchLoadID == "" {
		return fmt.Errorf("batchLoadId is required")
	}
	if e.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}
