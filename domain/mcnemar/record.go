package mcnemar

import (
	"mcnemar/domain/core"
)

// ResultRecord wraps a TestResult with ledger metadata. Identity and time live
// here, not on the result itself, so the computation stays deterministic.
type ResultRecord struct {
	ID        core.ResultID  `json:"id"`
	Label     string         `json:"label,omitempty"`
	Result    TestResult     `json:"result"`
	CreatedAt core.Timestamp `json:"created_at"`
}

// NewRecord stamps a result with a fresh ID and the current time.
func NewRecord(label string, result TestResult) ResultRecord {
	return ResultRecord{
		ID:        core.NewResultID(),
		Label:     label,
		Result:    result,
		CreatedAt: core.Now(),
	}
}
