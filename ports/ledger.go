package ports

import (
	"context"

	"mcnemar/domain/core"
	"mcnemar/domain/mcnemar"
)

// LedgerWriterPort provides append-only write access to result records.
// Records are never updated or deleted through this port.
type LedgerWriterPort interface {
	StoreResult(ctx context.Context, record mcnemar.ResultRecord) error
}

// LedgerReaderPort provides read-only access to stored result records
// for queries and API access
type LedgerReaderPort interface {
	GetResult(ctx context.Context, id core.ResultID) (*mcnemar.ResultRecord, error)
	ListResults(ctx context.Context, filters ResultFilters) ([]mcnemar.ResultRecord, error)
}

// ResultFilters for querying stored results. Label matches exactly when set.
type ResultFilters struct {
	Label  string
	Limit  int
	Offset int
}

// ResultLedger combines read and write access
type ResultLedger interface {
	LedgerWriterPort
	LedgerReaderPort
}
