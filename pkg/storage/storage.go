package storage

import (
	"context"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
)

// Storage defines the persistence layer for check history.
type Storage interface {
	// RecordCheck persists a single check record.
	RecordCheck(ctx context.Context, record *model.CheckRecord) error

	// QueryChecks retrieves check records matching the given filter, newest first.
	QueryChecks(ctx context.Context, filter model.HistoryFilter) ([]model.CheckRecord, error)

	// SummarizeChecks returns aggregated statistics for the given filter.
	SummarizeChecks(ctx context.Context, filter model.HistoryFilter) (*model.HistorySummary, error)

	// Close releases resources.
	Close() error
}
