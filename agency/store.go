package agency

import (
	"context"

	"github.com/viajante/agency-analytics/workbook"
)

// =============================================================================
// STORE - Interfaces implemented by store/sqlite
// =============================================================================

// TableWriter replace-loads datasets. Each dataset replaces the table of
// the same name, creating it if absent. Implementations must apply all
// datasets of one call as a single unit: either every table is replaced
// or none is.
type TableWriter interface {
	ReplaceTables(ctx context.Context, datasets ...*workbook.Dataset) error
}

// Querier runs read-only statements. Rows follow the statement's ORDER BY;
// without one the order is implementation-defined.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Store is the full table store.
type Store interface {
	TableWriter
	Querier
}

// ImportLog persists import runs.
type ImportLog interface {
	SaveImportRun(ctx context.Context, run ImportRun) error
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)
}
