/*
errors.go - Error taxonomy of the ingestion and query core

PURPOSE:
  All domain errors in one place. Input errors are caused by the client
  (bad workbook, bad filter) and are never retried; store errors are
  terminal for the request that triggered them.

ERROR CATEGORIES:
  1. Workbook errors - malformed file, missing sheets, missing columns
  2. Filter errors   - month not in YYYY-MM form
  3. Store errors    - replace-load or read failure

USAGE:
    if agency.IsClientError(err) {
        // 400
    }

SEE ALSO:
  - workbook/errors.go: ErrMalformed, MissingColumnsError
  - api/handlers.go: maps these errors to HTTP status codes
*/
package agency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viajante/agency-analytics/workbook"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingRequiredSheets is returned when the workbook lacks one of
	// reservas, clientes or destinos.
	ErrMissingRequiredSheets = errors.New("missing required sheets")

	// ErrEmptySheet is returned when a required sheet has no header row.
	ErrEmptySheet = errors.New("required sheet is empty")

	// ErrInvalidMonthFormat is returned when the month filter is not YYYY-MM.
	ErrInvalidMonthFormat = errors.New("invalid month format, use YYYY-MM")

	// ErrStoreWrite is returned when the replace-load fails.
	ErrStoreWrite = errors.New("failed to write tables")

	// ErrUnknownAggregation is returned for an aggregation name outside the fixed set.
	ErrUnknownAggregation = errors.New("unknown aggregation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingSheetsError names the required sheets absent from a workbook,
// in required order.
type MissingSheetsError struct {
	Missing []string
}

func (e *MissingSheetsError) Error() string {
	return fmt.Sprintf("workbook is missing required sheets: [%s]", strings.Join(e.Missing, ", "))
}

func (e *MissingSheetsError) Unwrap() error {
	return ErrMissingRequiredSheets
}

// StoreWriteError wraps the store failure of a replace-load. The previous
// tables are still in place: the three replaces run in one transaction.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%v: %v", ErrStoreWrite, e.Err)
}

func (e *StoreWriteError) Unwrap() []error {
	return []error{ErrStoreWrite, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, workbook.ErrMalformed) ||
		errors.Is(err, workbook.ErrMissingColumns) ||
		errors.Is(err, ErrMissingRequiredSheets) ||
		errors.Is(err, ErrEmptySheet) ||
		errors.Is(err, ErrInvalidMonthFormat)
}

// IsNotFound returns true if the error names something that does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownAggregation)
}
