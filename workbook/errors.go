package workbook

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed indicates the bytes are not a readable spreadsheet workbook.
	ErrMalformed = errors.New("malformed workbook")

	// ErrMissingColumns indicates a sheet lacks columns the caller requires.
	ErrMissingColumns = errors.New("missing required columns")
)

// MissingColumnsError lists the required columns absent from a sheet.
type MissingColumnsError struct {
	Sheet   string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("sheet %q is missing required columns: %s", e.Sheet, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}
