/*
Package workbook turns uploaded spreadsheet bytes into typed tabular datasets.

PURPOSE:
  Parses an .xlsx workbook into one Sheet per tab (header + raw cell text),
  then infers an explicit column schema per sheet so the store can create
  typed tables without carrying untyped values through the pipeline.

PARSING:
  Cells are read unformatted (excelize RawCellValue). Numbers arrive as
  their stored representation and dates as Excel serial numbers, which
  keeps inference independent of the author's display formats.

HEADERS:
  The first row is the header. Blank header cells become "Unnamed: <i>"
  and repeated names get ".1", ".2" suffixes so every column is addressable.

SEE ALSO:
  - dataset.go: schema inference and lenient date coercion
  - agency/importer.go: validates required sheets and calls Infer
*/
package workbook

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook is a parsed spreadsheet: sheets by exact name, in file order.
type Workbook struct {
	Names    []string
	Sheets   map[string]*Sheet
	Date1904 bool
}

// Sheet holds the header and raw cell text of one tab.
type Sheet struct {
	Name     string
	Header   []string
	Records  [][]string
	date1904 bool
}

// Parse reads workbook bytes. Any failure to open or read the file is
// reported as ErrMalformed.
func Parse(data []byte) (*Workbook, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	wb := &Workbook{Sheets: make(map[string]*Sheet)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.Date1904 = *props.Date1904
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformed, name, err)
		}
		wb.Names = append(wb.Names, name)
		wb.Sheets[name] = newSheet(name, rows, wb.Date1904)
	}

	return wb, nil
}

// Sheet returns the sheet with exactly this name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.Sheets[name]
	return s, ok
}

// Missing returns the names not present in the workbook, in the order given.
// Matching is exact and case-sensitive.
func (w *Workbook) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := w.Sheets[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

func newSheet(name string, rows [][]string, date1904 bool) *Sheet {
	s := &Sheet{Name: name, date1904: date1904}
	if len(rows) == 0 {
		return s
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	s.Header = normalizeHeader(rows[0], width)

	for _, r := range rows[1:] {
		if isBlank(r) {
			continue
		}
		rec := make([]string, width)
		copy(rec, r)
		s.Records = append(s.Records, rec)
	}
	return s
}

// Empty reports whether the sheet has no header row at all.
func (s *Sheet) Empty() bool {
	return len(s.Header) == 0
}

func normalizeHeader(raw []string, width int) []string {
	header := make([]string, width)
	used := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(raw) {
			name = strings.TrimSpace(raw[i])
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		// SQL column names ignore case, so "uf" and "UF" collide.
		if used[strings.ToLower(name)] {
			base := name
			for n := 1; used[strings.ToLower(name)]; n++ {
				name = base + "." + strconv.Itoa(n)
			}
		}
		used[strings.ToLower(name)] = true
		header[i] = name
	}
	return header
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
