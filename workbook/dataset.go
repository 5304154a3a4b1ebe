package workbook

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ColumnType is the storage type inferred for a column. Values are SQL
// type names so the store can use them directly in DDL.
type ColumnType string

const (
	TypeInteger   ColumnType = "INTEGER"
	TypeReal      ColumnType = "REAL"
	TypeText      ColumnType = "TEXT"
	TypeTimestamp ColumnType = "TIMESTAMP"
)

// Column is one named, typed column of a Dataset.
type Column struct {
	Name string
	Type ColumnType
}

// Dataset is a sheet after schema inference. Row values are int64,
// float64, string, time.Time or nil, matching the column type.
type Dataset struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Index returns the position of the named column, or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the value at row r of the named column.
func (d *Dataset) Value(r int, column string) any {
	i := d.Index(column)
	if i < 0 || r < 0 || r >= len(d.Rows) {
		return nil
	}
	return d.Rows[r][i]
}

// maxExcelSerial is 9999-12-31, the last date Excel can represent.
const maxExcelSerial = 2958465

// dateLayouts are tried in order for textual dates. Day-first before
// month-first: the source spreadsheets are filled in dd/mm/yyyy.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006",
}

// Infer builds a typed Dataset from a sheet. The named dateColumns are
// coerced to TIMESTAMP; a value that cannot be read as a date becomes nil
// instead of failing the import. Every date column must exist.
func Infer(s *Sheet, dateColumns ...string) (*Dataset, error) {
	present := make(map[string]bool, len(s.Header))
	for _, h := range s.Header {
		present[h] = true
	}
	var missing []string
	isDate := make(map[string]bool, len(dateColumns))
	for _, c := range dateColumns {
		if !present[c] {
			missing = append(missing, c)
		}
		isDate[c] = true
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Sheet: s.Name, Missing: missing}
	}

	ds := &Dataset{
		Name:    s.Name,
		Columns: make([]Column, len(s.Header)),
		Rows:    make([][]any, len(s.Records)),
	}
	for r := range ds.Rows {
		ds.Rows[r] = make([]any, len(s.Header))
	}

	for c, name := range s.Header {
		if isDate[name] {
			ds.Columns[c] = Column{Name: name, Type: TypeTimestamp}
			for r, rec := range s.Records {
				ds.Rows[r][c] = coerceDate(rec[c], s.date1904)
			}
			continue
		}

		typ := inferType(s.Records, c)
		ds.Columns[c] = Column{Name: name, Type: typ}
		for r, rec := range s.Records {
			ds.Rows[r][c] = convert(rec[c], typ)
		}
	}

	return ds, nil
}

func inferType(records [][]string, col int) ColumnType {
	typ := TypeInteger
	seen := false
	for _, rec := range records {
		v := strings.TrimSpace(rec[col])
		if v == "" {
			continue
		}
		seen = true
		if hasLeadingZero(v) {
			return TypeText
		}
		if typ == TypeInteger {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			typ = TypeReal
		}
		if _, err := decimal.NewFromString(v); err != nil {
			return TypeText
		}
	}
	if !seen {
		return TypeText
	}
	return typ
}

// hasLeadingZero catches codes such as CEPs ("01310") that look numeric
// but lose meaning when converted.
func hasLeadingZero(v string) bool {
	return len(v) > 1 && v[0] == '0' && v[1] != '.'
}

func convert(raw string, typ ColumnType) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	switch typ {
	case TypeInteger:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case TypeReal:
		d, _ := decimal.NewFromString(v)
		return d.InexactFloat64()
	default:
		return raw
	}
}

func coerceDate(raw string, date1904 bool) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= 0 || serial >= maxExcelSerial+1 {
			return nil
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return nil
		}
		return t.UTC().Truncate(time.Second)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return nil
}
