package agency

import (
	"context"
	"fmt"

	"github.com/op/go-logging"
	"github.com/viajante/agency-analytics/workbook"
)

var log = logging.MustGetLogger("agency")

// ImportWorkbook parses workbook bytes and replace-loads the three tables.
//
// Validation happens before any write: a malformed file, a missing sheet, an
// empty required sheet or missing date columns leave the store untouched.
// Dates in dt_embarque and dt_reserva that cannot be parsed are stored as
// NULL; the row itself is kept.
func ImportWorkbook(ctx context.Context, store TableWriter, filename string, data []byte) (*ImportSummary, error) {
	wb, err := workbook.Parse(data)
	if err != nil {
		return nil, err
	}

	if missing := wb.Missing(RequiredSheets...); len(missing) > 0 {
		return nil, &MissingSheetsError{Missing: missing}
	}

	datasets := make([]*workbook.Dataset, 0, len(RequiredSheets))
	for _, name := range RequiredSheets {
		sheet, _ := wb.Sheet(name)
		if sheet.Empty() {
			return nil, fmt.Errorf("%w: %s", ErrEmptySheet, name)
		}

		var dateColumns []string
		if name == TableReservations {
			dateColumns = DateColumns
		}
		ds, err := workbook.Infer(sheet, dateColumns...)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	if err := store.ReplaceTables(ctx, datasets...); err != nil {
		return nil, &StoreWriteError{Err: err}
	}

	summary := &ImportSummary{
		Status:       StatusSuccess,
		Filename:     filename,
		Reservations: datasets[0].Len(),
		Customers:    datasets[1].Len(),
		Destinations: datasets[2].Len(),
	}
	log.Infof("imported %s: %d reservas, %d clientes, %d destinos",
		filename, summary.Reservations, summary.Customers, summary.Destinations)

	return summary, nil
}
