/*
Package agency is the ingestion-and-query core of the travel agency analytics.

PURPOSE:
  Loads the agency workbook (reservas, clientes, destinos) into the table
  store and answers the two kinds of reads the dashboard makes: the
  filtered reservation listing and six fixed aggregations.

DATA MODEL:
  reservas  reservation rows; joined to clientes by exact, case-sensitive
            equality of the "cliente" column and to destinos by "destino".
  clientes  customer rows; "uf" is the state code used by the region filter.
  destinos  destination rows used by the profitability aggregation.

  The store enforces no foreign keys. A reservation whose customer name
  differs in case or spacing from the clientes row will not join.

LIFECYCLE:
  Every successful import replaces all three tables. Between imports the
  tables are the only source for every read.

SEE ALSO:
  - importer.go: ImportWorkbook
  - listing.go: ListReservations
  - analytics.go: RunAggregation
  - service.go: cache, events and import history around the core
*/
package agency

import "time"

// Table names double as the required sheet names.
const (
	TableReservations = "reservas"
	TableCustomers    = "clientes"
	TableDestinations = "destinos"
)

// RequiredSheets are the sheets an import needs, in reporting order.
var RequiredSheets = []string{TableReservations, TableCustomers, TableDestinations}

// Reservation columns coerced to dates on import.
const (
	ColumnDepartureDate   = "dt_embarque"
	ColumnReservationDate = "dt_reserva"
)

// DateColumns are the reservation columns coerced to dates.
var DateColumns = []string{ColumnDepartureDate, ColumnReservationDate}

// Row is one result row keyed by column name.
type Row map[string]any

// ImportStatus is the outcome of an import.
type ImportStatus string

const (
	StatusSuccess ImportStatus = "sucesso"
	StatusFailure ImportStatus = "falha"
)

// ImportSummary is returned by a successful import.
type ImportSummary struct {
	ID           string
	Status       ImportStatus
	Filename     string
	Reservations int
	Customers    int
	Destinations int
}

// ImportRun is the persisted record of one import attempt.
type ImportRun struct {
	ID           string
	Filename     string
	Status       ImportStatus
	Reservations int
	Customers    int
	Destinations int
	Error        string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// ReservationFilters are the optional filters of the reservation listing.
// An empty field is absent.
type ReservationFilters struct {
	Month       string // YYYY-MM, matched against dt_reserva
	Customer    string
	Destination string
	Channel     string
	Region      string // customer UF
}
