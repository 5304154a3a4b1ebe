/*
Package sample builds agency workbooks in memory.

PURPOSE:
  Produces .xlsx files with the same shape the agency exports: sheets
  "reservas", "clientes" and "destinos". Used by the demo scenarios, the
  `sample` CLI command and tests that need a real workbook to import.

AVAILABLE SCENARIOS:
  demo:    first half of 2024, eight customers, six destinations, channel
           spelling variants, a few corrupted dates and a missing revenue
  minimo:  one row per sheet

SEE ALSO:
  - api/scenarios.go: loads a scenario through the import service
  - workbook/workbook.go: the parser these files are fed to
*/
package sample

import (
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet is one tab to write: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Scenario describes a bundled workbook.
type Scenario struct {
	ID          string
	Name        string
	Description string
}

var scenarios = []Scenario{
	{
		ID:          "demo",
		Name:        "Agência H1 2024",
		Description: "Reservas de janeiro a junho de 2024 com variações de canal e datas corrompidas",
	},
	{
		ID:          "minimo",
		Name:        "Mínimo",
		Description: "Uma linha por aba",
	},
}

// Scenarios lists the bundled workbooks.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// ErrUnknownScenario is returned by Sheets for an unregistered id.
var ErrUnknownScenario = errors.New("unknown scenario")

// Sheets returns the sheets of a bundled scenario.
func Sheets(id string) ([]Sheet, error) {
	switch id {
	case "demo":
		return Demo(), nil
	case "minimo":
		return Minimal(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}
}

// Workbook builds the .xlsx bytes of a bundled scenario.
func Workbook(id string) ([]byte, error) {
	sheets, err := Sheets(id)
	if err != nil {
		return nil, err
	}
	return Build(sheets...)
}

// Build writes the sheets, in order, into a new workbook.
func Build(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("at least one sheet is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	// A new file starts with "Sheet1"; reuse it for the first sheet.
	if err := f.SetSheetName("Sheet1", sheets[0].Name); err != nil {
		return nil, fmt.Errorf("failed to rename first sheet: %w", err)
	}
	for _, s := range sheets[1:] {
		if _, err := f.NewSheet(s.Name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", s.Name, err)
		}
	}

	for _, s := range sheets {
		if err := writeSheet(f, s); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s Sheet) error {
	if len(s.Header) == 0 {
		return nil
	}
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", s.Name, err)
	}
	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+2, s.Name, err)
		}
	}
	return nil
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

// ReservationHeader is the canonical column order of the reservas sheet.
var ReservationHeader = []string{
	"id_reserva", "cliente", "destino", "canal_venda",
	"dt_reserva", "dt_embarque", "receita", "custo",
}

// CustomerHeader is the canonical column order of the clientes sheet.
var CustomerHeader = []string{"cliente", "uf", "segmento", "cidade"}

// DestinationHeader is the canonical column order of the destinos sheet.
var DestinationHeader = []string{"destino", "pais", "continente"}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Demo returns the "demo" scenario sheets.
func Demo() []Sheet {
	customers := [][]any{
		{"Ana Silva", "SP", "Pessoa Física", "São Paulo"},
		{"Bruno Costa", "RJ", "Pessoa Física", "Rio de Janeiro"},
		{"Carla Souza", "MG", "Corporativo", "Belo Horizonte"},
		{"Diego Lima", "RS", "Parceiro", "Porto Alegre"},
		{"Elaine Rocha", "BA", "Pessoa Física", "Salvador"},
		{"Fábio Nunes", "PR", "Corporativo", "Curitiba"},
		{"Gabriela Alves", "SP", "Parceiro", "Campinas"},
		{"Henrique Dias", "MG", "Pessoa Física", "Uberlândia"},
	}
	destinations := [][]any{
		{"Lisboa", "Portugal", "Europa"},
		{"Paris", "França", "Europa"},
		{"Cancún", "México", "América do Norte"},
		{"Orlando", "Estados Unidos", "América do Norte"},
		{"Buenos Aires", "Argentina", "América do Sul"},
		{"Tóquio", "Japão", "Ásia"},
	}
	channels := []string{"Online", "Agência", "on-line", "Telefone", "online"}
	prices := []float64{4200, 6800, 5100, 7300, 2900, 9800}
	costs := []float64{3100, 5400, 3900, 6100, 2000, 7900}

	var reservations [][]any
	for i := 0; i < 36; i++ {
		c := customers[(i*3)%len(customers)]
		d := destinations[i%len(destinations)]
		booked := day(2024, time.Month(1+i%6), 1+(i*5)%27)
		departure := booked.AddDate(0, 1, 10)

		var bookedCell, departureCell any = booked, departure
		switch i {
		case 7:
			bookedCell = "31/02/2024"
		case 19:
			departureCell = "sem data"
		case 25:
			bookedCell = booked.Format("02/01/2006")
		}

		var revenue any = prices[i%len(prices)] + float64(i*10)
		if i == 11 {
			revenue = nil
		}

		reservations = append(reservations, []any{
			1000 + i, c[0], d[0], channels[i%len(channels)],
			bookedCell, departureCell, revenue, costs[i%len(costs)],
		})
	}

	return []Sheet{
		{Name: "reservas", Header: ReservationHeader, Rows: reservations},
		{Name: "clientes", Header: CustomerHeader, Rows: customers},
		{Name: "destinos", Header: DestinationHeader, Rows: destinations},
	}
}

// Minimal returns the "minimo" scenario sheets.
func Minimal() []Sheet {
	return []Sheet{
		{Name: "reservas", Header: ReservationHeader, Rows: [][]any{
			{1, "Ana Silva", "Lisboa", "Online", day(2024, time.March, 15), day(2024, time.April, 20), 4200.0, 3100.0},
		}},
		{Name: "clientes", Header: CustomerHeader, Rows: [][]any{
			{"Ana Silva", "SP", "Pessoa Física", "São Paulo"},
		}},
		{Name: "destinos", Header: DestinationHeader, Rows: [][]any{
			{"Lisboa", "Portugal", "Europa"},
		}},
	}
}
