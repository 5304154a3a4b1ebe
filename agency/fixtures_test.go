package agency_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viajante/agency-analytics/agency"
	"github.com/viajante/agency-analytics/sample"
	"github.com/viajante/agency-analytics/store/sqlite"
	"github.com/viajante/agency-analytics/workbook"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixtureSheets is a small agency workbook with known aggregates:
//
//	id  cliente      destino  canal       dt_reserva  receita  custo
//	1   Ana Silva    Lisboa   online      2024-03-05  1000.50  600
//	2   ANA          Paris    On-Line     2024-03-20  2000.25  1500
//	3   maria ana    Cancún   Agência     2024-04-02  1500     1000
//	4   Bruno Costa  Lisboa   Online      2024-03-11  800      500
//	5   Bruno Costa  Orlando  onlineshop  (invalid)   3000     2500
//	6   Ana Silva    Paris    Telefone    2024-05-15  1200     700
func fixtureSheets() []sample.Sheet {
	return []sample.Sheet{
		{Name: "reservas", Header: sample.ReservationHeader, Rows: [][]any{
			{1, "Ana Silva", "Lisboa", "online", date(2024, 3, 5), date(2024, 4, 10), 1000.5, 600},
			{2, "ANA", "Paris", "On-Line", date(2024, 3, 20), date(2024, 5, 1), 2000.25, 1500},
			{3, "maria ana", "Cancún", "Agência", date(2024, 4, 2), date(2024, 6, 1), 1500, 1000},
			{4, "Bruno Costa", "Lisboa", "Online", date(2024, 3, 11), "sem data", 800, 500},
			{5, "Bruno Costa", "Orlando", "onlineshop", "invalida", date(2024, 7, 1), 3000, 2500},
			{6, "Ana Silva", "Paris", "Telefone", date(2024, 5, 15), date(2024, 6, 20), 1200, 700},
		}},
		{Name: "clientes", Header: sample.CustomerHeader, Rows: [][]any{
			{"Ana Silva", "SP", "Pessoa Física", "São Paulo"},
			{"ANA", "sp", "Corporativo", "Santos"},
			{"maria ana", "RJ", "Parceiro", "Niterói"},
			{"Bruno Costa", "MG", "Pessoa Física", "Belo Horizonte"},
		}},
		{Name: "destinos", Header: sample.DestinationHeader, Rows: [][]any{
			{"Lisboa", "Portugal", "Europa"},
			{"Paris", "França", "Europa"},
			{"Cancún", "México", "América do Norte"},
			{"Orlando", "Estados Unidos", "América do Norte"},
		}},
	}
}

func buildWorkbook(t *testing.T, sheets ...sample.Sheet) []byte {
	t.Helper()
	data, err := sample.Build(sheets...)
	require.NoError(t, err)
	return data
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// loadedStore returns a store holding the fixture workbook.
func loadedStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := newStore(t)
	_, err := agency.ImportWorkbook(context.Background(), store, "fixture.xlsx", buildWorkbook(t, fixtureSheets()...))
	require.NoError(t, err)
	return store
}

func ids(rows []agency.Row) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["id_reserva"].(int64))
	}
	return out
}

// recordingWriter counts replace-loads without storing anything.
type recordingWriter struct {
	calls int
}

func (w *recordingWriter) ReplaceTables(context.Context, ...*workbook.Dataset) error {
	w.calls++
	return nil
}

// panicQuerier fails the test if the store is reached.
type panicQuerier struct {
	t *testing.T
}

func (q panicQuerier) Query(context.Context, string, ...any) ([]agency.Row, error) {
	q.t.Fatal("store must not be queried")
	return nil, nil
}
