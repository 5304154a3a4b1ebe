package agency_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajante/agency-analytics/agency"
	"github.com/viajante/agency-analytics/sample"
	"github.com/viajante/agency-analytics/workbook"
)

func TestImportWorkbook_Summary(t *testing.T) {
	store := newStore(t)

	summary, err := agency.ImportWorkbook(context.Background(), store, "agencia.xlsx", buildWorkbook(t, fixtureSheets()...))
	require.NoError(t, err)

	assert.Equal(t, agency.StatusSuccess, summary.Status)
	assert.Equal(t, "agencia.xlsx", summary.Filename)
	assert.Equal(t, 6, summary.Reservations)
	assert.Equal(t, 4, summary.Customers)
	assert.Equal(t, 4, summary.Destinations)
}

func TestImportWorkbook_UnparseableDatesBecomeNull(t *testing.T) {
	store := loadedStore(t)

	rows, err := store.Query(context.Background(),
		"SELECT id_reserva, dt_reserva, dt_embarque FROM reservas WHERE dt_reserva IS NULL OR dt_embarque IS NULL ORDER BY id_reserva")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), rows[0]["id_reserva"])
	assert.Nil(t, rows[0]["dt_embarque"])
	assert.Equal(t, int64(5), rows[1]["id_reserva"])
	assert.Nil(t, rows[1]["dt_reserva"])
}

func TestImportWorkbook_NonNumericSerialsAreNotDates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sheets := sample.Minimal()
	sheets[0].Rows[0][4] = "NaN"
	sheets[0].Rows[0][5] = "nan"
	_, err := agency.ImportWorkbook(ctx, store, "nan.xlsx", buildWorkbook(t, sheets...))
	require.NoError(t, err)

	rows, err := store.Query(ctx, "SELECT dt_reserva, dt_embarque FROM reservas")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["dt_reserva"])
	assert.Nil(t, rows[0]["dt_embarque"])

	monthly, err := agency.RunAggregation(ctx, store, agency.MonthlyBookings)
	require.NoError(t, err)
	assert.Empty(t, monthly)
}

func TestImportWorkbook_ReplacesInsteadOfMerging(t *testing.T) {
	store := loadedStore(t)
	ctx := context.Background()

	// GIVEN: workbook B with a single reservation
	b := buildWorkbook(t, sample.Minimal()...)

	// WHEN: importing B after A
	summary, err := agency.ImportWorkbook(ctx, store, "b.xlsx", b)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reservations)

	// THEN: only B's rows remain
	rows, err := agency.ListReservations(ctx, store, agency.ReservationFilters{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(rows))

	customers, err := store.Query(ctx, "SELECT cliente FROM clientes")
	require.NoError(t, err)
	assert.Equal(t, []agency.Row{{"cliente": "Ana Silva"}}, customers)
}

func TestImportWorkbook_MissingSheetNamesItAndWritesNothing(t *testing.T) {
	sheets := fixtureSheets()[:2] // reservas, clientes
	w := &recordingWriter{}

	_, err := agency.ImportWorkbook(context.Background(), w, "sem-destinos.xlsx", buildWorkbook(t, sheets...))

	require.Error(t, err)
	assert.ErrorIs(t, err, agency.ErrMissingRequiredSheets)
	assert.True(t, agency.IsClientError(err))
	assert.Contains(t, err.Error(), "destinos")

	var msErr *agency.MissingSheetsError
	require.True(t, errors.As(err, &msErr))
	assert.Equal(t, []string{"destinos"}, msErr.Missing)
	assert.Zero(t, w.calls, "no store writes on validation failure")
}

func TestImportWorkbook_SheetNamesAreCaseSensitive(t *testing.T) {
	sheets := fixtureSheets()
	sheets[1].Name = "Clientes"
	w := &recordingWriter{}

	_, err := agency.ImportWorkbook(context.Background(), w, "x.xlsx", buildWorkbook(t, sheets...))

	var msErr *agency.MissingSheetsError
	require.True(t, errors.As(err, &msErr))
	assert.Equal(t, []string{"clientes"}, msErr.Missing)
	assert.Zero(t, w.calls)
}

func TestImportWorkbook_MalformedBytes(t *testing.T) {
	w := &recordingWriter{}

	_, err := agency.ImportWorkbook(context.Background(), w, "x.xlsx", []byte("PK not really"))

	assert.ErrorIs(t, err, workbook.ErrMalformed)
	assert.True(t, agency.IsClientError(err))
	assert.Zero(t, w.calls)
}

func TestImportWorkbook_CaseOnlyDuplicateHeadersAreStored(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sheets := fixtureSheets()
	sheets[1] = sample.Sheet{
		Name:   "clientes",
		Header: []string{"cliente", "uf", "UF"},
		Rows:   [][]any{{"Ana Silva", "SP", "sp"}},
	}

	_, err := agency.ImportWorkbook(ctx, store, "uf.xlsx", buildWorkbook(t, sheets...))
	require.NoError(t, err)

	rows, err := store.Query(ctx, "SELECT * FROM clientes")
	require.NoError(t, err)
	assert.Equal(t, []agency.Row{{"cliente": "Ana Silva", "uf": "SP", "UF.1": "sp"}}, rows)
}

func TestImportWorkbook_MissingDateColumns(t *testing.T) {
	sheets := fixtureSheets()
	sheets[0] = sample.Sheet{
		Name:   "reservas",
		Header: []string{"id_reserva", "cliente", "dt_reserva"},
		Rows:   [][]any{{1, "Ana Silva", "2024-03-05"}},
	}
	w := &recordingWriter{}

	_, err := agency.ImportWorkbook(context.Background(), w, "x.xlsx", buildWorkbook(t, sheets...))

	assert.ErrorIs(t, err, workbook.ErrMissingColumns)
	assert.True(t, agency.IsClientError(err))
	assert.Zero(t, w.calls)
}

func TestImportWorkbook_EmptyRequiredSheet(t *testing.T) {
	sheets := fixtureSheets()
	sheets[2] = sample.Sheet{Name: "destinos"}
	w := &recordingWriter{}

	_, err := agency.ImportWorkbook(context.Background(), w, "x.xlsx", buildWorkbook(t, sheets...))

	assert.ErrorIs(t, err, agency.ErrEmptySheet)
	assert.Zero(t, w.calls)
}

type failingWriter struct{}

func (failingWriter) ReplaceTables(context.Context, ...*workbook.Dataset) error {
	return errors.New("disk full")
}

func TestImportWorkbook_StoreFailure(t *testing.T) {
	_, err := agency.ImportWorkbook(context.Background(), failingWriter{}, "x.xlsx", buildWorkbook(t, fixtureSheets()...))

	require.Error(t, err)
	assert.ErrorIs(t, err, agency.ErrStoreWrite)
	assert.False(t, agency.IsClientError(err))
	assert.Contains(t, err.Error(), "disk full")
}
