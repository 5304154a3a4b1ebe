package agency_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajante/agency-analytics/agency"
	"github.com/viajante/agency-analytics/sample"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in          string
		year, month int
		wantErr     bool
	}{
		{in: "2024-03", year: 2024, month: 3},
		{in: "2024-3", year: 2024, month: 3},
		{in: " 2024 - 03 ", year: 2024, month: 3},
		{in: "2024-13", year: 2024, month: 13},
		{in: "2024", wantErr: true},
		{in: "2024-03-01", wantErr: true},
		{in: "março-2024", wantErr: true},
		{in: "abc-def", wantErr: true},
		{in: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			year, month, err := agency.ParseMonth(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, agency.ErrInvalidMonthFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.month, month)
		})
	}
}

func TestListReservations_NoFilters(t *testing.T) {
	store := loadedStore(t)

	rows, err := agency.ListReservations(context.Background(), store, agency.ReservationFilters{})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(rows))
}

func TestListReservations_RowsCarryCustomerColumns(t *testing.T) {
	store := loadedStore(t)

	rows, err := agency.ListReservations(context.Background(), store, agency.ReservationFilters{})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	first := rows[0]
	assert.Equal(t, "Ana Silva", first["cliente"])
	assert.Equal(t, "Lisboa", first["destino"])
	assert.Equal(t, "SP", first["uf"])
	assert.Equal(t, "Pessoa Física", first["segmento"])
	assert.Equal(t, "São Paulo", first["cidade"])
	assert.Equal(t, 1000.5, first["receita"])
}

func TestListReservations_Filters(t *testing.T) {
	store := loadedStore(t)

	tests := []struct {
		name    string
		filters agency.ReservationFilters
		want    []int64
	}{
		{"month", agency.ReservationFilters{Month: "2024-03"}, []int64{1, 2, 4}},
		{"month without padding", agency.ReservationFilters{Month: "2024-3"}, []int64{1, 2, 4}},
		{"month out of range matches nothing", agency.ReservationFilters{Month: "2024-13"}, []int64{}},
		{"channel online", agency.ReservationFilters{Channel: "online"}, []int64{1, 2, 4}},
		{"channel ONLINE", agency.ReservationFilters{Channel: "ONLINE"}, []int64{1, 2, 4}},
		{"channel substring", agency.ReservationFilters{Channel: "TELE"}, []int64{6}},
		{"channel substring reaches onlineshop", agency.ReservationFilters{Channel: "shop"}, []int64{5}},
		{"customer substring any case", agency.ReservationFilters{Customer: "ana"}, []int64{1, 2, 3, 6}},
		{"customer upper case", agency.ReservationFilters{Customer: "ANA SILVA"}, []int64{1, 6}},
		{"destination substring", agency.ReservationFilters{Destination: "lis"}, []int64{1, 4}},
		{"destination with accent", agency.ReservationFilters{Destination: "CANCÚN"}, []int64{3}},
		{"region", agency.ReservationFilters{Region: "sp"}, []int64{1, 2, 6}},
		{"month and region", agency.ReservationFilters{Month: "2024-03", Region: "SP"}, []int64{1, 2}},
		{"all filters", agency.ReservationFilters{
			Month: "2024-03", Customer: "ana", Destination: "paris", Channel: "Online", Region: "sp",
		}, []int64{2}},
		{"wildcards are literal", agency.ReservationFilters{Customer: "%"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := agency.ListReservations(context.Background(), store, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func TestListReservations_InvalidMonthNeverReachesStore(t *testing.T) {
	_, err := agency.ListReservations(context.Background(), panicQuerier{t}, agency.ReservationFilters{
		Month:    "março",
		Customer: "ana",
	})

	assert.ErrorIs(t, err, agency.ErrInvalidMonthFormat)
	assert.True(t, agency.IsClientError(err))
}

func TestListReservations_BeforeFirstImport(t *testing.T) {
	store := newStore(t)

	rows, err := agency.ListReservations(context.Background(), store, agency.ReservationFilters{Month: "2024-03"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListReservations_RoundTripsEveryRow(t *testing.T) {
	// GIVEN: n reservations for one customer
	const n = 50
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i + 1, "Ana Silva", fmt.Sprintf("Destino %d", i), "Online",
			date(2024, 1, 1+i%28), date(2024, 2, 1+i%28), 100 + i, 50}
	}
	sheets := sample.Minimal()
	sheets[0].Rows = rows
	store := newStore(t)

	// WHEN: importing
	summary, err := agency.ImportWorkbook(context.Background(), store, "n.xlsx", buildWorkbook(t, sheets...))
	require.NoError(t, err)
	assert.Equal(t, n, summary.Reservations)

	// THEN: the unfiltered listing returns exactly n rows
	got, err := agency.ListReservations(context.Background(), store, agency.ReservationFilters{})
	require.NoError(t, err)
	assert.Len(t, got, n)
}
