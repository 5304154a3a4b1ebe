package workbook

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajante/agency-analytics/sample"
)

func build(t *testing.T, sheets ...sample.Sheet) []byte {
	t.Helper()
	data, err := sample.Build(sheets...)
	require.NoError(t, err)
	return data
}

func TestParse_RejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("definitely not a zip archive"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParse_SheetsAndMissing(t *testing.T) {
	data := build(t,
		sample.Sheet{Name: "reservas", Header: []string{"id_reserva"}},
		sample.Sheet{Name: "Clientes", Header: []string{"cliente"}},
	)

	wb, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"reservas", "Clientes"}, wb.Names)
	_, ok := wb.Sheet("reservas")
	assert.True(t, ok)

	// Sheet names are matched exactly: "Clientes" does not satisfy "clientes".
	assert.Equal(t, []string{"clientes", "destinos"}, wb.Missing("reservas", "clientes", "destinos"))
}

func TestParse_HeaderNormalization(t *testing.T) {
	data := build(t, sample.Sheet{
		Name:   "destinos",
		Header: []string{" destino ", "", "pais", "pais", "pais.1"},
		Rows:   [][]any{{"Lisboa", "x", "Portugal", "PT", "?"}},
	})

	wb, err := Parse(data)
	require.NoError(t, err)
	s, _ := wb.Sheet("destinos")

	assert.Equal(t, []string{"destino", "Unnamed: 1", "pais", "pais.1", "pais.1.1"}, s.Header)
}

func TestParse_HeadersDifferingOnlyInCaseAreSuffixed(t *testing.T) {
	data := build(t, sample.Sheet{
		Name:   "clientes",
		Header: []string{"cliente", "uf", "UF", "Uf.1"},
		Rows:   [][]any{{"Ana", "SP", "sp", "x"}},
	})

	wb, err := Parse(data)
	require.NoError(t, err)
	s, _ := wb.Sheet("clientes")

	assert.Equal(t, []string{"cliente", "uf", "UF.1", "Uf.1.1"}, s.Header)
}

func TestParse_SkipsBlankRowsAndPadsShortRows(t *testing.T) {
	data := build(t, sample.Sheet{
		Name:   "clientes",
		Header: []string{"cliente", "uf", "segmento"},
		Rows: [][]any{
			{"Ana", "SP", "Corporativo"},
			{nil, nil, nil},
			{"Bruno"},
		},
	})

	wb, err := Parse(data)
	require.NoError(t, err)
	s, _ := wb.Sheet("clientes")

	require.Len(t, s.Records, 2)
	assert.Equal(t, []string{"Bruno", "", ""}, s.Records[1])
}

func TestInfer_ColumnTypes(t *testing.T) {
	data := build(t, sample.Sheet{
		Name:   "clientes",
		Header: []string{"id", "valor", "nome", "cep", "vazio"},
		Rows: [][]any{
			{1, 10.5, "Ana", "01310", nil},
			{2, 20, "Bruno", "20040", nil},
			{3, nil, 42, "30130", nil},
		},
	})
	wb, err := Parse(data)
	require.NoError(t, err)
	s, _ := wb.Sheet("clientes")

	ds, err := Infer(s)
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "id", Type: TypeInteger},
		{Name: "valor", Type: TypeReal},
		{Name: "nome", Type: TypeText},
		{Name: "cep", Type: TypeText},
		{Name: "vazio", Type: TypeText},
	}, ds.Columns)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, int64(2), ds.Value(1, "id"))
	assert.Equal(t, 10.5, ds.Value(0, "valor"))
	assert.Equal(t, float64(20), ds.Value(1, "valor"))
	assert.Nil(t, ds.Value(2, "valor"))
	assert.Equal(t, "01310", ds.Value(0, "cep"))
	assert.Equal(t, "42", ds.Value(2, "nome"))
	assert.Nil(t, ds.Value(0, "vazio"))
	assert.Equal(t, -1, ds.Index("inexistente"))
}

func TestInfer_DateCoercionIsLenient(t *testing.T) {
	march15 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	data := build(t, sample.Sheet{
		Name:   "reservas",
		Header: []string{"id_reserva", "dt_reserva", "dt_embarque"},
		Rows: [][]any{
			{1, march15, "2024-04-20"},
			{2, "15/03/2024", "31/02/2024"},
			{3, "sem data", nil},
			{4, "NaN", "Inf"},
			{5, "1e300", "-infinity"},
			{6, "45366", "2958466"},
		},
	})
	wb, err := Parse(data)
	require.NoError(t, err)
	s, _ := wb.Sheet("reservas")

	ds, err := Infer(s, "dt_embarque", "dt_reserva")
	require.NoError(t, err)

	assert.Equal(t, TypeTimestamp, ds.Columns[ds.Index("dt_reserva")].Type)
	assert.Equal(t, TypeTimestamp, ds.Columns[ds.Index("dt_embarque")].Type)

	assert.Equal(t, march15, ds.Value(0, "dt_reserva"))
	assert.Equal(t, time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC), ds.Value(0, "dt_embarque"))
	assert.Equal(t, march15, ds.Value(1, "dt_reserva"))

	// Unparseable values become nil; the row itself is kept.
	assert.Nil(t, ds.Value(1, "dt_embarque"))
	assert.Nil(t, ds.Value(2, "dt_reserva"))
	assert.Nil(t, ds.Value(2, "dt_embarque"))

	// Numeric text outside the Excel date range is not a date either.
	assert.Nil(t, ds.Value(3, "dt_reserva"))
	assert.Nil(t, ds.Value(3, "dt_embarque"))
	assert.Nil(t, ds.Value(4, "dt_reserva"))
	assert.Nil(t, ds.Value(4, "dt_embarque"))
	assert.Equal(t, march15, ds.Value(5, "dt_reserva"))
	assert.Nil(t, ds.Value(5, "dt_embarque"))
	assert.Equal(t, 6, ds.Len())
}

func TestInfer_MissingDateColumn(t *testing.T) {
	data := build(t, sample.Sheet{
		Name:   "reservas",
		Header: []string{"id_reserva", "dt_reserva"},
		Rows:   [][]any{{1, "2024-01-01"}},
	})
	wb, err := Parse(data)
	require.NoError(t, err)
	s, _ := wb.Sheet("reservas")

	_, err = Infer(s, "dt_embarque", "dt_reserva")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumns)

	var mcErr *MissingColumnsError
	require.True(t, errors.As(err, &mcErr))
	assert.Equal(t, "reservas", mcErr.Sheet)
	assert.Equal(t, []string{"dt_embarque"}, mcErr.Missing)
}
