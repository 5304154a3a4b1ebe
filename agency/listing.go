package agency

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/viajante/agency-analytics/query"
)

const listingBase = `SELECT reservas.*, clientes.* FROM reservas ` +
	`JOIN clientes ON reservas.cliente = clientes.cliente`

// channelOnline is folded together with its data-entry variant "on-line".
var channelOnline = []string{"online", "on-line"}

// ParseMonth splits a YYYY-MM filter into year and month. The value must
// split on "-" into exactly two integers; the month is not range-checked.
func ParseMonth(s string) (year, month int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthFormat, s)
	}
	year, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthFormat, s)
	}
	month, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthFormat, s)
	}
	return year, month, nil
}

// ReservationQuery builds the listing statement: reservations joined to
// customers, with one AND term per non-empty filter.
func ReservationQuery(f ReservationFilters) (*query.Builder, error) {
	b := query.Select(listingBase).Where(query.True).OrderBy("reservas.rowid")

	if f.Month != "" {
		year, month, err := ParseMonth(f.Month)
		if err != nil {
			return nil, err
		}
		b.Where(query.YearMonth{Column: "reservas." + ColumnReservationDate, Year: year, Month: month})
	}
	if f.Customer != "" {
		b.Where(query.Contains{Column: "reservas.cliente", Value: f.Customer})
	}
	if f.Destination != "" {
		b.Where(query.Contains{Column: "reservas.destino", Value: f.Destination})
	}
	if f.Channel != "" {
		if strings.ToLower(f.Channel) == "online" {
			b.Where(query.OneOf{Column: "reservas.canal_venda", Values: channelOnline})
		} else {
			b.Where(query.Contains{Column: "reservas.canal_venda", Value: f.Channel})
		}
	}
	if f.Region != "" {
		b.Where(query.Contains{Column: "clientes.uf", Value: f.Region})
	}

	return b, nil
}

// ListReservations returns the reservations matching every given filter,
// each row carrying the reservation and customer columns. An invalid month
// is rejected before the store is touched.
func ListReservations(ctx context.Context, store Querier, f ReservationFilters) ([]Row, error) {
	b, err := ReservationQuery(f)
	if err != nil {
		return nil, err
	}
	sql, args := b.Build()
	return store.Query(ctx, sql, args...)
}
