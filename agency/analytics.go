package agency

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Aggregation names one of the fixed analytical queries.
type Aggregation string

const (
	MonthlyBookings          Aggregation = "monthly_bookings"
	TopMarginDestinations    Aggregation = "top_margin_destinations"
	DestinationProfitability Aggregation = "destination_profitability"
	RevenueByChannel         Aggregation = "revenue_by_channel"
	CustomerGrowth           Aggregation = "customer_growth"
	CustomerLoyalty          Aggregation = "customer_loyalty"
)

// Aggregations lists every aggregation in a stable order.
func Aggregations() []Aggregation {
	return []Aggregation{
		MonthlyBookings,
		TopMarginDestinations,
		DestinationProfitability,
		RevenueByChannel,
		CustomerGrowth,
		CustomerLoyalty,
	}
}

// ParseAggregation validates an aggregation name.
func ParseAggregation(name string) (Aggregation, error) {
	a := Aggregation(name)
	if _, ok := aggregationSQL[a]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAggregation, name)
	}
	return a, nil
}

var aggregationSQL = map[Aggregation]string{
	MonthlyBookings: `
		SELECT strftime('%Y-%m', dt_reserva) AS mes,
		       COUNT(*) AS total_reservas,
		       COALESCE(SUM(receita), 0) AS receita_total
		FROM reservas
		WHERE dt_reserva IS NOT NULL
		GROUP BY mes
		ORDER BY mes`,

	TopMarginDestinations: `
		SELECT destino,
		       AVG(receita - custo) AS margem_media,
		       COUNT(*) AS total_reservas
		FROM reservas
		WHERE receita IS NOT NULL AND custo IS NOT NULL
		GROUP BY destino
		ORDER BY margem_media DESC
		LIMIT 10`,

	DestinationProfitability: `
		SELECT r.destino,
		       d.continente,
		       COUNT(*) AS total_reservas,
		       COALESCE(SUM(r.receita), 0) AS receita_total,
		       COALESCE(SUM(r.custo), 0) AS custo_total,
		       COALESCE(SUM(r.receita - r.custo), 0) AS margem_total,
		       100.0 * SUM(r.receita - r.custo) / NULLIF(SUM(r.receita), 0) AS margem_percentual
		FROM reservas r
		LEFT JOIN destinos d ON d.destino = r.destino
		GROUP BY r.destino, d.continente
		ORDER BY margem_total DESC`,

	RevenueByChannel: `
		SELECT c.segmento,
		       CASE WHEN LOWER(r.canal_venda) IN ('online', 'on-line') THEN 'Online'
		            ELSE r.canal_venda END AS canal,
		       COUNT(*) AS total_reservas,
		       COALESCE(SUM(r.receita), 0) AS receita_total
		FROM reservas r
		JOIN clientes c ON c.cliente = r.cliente
		GROUP BY c.segmento, canal
		ORDER BY receita_total DESC`,

	CustomerGrowth: `
		WITH primeiras AS (
			SELECT cliente, MIN(dt_reserva) AS primeira
			FROM reservas
			WHERE dt_reserva IS NOT NULL
			GROUP BY cliente
		)
		SELECT strftime('%Y-%m', primeira) AS mes,
		       COUNT(*) AS novos_clientes,
		       SUM(COUNT(*)) OVER (ORDER BY strftime('%Y-%m', primeira)) AS clientes_acumulados
		FROM primeiras
		GROUP BY mes
		ORDER BY mes`,

	CustomerLoyalty: `
		SELECT r.cliente,
		       c.uf,
		       c.segmento,
		       COUNT(*) AS total_reservas,
		       COALESCE(SUM(r.receita), 0) AS receita_total,
		       MIN(r.dt_reserva) AS primeira_reserva,
		       MAX(r.dt_reserva) AS ultima_reserva,
		       CASE WHEN COUNT(*) >= 3 THEN 'fiel'
		            WHEN COUNT(*) = 2 THEN 'recorrente'
		            ELSE 'ocasional' END AS fidelidade
		FROM reservas r
		LEFT JOIN clientes c ON c.cliente = r.cliente
		GROUP BY r.cliente, c.uf, c.segmento
		ORDER BY total_reservas DESC, receita_total DESC`,
}

// RunAggregation executes one fixed aggregation. Float values are rounded
// to two decimal places.
func RunAggregation(ctx context.Context, store Querier, a Aggregation) ([]Row, error) {
	sql, ok := aggregationSQL[a]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAggregation, a)
	}

	rows, err := store.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("aggregation %s: %w", a, err)
	}

	for _, row := range rows {
		for k, v := range row {
			if f, ok := v.(float64); ok {
				row[k] = decimal.NewFromFloat(f).Round(2).InexactFloat64()
			}
		}
	}
	return rows, nil
}
