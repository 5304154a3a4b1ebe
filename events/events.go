// Package events publishes notifications about completed imports so other
// consumers (dashboards, report jobs) can refresh without polling.
package events

import "time"

// ImportCompleted is published after the three tables were replaced.
type ImportCompleted struct {
	ID           string    `json:"id"`
	Filename     string    `json:"arquivo"`
	Reservations int       `json:"reservas_importadas"`
	Customers    int       `json:"clientes_importados"`
	Destinations int       `json:"destinos_importados"`
	ImportedAt   time.Time `json:"importado_em"`
}
