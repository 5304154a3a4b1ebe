/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The field names are
  the ones the dashboard already reads (Portuguese, snake_case), so the
  agency types can evolve without breaking it.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Import:
    ImportResponse, ImportRunDTO

  Rows:
    RowDTO (listing and aggregation rows)

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

  Misc:
    ErrorResponse, HealthResponse

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/viajante/agency-analytics/agency"
	"github.com/viajante/agency-analytics/sample"
)

// rowTimeLayout matches the ISO form the dashboard parses.
const rowTimeLayout = "2006-01-02T15:04:05"

// =============================================================================
// IMPORT
// =============================================================================

// ImportResponse is returned by POST /importar.
type ImportResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	Arquivo            string `json:"arquivo"`
	ReservasImportadas int    `json:"reservas_importadas"`
	ClientesImportados int    `json:"clientes_importados"`
	DestinosImportados int    `json:"destinos_importados"`
}

// ImportRunDTO is one entry of GET /importacoes.
type ImportRunDTO struct {
	ID          string `json:"id"`
	Arquivo     string `json:"arquivo"`
	Status      string `json:"status"`
	Reservas    int    `json:"reservas"`
	Clientes    int    `json:"clientes"`
	Destinos    int    `json:"destinos"`
	Erro        string `json:"erro,omitempty"`
	IniciadoEm  string `json:"iniciado_em"`
	ConcluidoEm string `json:"concluido_em"`
}

// =============================================================================
// ROWS
// =============================================================================

// RowDTO is one listing or aggregation row keyed by column name.
type RowDTO map[string]any

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// MISC
// =============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toImportResponse(s *agency.ImportSummary) ImportResponse {
	return ImportResponse{
		ID:                 s.ID,
		Status:             string(s.Status),
		Arquivo:            s.Filename,
		ReservasImportadas: s.Reservations,
		ClientesImportados: s.Customers,
		DestinosImportados: s.Destinations,
	}
}

func toImportRunDTOs(runs []agency.ImportRun) []ImportRunDTO {
	dtos := make([]ImportRunDTO, len(runs))
	for i, r := range runs {
		dtos[i] = ImportRunDTO{
			ID:          r.ID,
			Arquivo:     r.Filename,
			Status:      string(r.Status),
			Reservas:    r.Reservations,
			Clientes:    r.Customers,
			Destinos:    r.Destinations,
			Erro:        r.Error,
			IniciadoEm:  r.StartedAt.Format(time.RFC3339),
			ConcluidoEm: r.CompletedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// toRowDTOs formats timestamps and keeps every other value as stored.
func toRowDTOs(rows []agency.Row) []RowDTO {
	dtos := make([]RowDTO, len(rows))
	for i, row := range rows {
		dto := make(RowDTO, len(row))
		for k, v := range row {
			if t, ok := v.(time.Time); ok {
				dto[k] = t.Format(rowTimeLayout)
				continue
			}
			dto[k] = v
		}
		dtos[i] = dto
	}
	return dtos
}

func toScenarioDTOs(list []sample.Scenario) []ScenarioDTO {
	dtos := make([]ScenarioDTO, len(list))
	for i, s := range list {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	return dtos
}
