/*
scenarios.go - Demo workbook loaders for testing and demonstrations

PURPOSE:

	Imports bundled agency workbooks so the dashboard has data without an
	upload. Each scenario is built in memory by the sample package and goes
	through the same import path as POST /importar.

AVAILABLE SCENARIOS:

	demo:    H1 2024 agency with channel spelling variants and broken dates
	minimo:  One row per sheet

USAGE VIA API:

	POST /scenarios/load
	{"scenario_id": "demo"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' in sample/sample.go with ID, name, description
 2. Add the sheets function and its case in sample.Sheets

NOTE:

	Loading a scenario replaces the three agency tables like any import.

SEE ALSO:
  - handlers.go: ImportWorkbook
  - sample/sample.go: Workbook builders
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/viajante/agency-analytics/sample"
)

// ListScenarios returns available scenarios.
// GET /scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toScenarioDTOs(sample.Scenarios()))
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.getCurrentScenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range sample.Scenarios() {
		if s.ID == current {
			writeJSON(w, http.StatusOK, toScenarioDTOs([]sample.Scenario{s})[0])
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario imports a bundled workbook.
// POST /scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data, err := sample.Workbook(req.ScenarioID)
	if err != nil {
		writeServiceError(w, err, "Falha ao gerar o cenário")
		return
	}

	summary, err := h.Service.ImportWorkbook(r.Context(), req.ScenarioID+".xlsx", data)
	if err != nil {
		writeServiceError(w, err, "Erro ao processar e salvar os dados")
		return
	}

	h.setCurrentScenario(req.ScenarioID)
	log.Infof("scenario %s loaded", req.ScenarioID)

	writeJSON(w, http.StatusOK, toImportResponse(summary))
}

func (h *Handler) getCurrentScenario() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}

func (h *Handler) setCurrentScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}
