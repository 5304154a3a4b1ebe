/*
handlers.go - HTTP API handlers for the agency analytics service

PURPOSE:
  Exposes the ingestion-and-query core via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to agency.Service.

ENDPOINTS:
  Import:
    POST   /importar                   Upload workbook (multipart field "file")
    GET    /importacoes                Import history (?limit=N, default 20)

  Listing:
    GET    /reservas/listar            Filtered reservations (mes, cliente, destino, canal, uf)

  Aggregations:
    GET    /reservas/mensal            monthly_bookings
    GET    /destinos/top-margem        top_margin_destinations
    GET    /destinos/rentabilidade     destination_profitability
    GET    /clientes/receita_canal     revenue_by_channel
    GET    /clientes/crescimento       customer_growth
    GET    /clientes/fidelidade        customer_loyalty
    GET    /analytics                  Aggregation names
    GET    /analytics/{name}           Any aggregation by name

  Scenarios:
    GET    /scenarios                  List demo workbooks
    GET    /scenarios/current          Last loaded demo workbook
    POST   /scenarios/load             Import a demo workbook

  Health:
    GET    /health                     Store ping

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call agency.Service
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON {"error", "detail"} with HTTP status:
  - 400: Invalid workbook, missing sheets or columns, bad month filter
  - 404: Unknown aggregation or scenario
  - 413: Upload larger than the configured limit
  - 500: Store failures

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/viajante/agency-analytics/agency"
	"github.com/viajante/agency-analytics/sample"
	"github.com/viajante/agency-analytics/workbook"
)

// DefaultMaxUploadBytes bounds POST /importar bodies.
const DefaultMaxUploadBytes int64 = 32 << 20

// uploadField is the multipart field carrying the workbook.
const uploadField = "file"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service        *agency.Service
	Store          Pinger
	MaxUploadBytes int64

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler over the given service.
func NewHandler(svc *agency.Service, store Pinger) *Handler {
	return &Handler{
		Service:        svc,
		Store:          store,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// =============================================================================
// IMPORT HANDLERS
// =============================================================================

// ImportWorkbook replaces the three agency tables with an uploaded workbook.
// POST /importar
func (h *Handler) ImportWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Requisição multipart inválida", err)
		return
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Campo 'file' obrigatório", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falha ao ler o arquivo enviado", err)
		return
	}

	summary, err := h.Service.ImportWorkbook(r.Context(), header.Filename, data)
	if err != nil {
		writeServiceError(w, err, "Erro ao processar e salvar os dados")
		return
	}

	h.setCurrentScenario("")
	writeJSON(w, http.StatusOK, toImportResponse(summary))
}

// ListImportRuns returns the most recent import attempts.
// GET /importacoes?limit=N
func (h *Handler) ListImportRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Parâmetro 'limit' deve ser um inteiro positivo", err)
			return
		}
		limit = n
	}

	runs, err := h.Service.ImportHistory(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, "Falha ao listar importações")
		return
	}

	writeJSON(w, http.StatusOK, toImportRunDTOs(runs))
}

// =============================================================================
// LISTING HANDLERS
// =============================================================================

// ListReservations returns reservations joined to their customers.
// GET /reservas/listar?mes=&cliente=&destino=&canal=&uf=
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := agency.ReservationFilters{
		Month:       q.Get("mes"),
		Customer:    q.Get("cliente"),
		Destination: q.Get("destino"),
		Channel:     q.Get("canal"),
		Region:      q.Get("uf"),
	}

	rows, err := h.Service.ListReservations(r.Context(), filters)
	if err != nil {
		writeServiceError(w, err, "Falha ao consultar reservas")
		return
	}

	writeJSON(w, http.StatusOK, toRowDTOs(rows))
}

// =============================================================================
// AGGREGATION HANDLERS
// =============================================================================

// Aggregation returns a handler serving one fixed aggregation.
func (h *Handler) Aggregation(a agency.Aggregation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeAggregation(w, r, a)
	}
}

// ListAggregations returns the aggregation names.
// GET /analytics
func (h *Handler) ListAggregations(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(agency.Aggregations()))
	for _, a := range agency.Aggregations() {
		names = append(names, string(a))
	}
	writeJSON(w, http.StatusOK, names)
}

// GetAggregation runs an aggregation by name.
// GET /analytics/{name}
func (h *Handler) GetAggregation(w http.ResponseWriter, r *http.Request) {
	a, err := agency.ParseAggregation(chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	h.writeAggregation(w, r, a)
}

func (h *Handler) writeAggregation(w http.ResponseWriter, r *http.Request, a agency.Aggregation) {
	rows, err := h.Service.RunAggregation(r.Context(), a)
	if err != nil {
		writeServiceError(w, err, "Falha ao calcular "+string(a))
		return
	}
	writeJSON(w, http.StatusOK, toRowDTOs(rows))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health pings the store.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Banco de dados indisponível", err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps agency errors to HTTP statuses. fallback is the
// message for server-side failures.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, agency.ErrInvalidMonthFormat):
		writeError(w, http.StatusBadRequest, "Formato de mês inválido. Use YYYY-MM.", err)
	case errors.Is(err, workbook.ErrMalformed):
		writeError(w, http.StatusBadRequest, "Erro ao ler o arquivo Excel. Verifique se é um .xlsx válido.", err)
	case errors.Is(err, agency.ErrMissingRequiredSheets):
		writeError(w, http.StatusBadRequest, "Arquivo Excel inválido. As abas obrigatórias não foram encontradas.", err)
	case agency.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Arquivo Excel inválido.", err)
	case agency.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Agregação desconhecida", err)
	case errors.Is(err, sample.ErrUnknownScenario):
		writeError(w, http.StatusNotFound, "Cenário desconhecido", err)
	default:
		log.Errorf("%s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback, err)
	}
}
