package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"nadlan-parser/internal/core/domain"
	"nadlan-parser/internal/core/port"
	"nadlan-parser/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Acquirer - оркестратор получения сделок.
type Acquirer interface {
	ExecuteWithID(ctx context.Context, requestID string, criteria domain.SearchCriteria) (domain.AcquisitionResult, error)
}

// Handlers - обработчики HTTP API.
type Handlers struct {
	acquirer Acquirer
	catalog  port.NeighborhoodCatalogPort
	requests port.RequestQueuePort // nil, если очередь не настроена
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandlers создает обработчики. requests может быть nil.
func NewHandlers(acquirer Acquirer, catalog port.NeighborhoodCatalogPort, requests port.RequestQueuePort, log zerolog.Logger) *Handlers {
	return &Handlers{
		acquirer: acquirer,
		catalog:  catalog,
		requests: requests,
		now:      time.Now,
		log:      log.With().Str("handler", "transactions").Logger(),
	}
}

// RegisterRoutes регистрирует маршруты на роутере.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", h.HandleGetTransactions)
		r.Get("/transactions/export", h.HandleExportTransactions)
		r.Post("/transactions/requests", h.HandleEnqueueRequest)
		r.Get("/neighborhoods", h.HandleGetNeighborhoods)
	})
}

// HandleHealth
// GET /health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"async_queue": h.requests != nil,
	})
}

// HandleGetTransactions выполняет запрос синхронно и отдает результат в JSON.
// GET /api/transactions?city=&neighborhood=&start_date=&end_date=&rooms_min=&...&mode=
func (h *Handlers) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	result, ok := h.acquire(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleExportTransactions - то же, но в CSV.
// GET /api/transactions/export?...
func (h *Handlers) HandleExportTransactions(w http.ResponseWriter, r *http.Request) {
	result, ok := h.acquire(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.Header().Set("X-Request-Id", result.RequestID)
	w.Header().Set("X-Acquisition-Status", result.Status)
	if err := WriteCSV(w, result.Records); err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg("Failed to write CSV")
	}
}

// HandleEnqueueRequest ставит запрос в очередь воркеров; результат придет
// в очередь результатов с тем же request_id.
// POST /api/transactions/requests
func (h *Handlers) HandleEnqueueRequest(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)
	if h.requests == nil {
		writeError(w, http.StatusServiceUnavailable, "asynchronous requests are not configured")
		return
	}

	var req domain.AcquisitionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	criteria, err := req.ToCriteria(h.now())
	if err == nil {
		err = criteria.Validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := uuid.NewString()
	if err := h.requests.Enqueue(r.Context(), requestID, domain.RequestFromCriteria(criteria)); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue request")
		writeError(w, http.StatusBadGateway, "failed to enqueue request")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
}

// HandleGetNeighborhoods возвращает отсортированный список районов города.
// GET /api/neighborhoods?city=
func (h *Handlers) HandleGetNeighborhoods(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}
	set := h.catalog.ListNeighborhoods(r.Context(), city)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	slices.Sort(names)
	writeJSON(w, http.StatusOK, map[string]any{"city": city, "neighborhoods": names})
}

// acquire разбирает параметры и вызывает оркестратор. При ошибке ответ уже записан.
func (h *Handlers) acquire(w http.ResponseWriter, r *http.Request) (domain.AcquisitionResult, bool) {
	log := logger.FromContext(r.Context(), h.log)

	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.AcquisitionResult{}, false
	}
	criteria, err := req.ToCriteria(h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.AcquisitionResult{}, false
	}

	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result, err := h.acquirer.ExecuteWithID(r.Context(), requestID, criteria)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("Acquisition failed")
		}
		writeError(w, status, err.Error())
		return domain.AcquisitionResult{}, false
	}
	return result, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCriteria):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSourceNotConfigured), errors.Is(err, domain.ErrSessionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// requestFromQuery переносит параметры строки запроса в AcquisitionRequest.
func requestFromQuery(q url.Values) (domain.AcquisitionRequest, error) {
	req := domain.AcquisitionRequest{
		City:         q.Get("city"),
		Neighborhood: q.Get("neighborhood"),
		StartDate:    q.Get("start_date"),
		EndDate:      q.Get("end_date"),
		Mode:         q.Get("mode"),
	}

	bounds := []struct {
		key string
		dst **float64
	}{
		{"rooms_min", &req.RoomsMin}, {"rooms_max", &req.RoomsMax},
		{"floor_min", &req.FloorMin}, {"floor_max", &req.FloorMax},
		{"area_min", &req.AreaMin}, {"area_max", &req.AreaMax},
	}
	for _, b := range bounds {
		raw := strings.TrimSpace(q.Get(b.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("%w: %s=%q is not a number", domain.ErrInvalidCriteria, b.key, raw)
		}
		*b.dst = &v
	}

	if raw := strings.TrimSpace(q.Get("exclude_abnormal")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("%w: exclude_abnormal=%q is not a boolean", domain.ErrInvalidCriteria, raw)
		}
		req.ExcludeAbnormal = v
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
