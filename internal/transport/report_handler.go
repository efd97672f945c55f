package transport

import (
	"bytes"
	"net/http"
	"strconv"

	"bakery-ops/internal/middleware"
	"bakery-ops/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler serves the dashboard and export endpoints
type ReportHandler struct {
	reportService service.ReportService
	recentLimit   int
	logger        *zap.Logger
}

// NewReportHandler creates a new ReportHandler. recentLimit is used when the
// caller does not pass ?recent=.
func NewReportHandler(reportService service.ReportService, recentLimit int, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		recentLimit:   recentLimit,
		logger:        logger,
	}
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/summary", h.Summary)
		r.Get("/low-stock", h.LowStock)
		r.Get("/orders.csv", h.ExportOrders)
	})
}

// Summary returns the dashboard figures
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	recent := h.recentLimit
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{
				Field:   "recent",
				Message: "Must be a number between 1 and 100",
			}})
			return
		}
		recent = n
	}

	summary, err := h.reportService.Summary(r.Context(), recent)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// LowStock lists the products that need restocking
func (h *ReportHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.reportService.LowStock(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ExportOrders streams every order line as CSV
func (h *ReportHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	// Buffer so a failure can still become a JSON error response.
	var buf bytes.Buffer
	if err := h.reportService.ExportOrdersCSV(r.Context(), &buf); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
