package reporting

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmsight/pharmsight/internal/platform/httpx"
)

// Handler wires the reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reporting handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/value", h.handleStockValue)
	r.Get("/reports/categories", h.handleCategories)
	r.Get("/reports/expiry", h.handleNearExpiry)
	r.Get("/reports/critical", h.handleBelowCritical)
	r.Get("/reports/performance", h.handlePerformance)
	r.Get("/agent/kpis", h.handleKPI)
}

func (h *Handler) handleStockValue(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalStockValue(r.Context())
	if err != nil {
		h.respondError(w, "total stock value", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]float64{"valeur_totale_stock": total})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CategoryStats(r.Context())
	if err != nil {
		h.respondError(w, "category stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleNearExpiry(w http.ResponseWriter, r *http.Request) {
	months := DefaultExpiryMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", ErrInvalidWindow.Error())
			return
		}
		months = parsed
	}
	near, err := h.service.NearExpiry(r.Context(), months)
	if err != nil {
		h.respondError(w, "near expiry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, near)
}

func (h *Handler) handleBelowCritical(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.BelowCriticalThreshold(r.Context())
	if err != nil {
		h.respondError(w, "below critical threshold", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleKPI(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.KPIReport(r.Context())
	if err != nil {
		h.respondError(w, "kpi report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PerformanceReport(r.Context())
	if err != nil {
		h.respondError(w, "performance report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrInvalidWindow) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
