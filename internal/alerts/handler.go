package alerts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmsight/pharmsight/internal/platform/httpx"
)

// Handler wires the alert endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the alerts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers alert routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/agent/alerts/critical", h.handleCritical)
	r.Get("/agent/alerts/threshold", h.handleThreshold)
	r.Get("/agent/alerts/expiry", h.handleExpiry)
	r.Get("/agent/audit", h.handleAudit)
	r.Get("/agent/deliveries", h.handleDeliveries)
}

func (h *Handler) handleCritical(w http.ResponseWriter, r *http.Request) {
	level := DefaultCriticalLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", ErrInvalidLevel.Error())
			return
		}
		level = parsed
	}
	found, err := h.service.DetectCriticalStocks(r.Context(), level)
	if err != nil {
		h.respondError(w, "detect critical stocks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, found)
}

func (h *Handler) handleThreshold(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.DetectThresholdBreaches(r.Context())
	if err != nil {
		h.respondError(w, "detect threshold breaches", err)
		return
	}
	httpx.JSON(w, http.StatusOK, found)
}

func (h *Handler) handleExpiry(w http.ResponseWriter, r *http.Request) {
	days := DefaultExpiryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", ErrInvalidDays.Error())
			return
		}
		days = parsed
	}
	found, err := h.service.DetectExpiringProducts(r.Context(), days)
	if err != nil {
		h.respondError(w, "detect expiring products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, found)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.AuditInventory(r.Context())
	if err != nil {
		h.respondError(w, "inventory audit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, found)
}

func (h *Handler) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	tolerance := DefaultDeliveryTolerance
	if raw := r.URL.Query().Get("tolerance"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", ErrInvalidTolerance.Error())
			return
		}
		tolerance = parsed
	}
	found, err := h.service.VerifyDeliveries(r.Context(), tolerance)
	if err != nil {
		h.respondError(w, "verify deliveries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, found)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidLevel), errors.Is(err, ErrInvalidDays), errors.Is(err, ErrInvalidTolerance):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
