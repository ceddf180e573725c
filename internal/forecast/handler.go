package forecast

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmsight/pharmsight/internal/platform/httpx"
)

// Handler wires the forecast endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the forecast handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers forecast routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/agent/forecast", h.handleForecast)
	r.Get("/agent/preorder", h.handlePreOrder)
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	months, err := windowParam(r, "months")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	forecasts, err := h.service.ForecastConsumption(r.Context(), months)
	if err != nil {
		h.respondError(w, "forecast consumption", err)
		return
	}
	httpx.JSON(w, http.StatusOK, forecasts)
}

func (h *Handler) handlePreOrder(w http.ResponseWriter, r *http.Request) {
	months, err := windowParam(r, "months")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	preOrders, err := h.service.PreOrderForecast(r.Context(), months)
	if err != nil {
		h.respondError(w, "pre-order forecast", err)
		return
	}
	httpx.JSON(w, http.StatusOK, preOrders)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrInvalidWindow) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func windowParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return DefaultWindowMonths, nil
	}
	months, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidWindow
	}
	return months, nil
}
