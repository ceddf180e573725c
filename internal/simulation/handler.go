package simulation

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pharmsight/pharmsight/internal/platform/httpx"
)

// Handler wires the simulation endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the simulation handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers simulation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/simulation/run", h.handleRun)
	r.Post("/simulation/reset", h.handleReset)
}

type runRequest struct {
	Months        int `json:"months" validate:"omitempty,gte=1,lte=36"`
	ProductsCount int `json:"products_count" validate:"omitempty,gte=1,lte=500"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	req := runRequest{Months: DefaultMonths, ProductsCount: DefaultProductsCount}
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Run(r.Context(), req.Months, req.ProductsCount); err != nil {
		if errors.Is(err, ErrInvalidRun) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("simulation run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"months":         req.Months,
		"products_count": req.ProductsCount,
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.logger.Error("simulation reset", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
