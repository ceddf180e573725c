package replenish

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmsight/pharmsight/internal/platform/httpx"
)

// Handler wires the replenishment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the replenishment handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers replenishment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/agent/replenishment", h.handleSuggestions)
	r.Get("/agent/proposals", h.handleProposals)
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.Suggestions(r.Context())
	if err != nil {
		h.logger.Error("replenishment suggestions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suggestions)
}

func (h *Handler) handleProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.service.PurchaseProposals(r.Context())
	if err != nil {
		h.logger.Error("purchase proposals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, proposals)
}
