package narrative

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pharmsight/pharmsight/internal/platform/httpx"
)

// Handler wires the narrative endpoints under /llm.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the narrative handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers narrative routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/llm", func(r chi.Router) {
		r.Post("/chat", h.handleChat)
		r.Get("/forecast", h.narrate(h.service.ExplainForecast))
		r.Get("/alerts", h.narrate(h.service.HumanizeAlerts))
		r.Get("/inventory", h.narrate(h.service.ExplainAudit))
		r.Get("/kpi", h.narrate(h.service.ExplainKPI))
		r.Get("/purchase", h.narrate(h.service.ExplainProposals))
		r.Get("/delivery", h.narrate(h.service.ExplainDeliveries))
	})
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	n, err := h.service.Chat(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("narrative chat", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, n)
}

func (h *Handler) narrate(fn func(ctx context.Context) (Narrative, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := fn(r.Context())
		if err != nil {
			h.logger.Error("narrative", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, n)
	}
}
