package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/godown-ops/godown/internal/platform/httpx"
	"github.com/godown-ops/godown/internal/shared"
)

// Handler exposes billing endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers bill routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.generate)
	r.Get("/{id}", h.get)
}

type generateBillRequest struct {
	TripID string `json:"tripId" validate:"required,uuid"`
	Date   string `json:"date"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateBillRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	tripID, err := httpx.ParseUUID("tripId", req.TripID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	bill, err := h.service.Generate(r.Context(), p, GenerateInput{TripID: tripID, Date: req.Date})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.QueryUUID(r, "warehouseId")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	overview, err := h.service.List(r.Context(), p, warehouseID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	bill, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}
