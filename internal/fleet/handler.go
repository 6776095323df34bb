package fleet

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/godown-ops/godown/internal/platform/httpx"
	"github.com/godown-ops/godown/internal/shared"
)

// Handler wires HTTP endpoints for vehicles.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers vehicle routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

type createVehicleRequest struct {
	WarehouseID string `json:"warehouseId" validate:"required,uuid"`
	Number      string `json:"number" validate:"required"`
	DriverName  string `json:"driverName" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.QueryUUID(r, "warehouseId")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	vehicles, err := h.service.List(r.Context(), p, warehouseID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicles)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	warehouseID, err := httpx.ParseUUID("warehouseId", req.WarehouseID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	v, err := h.service.Create(r.Context(), p, CreateInput{WarehouseID: warehouseID, Number: req.Number, DriverName: req.DriverName})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	v, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "vehicle deleted"})
}
