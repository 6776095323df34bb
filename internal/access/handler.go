package access

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/godown-ops/godown/internal/platform/httpx"
	"github.com/godown-ops/godown/internal/shared"
)

// Handler wires HTTP endpoints for warehouses and access grants.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /warehouses and /warehouse-access on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/warehouses", func(r chi.Router) {
		r.Get("/", h.listWarehouses)
		r.Post("/", h.createWarehouse)
	})
	r.Route("/warehouse-access", func(r chi.Router) {
		r.Get("/mine", h.listMine)
		r.Post("/requests", h.request)
		r.Get("/requests", h.listRequests)
		r.Put("/requests/{id}", h.decide)
		r.Post("/invite", h.invite)
		r.Get("/staff", h.listStaff)
	})
}

type createWarehouseRequest struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location" validate:"required"`
}

type accessRequest struct {
	WarehouseID string `json:"warehouseId" validate:"required,uuid"`
}

type decisionRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

type inviteRequest struct {
	UserID      string `json:"userId" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Name        string `json:"name"`
	WarehouseID string `json:"warehouseId" validate:"required,uuid"`
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.ListWarehouses(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	wh, err := h.service.CreateWarehouse(r.Context(), p, req.Name, req.Location)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, wh)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	grants, err := h.service.ListMine(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(grants))
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
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
	g, err := h.service.RequestAccess(r.Context(), p, warehouseID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, g)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	if status == "" {
		status = StatusPending
	}
	h.listStatus(w, r, status)
}

func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	h.listStatus(w, r, StatusApproved)
}

func (h *Handler) listStatus(w http.ResponseWriter, r *http.Request, status Status) {
	p, _ := shared.PrincipalFromContext(r.Context())
	grants, err := h.service.ListByStatus(r.Context(), p, status)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(grants))
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req decisionRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	g, err := h.service.Decide(r.Context(), p, id, Status(req.Status))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, g)
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
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
	g, err := h.service.Invite(r.Context(), p, InviteInput{UserID: req.UserID, Email: req.Email, Name: req.Name, WarehouseID: warehouseID})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, g)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
