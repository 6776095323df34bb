package trips

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/godown-ops/godown/internal/platform/httpx"
	"github.com/godown-ops/godown/internal/shared"
)

// IdempotencyHeader carries the client key that makes trip creation safe to resubmit.
const IdempotencyHeader = "Idempotency-Key"

// Handler wires HTTP endpoints for trips.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers trip routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.verify)
}

type loadItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	QtyLoaded int64  `json:"qtyLoaded" validate:"gt=0"`
}

type createTripRequest struct {
	VehicleID   string            `json:"vehicleId" validate:"required,uuid"`
	WarehouseID string            `json:"warehouseId" validate:"required,uuid"`
	Items       []loadItemRequest `json:"items" validate:"required,min=1,dive"`
}

type returnItemRequest struct {
	ProductID   string `json:"productId" validate:"required,uuid"`
	QtyReturned int64  `json:"qtyReturned" validate:"gte=0"`
}

type verifyTripRequest struct {
	Status        string              `json:"status" validate:"required,oneof=VERIFIED"`
	ReturnedItems []returnItemRequest `json:"returnedItems" validate:"dive"`
	VerifiedAt    *time.Time          `json:"verifiedAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	in := CreateInput{IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyHeader))}
	var err error
	if in.VehicleID, err = httpx.ParseUUID("vehicleId", req.VehicleID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if in.WarehouseID, err = httpx.ParseUUID("warehouseId", req.WarehouseID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	in.Items = make([]LoadItem, 0, len(req.Items))
	for _, it := range req.Items {
		id, err := httpx.ParseUUID("productId", it.ProductID)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		in.Items = append(in.Items, LoadItem{ProductID: id, QtyLoaded: it.QtyLoaded})
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	trip, err := h.service.Create(r.Context(), p, in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, trip)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req verifyTripRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if req.Status != string(StatusVerified) {
		httpx.Error(w, http.StatusBadRequest, "invalid status update")
		return
	}
	if err := httpx.Validate(&req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	in := VerifyInput{TripID: id, VerifiedAt: req.VerifiedAt, Returned: make([]ReturnItem, 0, len(req.ReturnedItems))}
	for _, it := range req.ReturnedItems {
		pid, err := httpx.ParseUUID("productId", it.ProductID)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		in.Returned = append(in.Returned, ReturnItem{ProductID: pid, QtyReturned: it.QtyReturned})
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	trip, err := h.service.Verify(r.Context(), p, in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trip)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	view, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.QueryUUID(r, "warehouseId")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	views, err := h.service.List(r.Context(), p, warehouseID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}
