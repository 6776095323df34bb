package pricing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/platform/httpx"
	"github.com/godown-ops/godown/internal/shared"
)

// Handler exposes daily pricing endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers pricing routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/", h.set)
}

type setPriceRequest struct {
	ProductID   string           `json:"productId" validate:"required,uuid"`
	WarehouseID string           `json:"warehouseId" validate:"required,uuid"`
	Date        string           `json:"date" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	var req setPriceRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	productID, err := httpx.ParseUUID("productId", req.ProductID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	warehouseID, err := httpx.ParseUUID("warehouseId", req.WarehouseID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	price, err := h.service.Set(r.Context(), p, SetInput{ProductID: productID, WarehouseID: warehouseID, Date: req.Date, Price: *req.Price})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, price)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.QueryUUID(r, "warehouseId")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	prices, err := h.service.List(r.Context(), p, warehouseID, r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prices)
}
