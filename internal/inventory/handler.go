package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/platform/httpx"
	"github.com/godown-ops/godown/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/restock", h.restock)
	r.Delete("/{id}", h.delete)
}

type createProductRequest struct {
	WarehouseID string              `json:"warehouseId" validate:"required,uuid"`
	Name        string              `json:"name" validate:"required"`
	SKU         string              `json:"sku"`
	Quantity    int64               `json:"quantity" validate:"gte=0"`
	Price       decimal.Decimal     `json:"price"`
	InvoiceCost decimal.NullDecimal `json:"invoiceCost"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	Pack        string              `json:"pack"`
	Flavour     string              `json:"flavour"`
	Location    string              `json:"location"`
}

// optionalDecimal distinguishes an absent field from an explicit null.
type optionalDecimal struct {
	set   bool
	value decimal.NullDecimal
}

func (o *optionalDecimal) UnmarshalJSON(b []byte) error {
	o.set = true
	return o.value.UnmarshalJSON(b)
}

func (o optionalDecimal) ptr() *decimal.NullDecimal {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	InvoiceCost optionalDecimal  `json:"invoiceCost"`
	SalePrice   optionalDecimal  `json:"salePrice"`
	Pack        *string          `json:"pack"`
	Flavour     *string          `json:"flavour"`
	Location    *string          `json:"location"`
}

type restockRequest struct {
	Quantity int64 `json:"quantity" validate:"gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.QueryUUID(r, "warehouseId")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	products, err := h.service.List(r.Context(), p, warehouseID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
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
	prod, err := h.service.Create(r.Context(), p, CreateInput{
		WarehouseID: warehouseID,
		Name:        req.Name,
		SKU:         req.SKU,
		Quantity:    req.Quantity,
		Price:       req.Price,
		InvoiceCost: req.InvoiceCost,
		SalePrice:   req.SalePrice,
		Pack:        req.Pack,
		Flavour:     req.Flavour,
		Location:    req.Location,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, prod)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	prod, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prod)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	prod, err := h.service.Update(r.Context(), p, id, UpdateInput{
		Name:        req.Name,
		Price:       req.Price,
		InvoiceCost: req.InvoiceCost.ptr(),
		SalePrice:   req.SalePrice.ptr(),
		Pack:        req.Pack,
		Flavour:     req.Flavour,
		Location:    req.Location,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prod)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req restockRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	prod, err := h.service.Restock(r.Context(), p, id, req.Quantity)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prod)
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
