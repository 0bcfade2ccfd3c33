package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/diewo77/sales-invoices/internal/httpx"
	"github.com/diewo77/sales-invoices/internal/services"
)

type ProductHandler struct {
	Svc *services.ProductService
}

func NewProductHandler(svc *services.ProductService) *ProductHandler {
	return &ProductHandler{Svc: svc}
}

type productRequest struct {
	Code      string          `json:"code"`
	Name      string          `json:"name" validate:"required"`
	UnitID    uint            `json:"units_id" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (req *productRequest) toInput() services.ProductInput {
	return services.ProductInput{
		Code:      req.Code,
		Name:      req.Name,
		UnitID:    req.UnitID,
		UnitPrice: req.UnitPrice,
	}
}

// List: GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.List(listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, page.Data, listMeta(page))
}

// Get: GET /api/products/{code}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	prod, err := h.Svc.GetByCode(r.PathValue("code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prod)
}

// Create: POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if v := checkStruct(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", v)
		return
	}
	prod, err := h.Svc.Create(req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"code": prod.Code})
}

// Update: PUT /api/products/{code}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if v := checkStruct(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", v)
		return
	}
	if err := h.Svc.UpdateByCode(r.PathValue("code"), req.toInput()); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Delete: DELETE /api/products/{code}?force=true
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	if err := h.Svc.DeleteByCode(r.PathValue("code"), force); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Units: GET /api/products/units
func (h *ProductHandler) Units(w http.ResponseWriter, r *http.Request) {
	units, err := h.Svc.ListUnits()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, units)
}
