package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/diewo77/sales-invoices/internal/httpx"
	"github.com/diewo77/sales-invoices/internal/services"
)

type CustomerHandler struct {
	Svc *services.CustomerService
}

func NewCustomerHandler(svc *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{Svc: svc}
}

// customerRequest is the create/update body. A blank code means auto-assign
// on create, keep-existing on update.
type customerRequest struct {
	Code         string              `json:"code"`
	Name         string              `json:"name" validate:"required"`
	AddressLine1 string              `json:"address_line1"`
	AddressLine2 string              `json:"address_line2"`
	CountryID    *uint               `json:"country_id"`
	CreditLimit  decimal.NullDecimal `json:"credit_limit"`
}

func (req *customerRequest) toInput() services.CustomerInput {
	return services.CustomerInput{
		Code:         req.Code,
		Name:         req.Name,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		CountryID:    req.CountryID,
		CreditLimit:  req.CreditLimit,
	}
}

// List: GET /api/customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.List(listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, page.Data, listMeta(page))
}

// Get: GET /api/customers/{code}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.GetByCode(r.PathValue("code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Create: POST /api/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if v := checkStruct(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", v)
		return
	}
	c, err := h.Svc.Create(req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"code": c.Code})
}

// Update: PUT /api/customers/{code}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
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

// Delete: DELETE /api/customers/{code}?force=true
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	if err := h.Svc.DeleteByCode(r.PathValue("code"), force); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Countries: GET /api/customers/countries
func (h *CustomerHandler) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.Svc.ListCountries()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, countries)
}
