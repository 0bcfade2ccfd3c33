package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/sales-invoices/internal/httpx"
	"github.com/diewo77/sales-invoices/internal/services"
)

const dateLayout = "2006-01-02"

// defaultVATRate applies when the request omits vat_rate.
var defaultVATRate = decimal.NewFromFloat(0.07)

type InvoiceHandler struct {
	Svc *services.InvoiceService
}

func NewInvoiceHandler(svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Svc: svc}
}

// invoiceRequest is the create/update body. Blank invoice_no means auto-assign
// on create and keep-existing on update; a line item carries an id only when
// resubmitting an existing row.
type invoiceRequest struct {
	InvoiceNo    string            `json:"invoice_no"`
	CustomerCode string            `json:"customer_code" validate:"required"`
	InvoiceDate  string            `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	VATRate      *decimal.Decimal  `json:"vat_rate"`
	LineItems    []lineItemRequest `json:"line_items" validate:"min=1,dive"`
}

type lineItemRequest struct {
	ID          uint             `json:"id"`
	ProductCode string           `json:"product_code" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

func (req *invoiceRequest) toInput() services.InvoiceInput {
	date, _ := time.Parse(dateLayout, req.InvoiceDate)
	vatRate := defaultVATRate
	if req.VATRate != nil {
		vatRate = *req.VATRate
	}
	lines := make([]services.LineItemInput, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		lines = append(lines, services.LineItemInput{
			ID:          li.ID,
			ProductCode: li.ProductCode,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	return services.InvoiceInput{
		InvoiceNo:    req.InvoiceNo,
		CustomerCode: req.CustomerCode,
		InvoiceDate:  date,
		VATRate:      vatRate,
		LineItems:    lines,
	}
}

// List: GET /api/invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.List(listParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, page.Data, listMeta(page))
}

// Get: GET /api/invoices/{key}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Svc.Get(r.PathValue("key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Create: POST /api/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if v := checkStruct(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", v)
		return
	}
	invoiceNo, err := h.Svc.Create(req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"invoice_no": invoiceNo})
}

// Update: PUT /api/invoices/{key}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if v := checkStruct(&req); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", v)
		return
	}
	invoiceNo, err := h.Svc.Update(r.PathValue("key"), req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"invoice_no": invoiceNo})
}

// Delete: DELETE /api/invoices/{key}. Deleting a missing invoice is a no-op
// success.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.PathValue("key")); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
