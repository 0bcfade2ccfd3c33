package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/sales-invoices/internal/httpx"
	"github.com/diewo77/sales-invoices/internal/services"
)

type ReportHandler struct {
	Svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler {
	return &ReportHandler{Svc: svc}
}

func reportFilter(r *http.Request) services.ReportFilter {
	q := r.URL.Query()
	f := services.ReportFilter{
		ProductCode:  q.Get("product_code"),
		CustomerCode: q.Get("customer_code"),
		ListParams:   listParams(r),
	}
	if n, err := strconv.Atoi(q.Get("year")); err == nil {
		f.Year = n
	}
	if n, err := strconv.Atoi(q.Get("month")); err == nil {
		f.Month = n
	}
	if t, err := time.Parse(dateLayout, q.Get("date_from")); err == nil {
		f.DateFrom = &t
	}
	if t, err := time.Parse(dateLayout, q.Get("date_to")); err == nil {
		f.DateTo = &t
	}
	return f
}

// MonthlySummary: GET /api/reports/monthly-summary
func (h *ReportHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.MonthlySummary()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

// SalesByProduct: GET /api/reports/sales-by-product
func (h *ReportHandler) SalesByProduct(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.SalesByProduct(reportFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, page.Data, listMeta(page))
}

// SalesByCustomer: GET /api/reports/sales-by-customer
func (h *ReportHandler) SalesByCustomer(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.SalesByCustomer(reportFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, page.Data, listMeta(page))
}

// SalesByProductMonthly: GET /api/reports/sales-by-product-monthly
func (h *ReportHandler) SalesByProductMonthly(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.SalesByProductMonthly(reportFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, page.Data, listMeta(page))
}
