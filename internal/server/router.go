package server

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/sales-invoices/internal/handlers"
	"github.com/diewo77/sales-invoices/internal/httpx"
	"github.com/diewo77/sales-invoices/internal/middleware"
	"github.com/diewo77/sales-invoices/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, corsOrigin string) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check (SELECT 1)
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "DEGRADED", "database unreachable", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	customerSvc := services.NewCustomerService(db)
	productSvc := services.NewProductService(db)
	invoiceSvc := services.NewInvoiceService(db, customerSvc, productSvc)
	reportSvc := services.NewReportService(db)

	ch := handlers.NewCustomerHandler(customerSvc)
	mux.HandleFunc("GET /api/customers", ch.List)
	mux.HandleFunc("POST /api/customers", ch.Create)
	mux.HandleFunc("GET /api/customers/countries", ch.Countries)
	mux.HandleFunc("GET /api/customers/{code}", ch.Get)
	mux.HandleFunc("PUT /api/customers/{code}", ch.Update)
	mux.HandleFunc("DELETE /api/customers/{code}", ch.Delete)

	ph := handlers.NewProductHandler(productSvc)
	mux.HandleFunc("GET /api/products", ph.List)
	mux.HandleFunc("POST /api/products", ph.Create)
	mux.HandleFunc("GET /api/products/units", ph.Units)
	mux.HandleFunc("GET /api/products/{code}", ph.Get)
	mux.HandleFunc("PUT /api/products/{code}", ph.Update)
	mux.HandleFunc("DELETE /api/products/{code}", ph.Delete)

	ih := handlers.NewInvoiceHandler(invoiceSvc)
	mux.HandleFunc("GET /api/invoices", ih.List)
	mux.HandleFunc("POST /api/invoices", ih.Create)
	mux.HandleFunc("GET /api/invoices/{key}", ih.Get)
	mux.HandleFunc("PUT /api/invoices/{key}", ih.Update)
	mux.HandleFunc("DELETE /api/invoices/{key}", ih.Delete)

	rh := handlers.NewReportHandler(reportSvc)
	mux.HandleFunc("GET /api/reports/monthly-summary", rh.MonthlySummary)
	mux.HandleFunc("GET /api/reports/sales-by-product", rh.SalesByProduct)
	mux.HandleFunc("GET /api/reports/sales-by-customer", rh.SalesByCustomer)
	mux.HandleFunc("GET /api/reports/sales-by-product-monthly", rh.SalesByProductMonthly)

	cors := middleware.CORS(corsOrigin)
	return cors(middleware.Recover(middleware.Logging(mux)))
}
