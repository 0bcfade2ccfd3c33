package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportService runs the sales rollups. All queries are read-only GROUP BY
// aggregations over invoices and line items; filters address products and
// customers by business code.
type ReportService struct {
	DB *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService { return &ReportService{DB: db} }

type ReportFilter struct {
	ProductCode  string
	CustomerCode string
	Year         int
	Month        int
	DateFrom     *time.Time
	DateTo       *time.Time
	ListParams
}

type ProductSales struct {
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	ValueSold    decimal.Decimal `json:"value_sold"`
}

type CustomerProductSales struct {
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	CustomerCode string          `json:"customer_code"`
	CustomerName string          `json:"customer_name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	ValueSold    decimal.Decimal `json:"value_sold"`
}

type MonthlyProductSales struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	ValueSold    decimal.Decimal `json:"value_sold"`
}

// MonthlySummary returns the latest 20 invoices for the dashboard widget.
func (s *ReportService) MonthlySummary() ([]InvoiceSummary, error) {
	var rows []InvoiceSummary
	err := s.DB.Table("invoices").
		Select("invoices.invoice_no, invoices.invoice_date, customers.name AS customer_name, invoices.amount_due").
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Order("invoices.invoice_date DESC").
		Limit(20).
		Scan(&rows).Error
	return rows, err
}

// lineItemBase builds the filtered join of line items, products and invoices.
// Rebuilt per use because gorm query builders accumulate state.
func (s *ReportService) lineItemBase(f ReportFilter) func() *gorm.DB {
	return func() *gorm.DB {
		q := s.DB.Table("invoice_line_items AS li").
			Joins("JOIN products p ON p.id = li.product_id").
			Joins("JOIN invoices i ON i.id = li.invoice_id")
		if f.ProductCode != "" {
			q = q.Where("p.code = ?", f.ProductCode)
		}
		if f.DateFrom != nil {
			q = q.Where("i.invoice_date >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			q = q.Where("i.invoice_date <= ?", *f.DateTo)
		}
		return q
	}
}

var productSalesSortColumns = map[string]string{
	"product_code":  "p.code",
	"product_name":  "p.name",
	"quantity_sold": "SUM(li.quantity)",
	"value_sold":    "SUM(li.extended_price)",
}

// SalesByProduct rolls quantity and value sold up per product.
func (s *ReportService) SalesByProduct(f ReportFilter) (Paged[ProductSales], error) {
	f.normalize("value_sold", "desc")
	base := s.lineItemBase(f)

	var total int64
	if err := base().Distinct("p.id").Count(&total).Error; err != nil {
		return Paged[ProductSales]{}, err
	}

	order := sortColumn(productSalesSortColumns, f.SortBy, "value_sold") + " " + sortDirection(f.SortDir)
	var rows []ProductSales
	err := base().
		Select("p.code AS product_code, p.name AS product_name, SUM(li.quantity) AS quantity_sold, SUM(li.extended_price) AS value_sold").
		Group("p.id, p.code, p.name").
		Order(order).
		Limit(f.Limit).Offset(f.offset()).
		Scan(&rows).Error
	if err != nil {
		return Paged[ProductSales]{}, err
	}
	return newPaged(rows, total, f.ListParams), nil
}

var customerSalesSortColumns = map[string]string{
	"product_code":  "p.code",
	"product_name":  "p.name",
	"customer_code": "c.code",
	"customer_name": "c.name",
	"quantity_sold": "SUM(li.quantity)",
	"value_sold":    "SUM(li.extended_price)",
}

// SalesByCustomer rolls sales up per product and customer pair.
func (s *ReportService) SalesByCustomer(f ReportFilter) (Paged[CustomerProductSales], error) {
	f.normalize("product_code", "asc")
	base := func() *gorm.DB {
		q := s.lineItemBase(f)().
			Joins("JOIN customers c ON c.id = i.customer_id")
		if f.CustomerCode != "" {
			q = q.Where("c.code = ?", f.CustomerCode)
		}
		return q
	}

	var total int64
	sub := base().Select("1").Group("p.id, c.id")
	if err := s.DB.Table("(?) AS sub", sub).Count(&total).Error; err != nil {
		return Paged[CustomerProductSales]{}, err
	}

	order := sortColumn(customerSalesSortColumns, f.SortBy, "product_code") + " " + sortDirection(f.SortDir)
	var rows []CustomerProductSales
	err := base().
		Select("p.code AS product_code, p.name AS product_name, c.code AS customer_code, c.name AS customer_name, SUM(li.quantity) AS quantity_sold, SUM(li.extended_price) AS value_sold").
		Group("p.id, p.code, p.name, c.id, c.code, c.name").
		Order(order).
		Limit(f.Limit).Offset(f.offset()).
		Scan(&rows).Error
	if err != nil {
		return Paged[CustomerProductSales]{}, err
	}
	return newPaged(rows, total, f.ListParams), nil
}

var monthlySalesSortColumns = map[string]string{
	"year":          "year",
	"month":         "month",
	"product_code":  "p.code",
	"product_name":  "p.name",
	"quantity_sold": "SUM(li.quantity)",
	"value_sold":    "SUM(li.extended_price)",
}

// SalesByProductMonthly buckets product sales per calendar month.
func (s *ReportService) SalesByProductMonthly(f ReportFilter) (Paged[MonthlyProductSales], error) {
	f.normalize("year", "desc")
	yearExpr, monthExpr := s.dateParts()
	base := func() *gorm.DB {
		q := s.lineItemBase(f)()
		if f.Year != 0 {
			q = q.Where(yearExpr+" = ?", f.Year)
		}
		if f.Month != 0 {
			q = q.Where(monthExpr+" = ?", f.Month)
		}
		return q
	}

	var total int64
	sub := base().Select("1").Group(yearExpr + ", " + monthExpr + ", p.id")
	if err := s.DB.Table("(?) AS sub", sub).Count(&total).Error; err != nil {
		return Paged[MonthlyProductSales]{}, err
	}

	order := sortColumn(monthlySalesSortColumns, f.SortBy, "year") + " " + sortDirection(f.SortDir) + monthlySecondaryOrder(f)
	var rows []MonthlyProductSales
	err := base().
		Select(yearExpr+" AS year, "+monthExpr+" AS month, p.code AS product_code, p.name AS product_name, SUM(li.quantity) AS quantity_sold, SUM(li.extended_price) AS value_sold").
		Group(yearExpr + ", " + monthExpr + ", p.id, p.code, p.name").
		Order(order).
		Limit(f.Limit).Offset(f.offset()).
		Scan(&rows).Error
	if err != nil {
		return Paged[MonthlyProductSales]{}, err
	}
	return newPaged(rows, total, f.ListParams), nil
}

// monthlySecondaryOrder keeps year/month sorts stable: sorting on one orders
// the other the same way, and any other sort key falls back on newest-first.
func monthlySecondaryOrder(f ReportFilter) string {
	dir := sortDirection(f.SortDir)
	switch f.SortBy {
	case "year":
		return ", month " + dir
	case "month":
		return ", year " + dir
	default:
		return ", year DESC, month DESC"
	}
}

// dateParts returns the SQL for extracting year and month from the invoice
// date in the connected dialect.
func (s *ReportService) dateParts() (yearExpr, monthExpr string) {
	if s.DB.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%Y', i.invoice_date) AS INTEGER)", "CAST(strftime('%m', i.invoice_date) AS INTEGER)"
	}
	return "EXTRACT(year FROM i.invoice_date)", "EXTRACT(month FROM i.invoice_date)"
}
