package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appdb "github.com/diewo77/sales-invoices/internal/db"
	"github.com/diewo77/sales-invoices/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := appdb.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type fixtures struct {
	Country  models.Country
	Unit     models.Unit
	Customer models.Customer // C001, credit limit 10000
	NoLimit  models.Customer // C002, no credit limit
	Widget   models.Product  // P001, 100.00
	Gadget   models.Product  // P002, 50.00
}

func seedFixtures(t *testing.T, conn *gorm.DB) fixtures {
	t.Helper()
	f := fixtures{}
	f.Country = models.Country{Code: "TH", Name: "Thailand"}
	if err := conn.Create(&f.Country).Error; err != nil {
		t.Fatalf("country: %v", err)
	}
	f.Unit = models.Unit{Code: "EA", Name: "Each"}
	if err := conn.Create(&f.Unit).Error; err != nil {
		t.Fatalf("unit: %v", err)
	}
	f.Customer = models.Customer{
		Code:         "C001",
		Name:         "Acme Trading",
		AddressLine1: "1 Main Road",
		CountryID:    &f.Country.ID,
		CreditLimit:  decimal.NewNullDecimal(decimal.NewFromInt(10000)),
	}
	if err := conn.Create(&f.Customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	f.NoLimit = models.Customer{Code: "C002", Name: "Open Books Ltd"}
	if err := conn.Create(&f.NoLimit).Error; err != nil {
		t.Fatalf("customer 2: %v", err)
	}
	f.Widget = models.Product{Code: "P001", Name: "Widget", UnitID: f.Unit.ID, UnitPrice: decimal.NewFromInt(100)}
	if err := conn.Create(&f.Widget).Error; err != nil {
		t.Fatalf("product 1: %v", err)
	}
	f.Gadget = models.Product{Code: "P002", Name: "Gadget", UnitID: f.Unit.ID, UnitPrice: decimal.NewFromInt(50)}
	if err := conn.Create(&f.Gadget).Error; err != nil {
		t.Fatalf("product 2: %v", err)
	}
	return f
}

func newInvoiceService(conn *gorm.DB) *InvoiceService {
	customers := NewCustomerService(conn)
	products := NewProductService(conn)
	return NewInvoiceService(conn, customers, products)
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
