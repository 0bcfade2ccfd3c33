package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoicing models. The three header totals are derived at write time by the
// invoice service and persisted; line items are owned by their invoice and
// never exist on their own.
type Invoice struct {
	ID          uint              `gorm:"primaryKey" json:"-"`
	InvoiceNo   string            `gorm:"size:40;not null;unique" json:"invoice_no"`
	InvoiceDate time.Time         `gorm:"not null;index" json:"invoice_date"`
	CustomerID  uint              `gorm:"not null;index" json:"-"`
	Customer    Customer          `gorm:"foreignKey:CustomerID" json:"customer"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	VAT         decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"vat"`
	AmountDue   decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount_due"`
	LineItems   []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type InvoiceLineItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceID     uint            `gorm:"not null;index" json:"-"`
	ProductID     uint            `gorm:"not null" json:"-"`
	Product       Product         `gorm:"foreignKey:ProductID" json:"product"`
	Quantity      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	ExtendedPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"extended_price"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Subtotal sums the extended prices of the attached line items. The persisted
// TotalAmount is authoritative; this exists for display paths and tests.
func (inv *Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range inv.LineItems {
		sum = sum.Add(li.ExtendedPrice)
	}
	return sum
}

// ComputeExtended returns quantity × unit price for one line.
func (li *InvoiceLineItem) ComputeExtended() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}
