package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product entity. UnitPrice is the current price; invoices copy it onto their
// line items at entry time rather than recomputing from the product later.
type Product struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	Code      string          `gorm:"size:40;not null;unique" json:"code"`
	Name      string          `gorm:"not null;index" json:"name"`
	UnitID    uint            `gorm:"not null" json:"units_id"`
	Unit      Unit            `gorm:"foreignKey:UnitID" json:"unit"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
