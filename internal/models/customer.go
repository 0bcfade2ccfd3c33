package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer entity. Code is the business key used at all external interfaces;
// the numeric ID never leaves the API.
type Customer struct {
	ID           uint                `gorm:"primaryKey" json:"-"`
	Code         string              `gorm:"size:40;not null;unique" json:"code"`
	Name         string              `gorm:"not null;index" json:"name"`
	AddressLine1 string              `json:"address_line1"`
	AddressLine2 string              `json:"address_line2"`
	CountryID    *uint               `json:"country_id"`
	Country      *Country            `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	CreditLimit  decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"credit_limit"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// HasCreditLimit reports whether a ceiling is set; a null limit means unconstrained.
func (c *Customer) HasCreditLimit() bool { return c.CreditLimit.Valid }

// WithinCreditLimit checks an amount due against the limit. Always true when no
// limit is set.
func (c *Customer) WithinCreditLimit(amountDue decimal.Decimal) bool {
	if !c.CreditLimit.Valid {
		return true
	}
	return amountDue.LessThanOrEqual(c.CreditLimit.Decimal)
}
