package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWithinCreditLimit(t *testing.T) {
	limited := Customer{CreditLimit: decimal.NewNullDecimal(decimal.NewFromInt(1000))}
	unlimited := Customer{}

	cases := []struct {
		name     string
		customer Customer
		due      string
		want     bool
	}{
		{"under limit", limited, "999.99", true},
		{"exactly at limit", limited, "1000", true},
		{"over limit", limited, "1000.01", false},
		{"no limit set", unlimited, "999999", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.customer.WithinCreditLimit(decimal.RequireFromString(tc.due))
			if got != tc.want {
				t.Fatalf("WithinCreditLimit(%s) = %v, want %v", tc.due, got, tc.want)
			}
		})
	}
}

func TestHasCreditLimit(t *testing.T) {
	c := Customer{}
	if c.HasCreditLimit() {
		t.Fatal("zero customer should have no limit")
	}
	c.CreditLimit = decimal.NewNullDecimal(decimal.Zero)
	if !c.HasCreditLimit() {
		t.Fatal("zero-valued limit is still a limit")
	}
}

func TestComputeExtended(t *testing.T) {
	li := InvoiceLineItem{
		Quantity:  decimal.RequireFromString("2.5"),
		UnitPrice: decimal.RequireFromString("10.10"),
	}
	if got := li.ComputeExtended(); !got.Equal(decimal.RequireFromString("25.25")) {
		t.Fatalf("extended = %s, want 25.25", got)
	}
}

func TestInvoiceSubtotal(t *testing.T) {
	inv := Invoice{LineItems: []InvoiceLineItem{
		{ExtendedPrice: decimal.RequireFromString("100.50")},
		{ExtendedPrice: decimal.RequireFromString("49.50")},
	}}
	if got := inv.Subtotal(); !got.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("subtotal = %s, want 150", got)
	}
	empty := Invoice{}
	if !empty.Subtotal().IsZero() {
		t.Fatalf("empty subtotal = %s", empty.Subtotal())
	}
}
