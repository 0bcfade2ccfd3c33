package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/sales-invoices/internal/models"
	"github.com/diewo77/sales-invoices/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceService creates, updates and deletes an invoice header together with
// its line items as one atomic, validated unit. Customer and product codes are
// resolved on the transaction handle so the credit check and price snapshot
// read consistent values, and any failure rolls the whole write back.
type InvoiceService struct {
	DB        *gorm.DB
	Customers *CustomerService
	Products  *ProductService
}

func NewInvoiceService(db *gorm.DB, customers *CustomerService, products *ProductService) *InvoiceService {
	return &InvoiceService{DB: db, Customers: customers, Products: products}
}

// InvoiceInput is the write payload for create/update. A blank InvoiceNo means
// auto-assign on create and keep-existing on update.
type InvoiceInput struct {
	InvoiceNo    string
	CustomerCode string
	InvoiceDate  time.Time
	VATRate      decimal.Decimal
	LineItems    []LineItemInput
}

// LineItemInput carries an ID only when updating an existing row; rows without
// one are inserted fresh. A nil UnitPrice means "copy the product's current
// price onto the line".
type LineItemInput struct {
	ID          uint
	ProductCode string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal
}

func (in *InvoiceInput) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("customer_code", in.CustomerCode, v)
	if in.InvoiceDate.IsZero() {
		v["invoice_date"] = "required"
	}
	validation.RangeDecimal("vat_rate", in.VATRate, decimal.Zero, decimal.NewFromInt(1), v)
	if len(in.LineItems) == 0 {
		v["line_items"] = "min_one_required"
	}
	for i, li := range in.LineItems {
		field := fmt.Sprintf("line_items[%d]", i)
		validation.Required(field+".product_code", li.ProductCode, v)
		validation.PositiveDecimal(field+".quantity", li.Quantity, v)
		if li.UnitPrice != nil && li.UnitPrice.IsNegative() {
			v[field+".unit_price"] = "must_not_be_negative"
		}
	}
	return v
}

// enrich resolves each line's product and computes its extended price. The
// returned rows carry the submitted ID (zero for new rows) for reconciliation.
func (s *InvoiceService) enrich(tx *gorm.DB, lines []LineItemInput) ([]models.InvoiceLineItem, decimal.Decimal, error) {
	rows := make([]models.InvoiceLineItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, li := range lines {
		prod, err := s.Products.Lookup(tx, li.ProductCode)
		if err != nil {
			return nil, decimal.Zero, err
		}
		unitPrice := prod.UnitPrice
		if li.UnitPrice != nil {
			unitPrice = *li.UnitPrice
		}
		row := models.InvoiceLineItem{
			ID:        li.ID,
			ProductID: prod.ID,
			Quantity:  li.Quantity,
			UnitPrice: unitPrice,
		}
		row.ExtendedPrice = row.ComputeExtended().Round(2)
		subtotal = subtotal.Add(row.ExtendedPrice)
		rows = append(rows, row)
	}
	return rows, subtotal, nil
}

// checkCreditLimit aggregates VAT and amount due and enforces the customer's
// credit limit before any write.
func checkCreditLimit(cust *models.Customer, subtotal, vatRate decimal.Decimal) (vat, amountDue decimal.Decimal, err error) {
	vat = subtotal.Mul(vatRate).Round(2)
	amountDue = subtotal.Add(vat)
	if !cust.WithinCreditLimit(amountDue) {
		return vat, amountDue, &RuleError{
			Msg: fmt.Sprintf("amount due (%s) exceeds customer credit limit (%s)", amountDue, cust.CreditLimit.Decimal),
		}
	}
	return vat, amountDue, nil
}

// Create validates, resolves, aggregates and persists a new invoice, returning
// the finalized invoice number. All resolution and writes share one
// transaction; no partial invoice is ever visible.
func (s *InvoiceService) Create(in InvoiceInput) (string, error) {
	if v := in.validate(); !v.Empty() {
		return "", invalid(v)
	}
	var invoiceNo string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		cust, err := s.Customers.Lookup(tx, in.CustomerCode)
		if err != nil {
			return err
		}
		rows, subtotal, err := s.enrich(tx, in.LineItems)
		if err != nil {
			return err
		}
		vat, amountDue, err := checkCreditLimit(cust, subtotal, in.VATRate)
		if err != nil {
			return err
		}
		invoiceNo = strings.TrimSpace(in.InvoiceNo)
		if invoiceNo == "" {
			next, err := nextIdentity(tx, "invoices")
			if err != nil {
				return err
			}
			invoiceNo = fmt.Sprintf("INV-%03d", next)
		}
		inv := models.Invoice{
			InvoiceNo:   invoiceNo,
			InvoiceDate: in.InvoiceDate,
			CustomerID:  cust.ID,
			TotalAmount: subtotal,
			VAT:         vat,
			AmountDue:   amountDue,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ID = 0 // ids are never honored on create
			rows[i].InvoiceID = inv.ID
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return "", err
	}
	return invoiceNo, nil
}

// Update replaces the header fields and reconciles the stored line items
// against the submitted set: rows resubmitted with their id are updated in
// place, rows whose id is omitted are deleted, id-less rows are inserted.
func (s *InvoiceService) Update(key string, in InvoiceInput) (string, error) {
	if v := in.validate(); !v.Empty() {
		return "", invalid(v)
	}
	var invoiceNo string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		inv, err := resolveInvoice(tx, key)
		if err != nil {
			return err
		}
		cust, err := s.Customers.Lookup(tx, in.CustomerCode)
		if err != nil {
			return err
		}
		rows, subtotal, err := s.enrich(tx, in.LineItems)
		if err != nil {
			return err
		}
		vat, amountDue, err := checkCreditLimit(cust, subtotal, in.VATRate)
		if err != nil {
			return err
		}
		// Blank number keeps the stored one: the number is a
		// uniqueness-bearing business key and must never be cleared.
		invoiceNo = strings.TrimSpace(in.InvoiceNo)
		if invoiceNo == "" {
			invoiceNo = inv.InvoiceNo
		}
		header := map[string]any{
			"invoice_no":   invoiceNo,
			"invoice_date": in.InvoiceDate,
			"customer_id":  cust.ID,
			"total_amount": subtotal,
			"vat":          vat,
			"amount_due":   amountDue,
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(header).Error; err != nil {
			return err
		}
		return reconcileLineItems(tx, inv.ID, rows)
	})
	if err != nil {
		return "", err
	}
	return invoiceNo, nil
}

// reconcileLineItems diffs the submitted rows against storage by id: kept ids
// are updated preserving the row identity, stored rows outside the kept set
// are deleted, rows without an id are inserted with a fresh identity.
func reconcileLineItems(tx *gorm.DB, invoiceID uint, rows []models.InvoiceLineItem) error {
	kept := make([]uint, 0, len(rows))
	for _, row := range rows {
		if row.ID != 0 {
			kept = append(kept, row.ID)
		}
	}
	del := tx.Where("invoice_id = ?", invoiceID)
	if len(kept) > 0 {
		del = del.Where("id NOT IN ?", kept)
	}
	if err := del.Delete(&models.InvoiceLineItem{}).Error; err != nil {
		return err
	}
	for i := range rows {
		row := &rows[i]
		if row.ID != 0 {
			res := tx.Model(&models.InvoiceLineItem{}).
				Where("id = ? AND invoice_id = ?", row.ID, invoiceID).
				Updates(map[string]any{
					"product_id":     row.ProductID,
					"quantity":       row.Quantity,
					"unit_price":     row.UnitPrice,
					"extended_price": row.ExtendedPrice,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return notFound("line item", fmt.Sprintf("%d", row.ID))
			}
			continue
		}
		row.InvoiceID = invoiceID
		if err := tx.Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the invoice and all its line items. A missing key is a no-op
// success.
func (s *InvoiceService) Delete(key string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		inv, err := resolveInvoice(tx, key)
		if err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, inv.ID).Error
	})
	if IsNotFound(err) {
		return nil
	}
	return err
}

// Get loads the full invoice: header with customer and country, line items in
// insertion order with product and unit.
func (s *InvoiceService) Get(key string) (*models.Invoice, error) {
	var head models.Invoice
	ref, err := resolveInvoice(s.DB, key)
	if err != nil {
		return nil, err
	}
	err = s.DB.
		Preload("Customer.Country").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("LineItems.Product.Unit").
		First(&head, ref.ID).Error
	if err != nil {
		return nil, err
	}
	return &head, nil
}

// resolveInvoice looks an invoice up by business number first, falling back to
// the internal id when the key is numeric.
func resolveInvoice(tx *gorm.DB, key string) (*models.Invoice, error) {
	key = strings.TrimSpace(key)
	var inv models.Invoice
	err := tx.Select("id", "invoice_no").Where("invoice_no = ?", key).First(&inv).Error
	if err == nil {
		return &inv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if isDigits(key) {
		err = tx.Select("id", "invoice_no").Where("id = ?", key).First(&inv).Error
		if err == nil {
			return &inv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, notFound("invoice", key)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// InvoiceSummary is one row of the invoice list: the header totals plus the
// customer display name.
type InvoiceSummary struct {
	InvoiceNo    string          `json:"invoice_no"`
	InvoiceDate  time.Time       `json:"invoice_date"`
	CustomerName string          `json:"customer_name"`
	AmountDue    decimal.Decimal `json:"amount_due"`
}

var invoiceSortColumns = map[string]string{
	"invoice_no":    "invoices.invoice_no",
	"customer_name": "customers.name",
	"invoice_date":  "invoices.invoice_date",
	"amount_due":    "invoices.amount_due",
}

// List returns a page of invoice summaries matching the search term across
// invoice number and customer name.
func (s *InvoiceService) List(p ListParams) (Paged[InvoiceSummary], error) {
	p.normalize("invoice_date", "desc")
	dbq := s.DB.Model(&models.Invoice{}).
		Joins("JOIN customers ON customers.id = invoices.customer_id")
	if q := strings.TrimSpace(p.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(invoices.invoice_no) LIKE ? OR lower(customers.name) LIKE ?", like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return Paged[InvoiceSummary]{}, err
	}
	order := sortColumn(invoiceSortColumns, p.SortBy, "invoice_date") + " " + sortDirection(p.SortDir) + ", invoices.id DESC"
	var summaries []InvoiceSummary
	err := dbq.
		Select("invoices.invoice_no, invoices.invoice_date, customers.name AS customer_name, invoices.amount_due").
		Order(order).Limit(p.Limit).Offset(p.offset()).
		Scan(&summaries).Error
	if err != nil {
		return Paged[InvoiceSummary]{}, err
	}
	return newPaged(summaries, total, p), nil
}
