package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/sales-invoices/internal/models"
	"github.com/diewo77/sales-invoices/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerService owns customer CRUD and the customer lookup consumed by the
// invoice service. The store handle is injected; lifecycle belongs to main.
type CustomerService struct {
	DB *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService { return &CustomerService{DB: db} }

// CustomerInput is the write payload for create/update. A blank code means
// auto-assign on create and keep-existing on update.
type CustomerInput struct {
	Code         string
	Name         string
	AddressLine1 string
	AddressLine2 string
	CountryID    *uint
	CreditLimit  decimal.NullDecimal
}

var customerSortColumns = map[string]string{
	"code":          "code",
	"name":          "name",
	"address_line1": "address_line1",
	"credit_limit":  "credit_limit",
}

// List returns a page of customers matching the search term across code, name
// and first address line.
func (s *CustomerService) List(p ListParams) (Paged[models.Customer], error) {
	p.normalize("name", "asc")
	dbq := s.DB.Model(&models.Customer{})
	if q := strings.TrimSpace(p.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(code) LIKE ? OR lower(name) LIKE ? OR lower(address_line1) LIKE ?", like, like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return Paged[models.Customer]{}, err
	}
	order := sortColumn(customerSortColumns, p.SortBy, "name") + " " + sortDirection(p.SortDir)
	var customers []models.Customer
	if err := dbq.Preload("Country").Order(order).Limit(p.Limit).Offset(p.offset()).Find(&customers).Error; err != nil {
		return Paged[models.Customer]{}, err
	}
	return newPaged(customers, total, p), nil
}

func (s *CustomerService) GetByCode(code string) (*models.Customer, error) {
	var c models.Customer
	err := s.DB.Preload("Country").Where("code = ?", strings.TrimSpace(code)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("customer", code)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a customer. A blank code is derived from the next identity
// value ("C%03d"); assignment and insert share one transaction so the code
// cannot collide with a concurrent create.
func (s *CustomerService) Create(in CustomerInput) (*models.Customer, error) {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if !v.Empty() {
		return nil, invalid(v)
	}
	c := models.Customer{
		Code:         strings.TrimSpace(in.Code),
		Name:         in.Name,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		CountryID:    in.CountryID,
		CreditLimit:  in.CreditLimit,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if c.Code == "" {
			next, err := nextIdentity(tx, "customers")
			if err != nil {
				return err
			}
			c.Code = fmt.Sprintf("C%03d", next)
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateByCode rewrites the customer fields. A blank code in the body keeps
// the stored code, since the code is a uniqueness-bearing business key.
func (s *CustomerService) UpdateByCode(code string, in CustomerInput) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var c models.Customer
		if err := tx.Where("code = ?", strings.TrimSpace(code)).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("customer", code)
			}
			return err
		}
		newCode := strings.TrimSpace(in.Code)
		if newCode == "" {
			newCode = c.Code
		}
		updates := map[string]any{
			"code":          newCode,
			"name":          in.Name,
			"address_line1": in.AddressLine1,
			"address_line2": in.AddressLine2,
			"country_id":    in.CountryID,
			"credit_limit":  in.CreditLimit,
		}
		return tx.Model(&c).Updates(updates).Error
	})
}

// DeleteByCode removes a customer. With force, its invoices and their line
// items go too; without force a customer still referenced by invoices is
// rejected with a business message.
func (s *CustomerService) DeleteByCode(code string, force bool) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var c models.Customer
		if err := tx.Where("code = ?", strings.TrimSpace(code)).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("customer", code)
			}
			return err
		}
		if force {
			var invoiceIDs []uint
			if err := tx.Model(&models.Invoice{}).Where("customer_id = ?", c.ID).Pluck("id", &invoiceIDs).Error; err != nil {
				return err
			}
			if len(invoiceIDs) > 0 {
				if err := tx.Where("invoice_id IN ?", invoiceIDs).Delete(&models.InvoiceLineItem{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", invoiceIDs).Delete(&models.Invoice{}).Error; err != nil {
					return err
				}
			}
		}
		return tx.Delete(&c).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &RuleError{Msg: "cannot delete customer because they have existing invoices"}
	}
	return err
}

// Lookup resolves a business code to identity and credit limit on the given
// handle. Invoice transactions pass their tx so the credit check reads a
// consistent value.
func (s *CustomerService) Lookup(tx *gorm.DB, code string) (*models.Customer, error) {
	var c models.Customer
	err := tx.Select("id", "code", "name", "credit_limit").Where("code = ?", strings.TrimSpace(code)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("customer", code)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerService) ListCountries() ([]models.Country, error) {
	var countries []models.Country
	if err := s.DB.Order("name").Find(&countries).Error; err != nil {
		return nil, err
	}
	return countries, nil
}
