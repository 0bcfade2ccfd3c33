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

// ProductService owns product CRUD and the product lookup consumed by the
// invoice service.
type ProductService struct {
	DB *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService { return &ProductService{DB: db} }

type ProductInput struct {
	Code      string
	Name      string
	UnitID    uint
	UnitPrice decimal.Decimal
}

var productSortColumns = map[string]string{
	"code":       "products.code",
	"name":       "products.name",
	"units_code": "units.code",
	"unit_price": "products.unit_price",
}

// List returns a page of products matching the search term across product
// code, name and unit code.
func (s *ProductService) List(p ListParams) (Paged[models.Product], error) {
	p.normalize("code", "asc")
	dbq := s.DB.Model(&models.Product{}).
		Joins("JOIN units ON units.id = products.unit_id")
	if q := strings.TrimSpace(p.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(products.code) LIKE ? OR lower(products.name) LIKE ? OR lower(units.code) LIKE ?", like, like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return Paged[models.Product]{}, err
	}
	order := sortColumn(productSortColumns, p.SortBy, "code") + " " + sortDirection(p.SortDir)
	var products []models.Product
	if err := dbq.Preload("Unit").Order(order).Limit(p.Limit).Offset(p.offset()).Find(&products).Error; err != nil {
		return Paged[models.Product]{}, err
	}
	return newPaged(products, total, p), nil
}

func (s *ProductService) GetByCode(code string) (*models.Product, error) {
	var prod models.Product
	err := s.DB.Preload("Unit").Where("code = ?", strings.TrimSpace(code)).First(&prod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("product", code)
	}
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

// Create inserts a product; a blank code is derived from the next identity
// value ("P%03d") inside the insert transaction.
func (s *ProductService) Create(in ProductInput) (*models.Product, error) {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if in.UnitID == 0 {
		v["units_id"] = "required"
	}
	if in.UnitPrice.IsNegative() {
		v["unit_price"] = "must_not_be_negative"
	}
	if !v.Empty() {
		return nil, invalid(v)
	}
	prod := models.Product{
		Code:      strings.TrimSpace(in.Code),
		Name:      in.Name,
		UnitID:    in.UnitID,
		UnitPrice: in.UnitPrice,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if prod.Code == "" {
			next, err := nextIdentity(tx, "products")
			if err != nil {
				return err
			}
			prod.Code = fmt.Sprintf("P%03d", next)
		}
		return tx.Create(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

// UpdateByCode rewrites the product fields; a blank code in the body keeps the
// stored one.
func (s *ProductService) UpdateByCode(code string, in ProductInput) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := tx.Where("code = ?", strings.TrimSpace(code)).First(&prod).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("product", code)
			}
			return err
		}
		newCode := strings.TrimSpace(in.Code)
		if newCode == "" {
			newCode = prod.Code
		}
		updates := map[string]any{
			"code":       newCode,
			"name":       in.Name,
			"unit_id":    in.UnitID,
			"unit_price": in.UnitPrice,
		}
		return tx.Model(&prod).Updates(updates).Error
	})
}

// DeleteByCode removes a product. With force, every invoice containing the
// product is deleted along with all of that invoice's line items; without
// force a product referenced by line items is rejected.
func (s *ProductService) DeleteByCode(code string, force bool) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := tx.Where("code = ?", strings.TrimSpace(code)).First(&prod).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("product", code)
			}
			return err
		}
		if force {
			var invoiceIDs []uint
			if err := tx.Model(&models.InvoiceLineItem{}).Distinct("invoice_id").Where("product_id = ?", prod.ID).Pluck("invoice_id", &invoiceIDs).Error; err != nil {
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
		return tx.Delete(&prod).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &RuleError{Msg: "cannot delete product because it is used in invoices"}
	}
	return err
}

// Lookup resolves a business code to identity and current unit price on the
// given handle, so invoice transactions see a consistent price.
func (s *ProductService) Lookup(tx *gorm.DB, code string) (*models.Product, error) {
	var prod models.Product
	err := tx.Select("id", "code", "unit_price").Where("code = ?", strings.TrimSpace(code)).First(&prod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("product", code)
	}
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (s *ProductService) ListUnits() ([]models.Unit, error) {
	var units []models.Unit
	if err := s.DB.Order("name").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}
