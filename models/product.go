package models

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Product struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Code        string          `gorm:"size:50;not null;index" json:"code"`
	Name        string          `gorm:"size:150;not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unitPrice"`
	Unit        string          `gorm:"size:20;not null" json:"unit"`
	Estado      *bool           `gorm:"not null;default:true" json:"estado"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewProduct struct {
	Code        string          `json:"code" binding:"required,max=50"`
	Name        string          `json:"name" binding:"required,max=150"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        string          `json:"unit" binding:"max=20"`
	Estado      *bool           `json:"estado"`
}

type ProductQuery struct {
	Search string
	PageRequest
}

const defaultProductUnit = "unidad"

func (input *NewProduct) validate() error {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	input.Unit = strings.TrimSpace(input.Unit)
	if input.Code == "" || input.Name == "" {
		return utils.NewValidationError("code and name are required")
	}
	if input.UnitPrice.IsNegative() {
		return utils.NewValidationError("unitPrice must not be negative")
	}
	if input.Unit == "" {
		input.Unit = defaultProductUnit
	}
	return nil
}

// unique code among products other than id
func (s *GormStore) validateProductCode(ctx context.Context, code string, id int) error {
	count, err := utils.ResourceCountWhere[Product](ctx, s.db, "code = ? AND id <> ?", code, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewConflictError("product code %s already exists", code)
	}
	return nil
}

func (s *GormStore) CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.validateProductCode(ctx, input.Code, 0); err != nil {
		return nil, err
	}
	product := Product{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		UnitPrice:   input.UnitPrice,
		Unit:        input.Unit,
		Estado:      utils.NewTrue(),
	}
	if input.Estado != nil {
		product.Estado = input.Estado
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, utils.StoreError("create product", err)
	}
	return &product, nil
}

func (s *GormStore) UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Product](ctx, s.db, id); err != nil {
		return nil, err
	}
	if err := s.validateProductCode(ctx, input.Code, id); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"code":        input.Code,
		"name":        input.Name,
		"description": input.Description,
		"unit_price":  input.UnitPrice,
		"unit":        input.Unit,
	}
	if input.Estado != nil {
		fields["estado"] = *input.Estado
	}
	if err := updateFields[Product](ctx, s.db, id, fields); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		config.LogError(config.RequestLogger(ctx), "product.go", "UpdateProduct", "RemoveRedisItem", id, err)
	}
	return utils.FetchModel[Product](ctx, s.db, id)
}

// GetProduct reads through the redis cache.
func (s *GormStore) GetProduct(ctx context.Context, id int) (*Product, error) {
	result, err := utils.RetrieveRedis[Product](id)
	if err != nil {
		config.LogError(config.RequestLogger(ctx), "product.go", "GetProduct", "RetrieveRedis", id, err)
		result = nil
	}
	if result != nil {
		return result, nil
	}
	result, err = utils.FetchModel[Product](ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[Product](result, id); err != nil {
		config.LogError(config.RequestLogger(ctx), "product.go", "GetProduct", "StoreRedis", id, err)
	}
	return result, nil
}

func (s *GormStore) ListProducts(ctx context.Context, query ProductQuery) ([]*Product, int64, error) {
	dbCtx := s.db.WithContext(ctx).Model(&Product{})
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		dbCtx = dbCtx.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}
	dbCtx = dbCtx.Session(&gorm.Session{})
	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, utils.StoreError("count products", err)
	}
	var results []*Product
	if err := dbCtx.Scopes(query.PageRequest.Scope).Order("id DESC").Find(&results).Error; err != nil {
		return nil, 0, utils.StoreError("list products", err)
	}
	return results, total, nil
}

// ProductInUse reports whether any quotation, order or consultation detail references the product.
func (s *GormStore) ProductInUse(ctx context.Context, id int) (bool, error) {
	checks := []func() (int64, error){
		func() (int64, error) { return utils.ResourceCountWhere[QuotationDetail](ctx, s.db, "product_id = ?", id) },
		func() (int64, error) { return utils.ResourceCountWhere[OrderDetail](ctx, s.db, "product_id = ?", id) },
		func() (int64, error) { return utils.ResourceCountWhere[ConsultationDetail](ctx, s.db, "product_id = ?", id) },
	}
	for _, check := range checks {
		count, err := check()
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// DeleteProduct refuses while the product is referenced by any detail row.
func (s *GormStore) DeleteProduct(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Product](ctx, s.db, id); err != nil {
		return err
	}
	inUse, err := s.ProductInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return utils.NewConflictError("product is used in quotations, orders or consultations")
	}
	if err := s.db.WithContext(ctx).Delete(&Product{}, id).Error; err != nil {
		return utils.StoreError("delete product", err)
	}
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		config.LogError(config.RequestLogger(ctx), "product.go", "DeleteProduct", "RemoveRedisItem", id, err)
	}
	return nil
}

// ImportProductsFromXlsx upserts products by code from the first sheet.
// Columns: code, name, description, unitPrice, unit. The first row is a header.
func (s *GormStore) ImportProductsFromXlsx(ctx context.Context, r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, utils.NewValidationError("file is not a valid xlsx workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, utils.NewValidationError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, utils.NewValidationError("sheet %s could not be read: %v", sheets[0], err)
	}

	imported := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cell := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if cell(0) == "" {
			continue
		}
		input := NewProduct{
			Code:        cell(0),
			Name:        cell(1),
			Description: cell(2),
			Unit:        cell(4),
		}
		if raw := cell(3); raw != "" {
			price, err := utils.ParseDecimal(raw)
			if err != nil {
				return imported, utils.NewValidationError("row %d: unitPrice %q is not a number", i+1, raw)
			}
			input.UnitPrice = price
		}

		var existing Product
		err := s.db.WithContext(ctx).Where("code = ?", input.Code).Take(&existing).Error
		switch {
		case err == nil:
			if _, err := s.UpdateProduct(ctx, existing.ID, &input); err != nil {
				return imported, fmt.Errorf("row %d: %w", i+1, err)
			}
		case isNotFound(err):
			if _, err := s.CreateProduct(ctx, &input); err != nil {
				return imported, fmt.Errorf("row %d: %w", i+1, err)
			}
		default:
			return imported, utils.StoreError("fetch product", err)
		}
		imported++
	}
	return imported, nil
}
