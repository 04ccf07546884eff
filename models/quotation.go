package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Quotation struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Code         string          `gorm:"size:30;not null;index" json:"code"`
	ClientId     int             `gorm:"index;not null" json:"clientId"`
	EmissionDate time.Time       `gorm:"not null;index" json:"emissionDate"`
	DueDate      *time.Time      `gorm:"default:null" json:"dueDate"`
	Estado       DocumentStatus  `gorm:"size:20;not null;default:'pendiente'" json:"estado"`
	Notes        string          `gorm:"type:text;not null" json:"notes"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Discount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Total        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	// total = subtotal + tax - discount
	Details   []QuotationDetail `gorm:"foreignKey:QuotationId" json:"lineItems"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

type QuotationDetail struct {
	ID          int             `gorm:"primary_key" json:"id"`
	QuotationId int             `gorm:"index;not null" json:"quotationId"`
	ProductId   int             `gorm:"index;not null" json:"productId"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	// quantity * unit_price
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type QuotationQuery struct {
	Estado   DocumentStatus
	ClientId int
	From     *time.Time
	To       *time.Time
	PageRequest
}

func (s *GormStore) CountQuotationsBetween(ctx context.Context, from time.Time, to time.Time) (int64, error) {
	return countBetween[Quotation](ctx, s.db, "emission_date", from, to)
}

func (s *GormStore) CreateQuotation(ctx context.Context, quotation *Quotation) error {
	return insertRow(ctx, s.db, quotation)
}

func (s *GormStore) CreateQuotationDetails(ctx context.Context, details []QuotationDetail) error {
	if len(details) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&details).Error
	return utils.StoreError("create quotation details", err)
}

func (s *GormStore) GetQuotation(ctx context.Context, id int) (*Quotation, error) {
	return fetchWithDetails[Quotation](ctx, s.db, id)
}

func (s *GormStore) UpdateQuotation(ctx context.Context, id int, fields map[string]interface{}) error {
	return updateFields[Quotation](ctx, s.db, id, fields)
}

func (s *GormStore) DeleteQuotationDetails(ctx context.Context, quotationId int) error {
	err := s.db.WithContext(ctx).Where("quotation_id = ?", quotationId).Delete(&QuotationDetail{}).Error
	return utils.StoreError("delete quotation details", err)
}

func (s *GormStore) DeleteQuotation(ctx context.Context, id int) error {
	return deleteWithDetails[Quotation, QuotationDetail](ctx, s.db, id, "quotation_id")
}

func (s *GormStore) ListQuotations(ctx context.Context, query QuotationQuery) ([]*Quotation, int64, error) {
	dbCtx := s.db.WithContext(ctx).Model(&Quotation{})
	if query.Estado != "" {
		dbCtx = dbCtx.Where("estado = ?", query.Estado)
	}
	if query.ClientId > 0 {
		dbCtx = dbCtx.Where("client_id = ?", query.ClientId)
	}
	if query.From != nil {
		dbCtx = dbCtx.Where("emission_date >= ?", *query.From)
	}
	if query.To != nil {
		dbCtx = dbCtx.Where("emission_date < ?", *query.To)
	}
	dbCtx = dbCtx.Session(&gorm.Session{})
	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, utils.StoreError("count quotations", err)
	}
	var results []*Quotation
	err := dbCtx.Scopes(query.PageRequest.Scope).
		Preload("Details", orderedDetails).
		Order("emission_date DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, 0, utils.StoreError("list quotations", err)
	}
	return results, total, nil
}
