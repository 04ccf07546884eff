package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a purchase order sent to a provider.
type Order struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Code         string          `gorm:"size:30;not null;index" json:"code"`
	ProviderId   int             `gorm:"index;not null" json:"providerId"`
	OrderDate    time.Time       `gorm:"not null;index" json:"orderDate"`
	ExpectedDate *time.Time      `gorm:"default:null" json:"expectedDate"`
	Estado       DocumentStatus  `gorm:"size:20;not null;default:'pendiente'" json:"estado"`
	Notes        string          `gorm:"type:text;not null" json:"notes"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Discount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Total        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Details      []OrderDetail   `gorm:"foreignKey:OrderId" json:"lineItems"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type OrderDetail struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   int             `gorm:"index;not null" json:"orderId"`
	ProductId int             `gorm:"index;not null" json:"productId"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

type OrderQuery struct {
	Estado     DocumentStatus
	ProviderId int
	PageRequest
}

func (s *GormStore) CountOrdersBetween(ctx context.Context, from time.Time, to time.Time) (int64, error) {
	return countBetween[Order](ctx, s.db, "order_date", from, to)
}

func (s *GormStore) CreateOrder(ctx context.Context, order *Order) error {
	return insertRow(ctx, s.db, order)
}

func (s *GormStore) CreateOrderDetails(ctx context.Context, details []OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&details).Error
	return utils.StoreError("create order details", err)
}

func (s *GormStore) GetOrder(ctx context.Context, id int) (*Order, error) {
	return fetchWithDetails[Order](ctx, s.db, id)
}

func (s *GormStore) UpdateOrder(ctx context.Context, id int, fields map[string]interface{}) error {
	return updateFields[Order](ctx, s.db, id, fields)
}

func (s *GormStore) DeleteOrderDetails(ctx context.Context, orderId int) error {
	err := s.db.WithContext(ctx).Where("order_id = ?", orderId).Delete(&OrderDetail{}).Error
	return utils.StoreError("delete order details", err)
}

func (s *GormStore) DeleteOrder(ctx context.Context, id int) error {
	return deleteWithDetails[Order, OrderDetail](ctx, s.db, id, "order_id")
}

func (s *GormStore) ListOrders(ctx context.Context, query OrderQuery) ([]*Order, int64, error) {
	dbCtx := s.db.WithContext(ctx).Model(&Order{})
	if query.Estado != "" {
		dbCtx = dbCtx.Where("estado = ?", query.Estado)
	}
	if query.ProviderId > 0 {
		dbCtx = dbCtx.Where("provider_id = ?", query.ProviderId)
	}
	dbCtx = dbCtx.Session(&gorm.Session{})
	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, utils.StoreError("count orders", err)
	}
	var results []*Order
	err := dbCtx.Scopes(query.PageRequest.Scope).
		Preload("Details", orderedDetails).
		Order("order_date DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, 0, utils.StoreError("list orders", err)
	}
	return results, total, nil
}
