package models

import (
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
)

// LineItemInput is one requested detail line.
type LineItemInput struct {
	ProductId int             `json:"productId" binding:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// ValidateLineItems enforces quantity > 0 and unitPrice >= 0 on every line.
func ValidateLineItems(items []LineItemInput) error {
	for i, item := range items {
		if item.ProductId <= 0 {
			return utils.NewValidationError("lineItems[%d].productId is required", i)
		}
		if !item.Quantity.IsPositive() {
			return utils.NewValidationError("lineItems[%d].quantity must be greater than 0", i)
		}
		if item.UnitPrice.IsNegative() {
			return utils.NewValidationError("lineItems[%d].unitPrice must not be negative", i)
		}
	}
	return nil
}
