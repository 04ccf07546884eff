package utils

import (
	"github.com/shopspring/decimal"
)

// LineSubtotal is quantity × unit price, unrounded.
func LineSubtotal(quantity decimal.Decimal, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// CalculateTaxAmount applies rate (a fraction, 0.18 for 18%) to amount.
func CalculateTaxAmount(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// CalculateTotal is subtotal + tax - discount.
func CalculateTotal(subtotal decimal.Decimal, tax decimal.Decimal, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax).Sub(discount)
}
