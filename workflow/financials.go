package workflow

import (
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
)

// Financials are the aggregate money fields of a dependent record.
// Total is always Subtotal + Tax - Discount, computed without rounding.
type Financials struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeFinancials sums quantity x unitPrice over lines. A nil tax is derived
// as subtotal x rate; a nil discount is zero.
func ComputeFinancials(lines []models.LineItemInput, tax *decimal.Decimal, discount *decimal.Decimal, rate decimal.Decimal) Financials {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(utils.LineSubtotal(line.Quantity, line.UnitPrice))
	}
	f := Financials{
		Subtotal: subtotal,
		Discount: decimal.Zero,
	}
	if tax != nil {
		f.Tax = *tax
	} else {
		f.Tax = utils.CalculateTaxAmount(subtotal, rate)
	}
	if discount != nil {
		f.Discount = *discount
	}
	f.Total = utils.CalculateTotal(f.Subtotal, f.Tax, f.Discount)
	return f
}

func (f Financials) fields() map[string]interface{} {
	return map[string]interface{}{
		"subtotal": f.Subtotal,
		"tax":      f.Tax,
		"discount": f.Discount,
		"total":    f.Total,
	}
}

func quotationLineInputs(details []models.QuotationDetail) []models.LineItemInput {
	lines := make([]models.LineItemInput, 0, len(details))
	for _, d := range details {
		lines = append(lines, models.LineItemInput{ProductId: d.ProductId, Quantity: d.Quantity, UnitPrice: d.UnitPrice})
	}
	return lines
}

func orderLineInputs(details []models.OrderDetail) []models.LineItemInput {
	lines := make([]models.LineItemInput, 0, len(details))
	for _, d := range details {
		lines = append(lines, models.LineItemInput{ProductId: d.ProductId, Quantity: d.Quantity, UnitPrice: d.UnitPrice})
	}
	return lines
}

func newQuotationDetails(quotationId int, lines []models.LineItemInput) []models.QuotationDetail {
	details := make([]models.QuotationDetail, 0, len(lines))
	for _, line := range lines {
		details = append(details, models.QuotationDetail{
			QuotationId: quotationId,
			ProductId:   line.ProductId,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    utils.LineSubtotal(line.Quantity, line.UnitPrice),
		})
	}
	return details
}

func newOrderDetails(orderId int, lines []models.LineItemInput) []models.OrderDetail {
	details := make([]models.OrderDetail, 0, len(lines))
	for _, line := range lines {
		details = append(details, models.OrderDetail{
			OrderId:   orderId,
			ProductId: line.ProductId,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  utils.LineSubtotal(line.Quantity, line.UnitPrice),
		})
	}
	return details
}

// recomputeFinancials merges an update over the stored values: new lines
// replace the old ones, and a missing tax is re-derived only when lines change.
func recomputeFinancials(current []models.LineItemInput, currentTax decimal.Decimal, currentDiscount decimal.Decimal,
	lines []models.LineItemInput, tax *decimal.Decimal, discount *decimal.Decimal, rate decimal.Decimal) Financials {
	effectiveLines := current
	if lines != nil {
		effectiveLines = lines
	}
	effectiveTax := tax
	if effectiveTax == nil && lines == nil {
		effectiveTax = &currentTax
	}
	effectiveDiscount := discount
	if effectiveDiscount == nil {
		effectiveDiscount = &currentDiscount
	}
	return ComputeFinancials(effectiveLines, effectiveTax, effectiveDiscount, rate)
}
