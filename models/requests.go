package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
)

// Date accepts "2006-01-02" (in the app timezone) or RFC3339 in JSON.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return utils.NewValidationError("date must be a string")
	}
	t, err := utils.ParseDate(raw, config.AppLocation())
	if err != nil {
		return utils.NewValidationError("%s", err.Error())
	}
	d.Time = t
	return nil
}

func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// DateUpdate is a date on a partial update. Set is false when the key is
// absent; an explicit null sets it with a nil Time, which clears the column.
type DateUpdate struct {
	Set  bool
	Time *time.Time
}

func (d *DateUpdate) UnmarshalJSON(b []byte) error {
	d.Set = true
	d.Time = nil
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var parsed Date
	if err := parsed.UnmarshalJSON(b); err != nil {
		return err
	}
	d.Time = parsed.TimePtr()
	return nil
}

// Value is what a store writes: the date, or nil for NULL.
func (d DateUpdate) Value() interface{} {
	if d.Time == nil {
		return nil
	}
	return *d.Time
}

type NewQuotation struct {
	PartyInput
	LineItems []LineItemInput  `json:"lineItems" binding:"required,min=1,dive"`
	Tax       *decimal.Decimal `json:"tax"`
	Discount  *decimal.Decimal `json:"discount"`
	DueDate   *Date            `json:"dueDate"`
	Notes     string           `json:"notes"`
	Estado    string           `json:"estado"`
}

// QuotationUpdate is a partial update: nil fields are left untouched and a
// non-nil LineItems replaces every line.
type QuotationUpdate struct {
	PartyUpdate
	LineItems []LineItemInput  `json:"lineItems" binding:"omitempty,dive"`
	Tax       *decimal.Decimal `json:"tax"`
	Discount  *decimal.Decimal `json:"discount"`
	DueDate   DateUpdate       `json:"dueDate"`
	Notes     *string          `json:"notes"`
	Estado    *string          `json:"estado"`
}

type NewOrder struct {
	PartyInput
	LineItems    []LineItemInput  `json:"lineItems" binding:"required,min=1,dive"`
	Tax          *decimal.Decimal `json:"tax"`
	Discount     *decimal.Decimal `json:"discount"`
	ExpectedDate *Date            `json:"expectedDate"`
	Notes        string           `json:"notes"`
	Estado       string           `json:"estado"`
}

type OrderUpdate struct {
	PartyUpdate
	LineItems    []LineItemInput  `json:"lineItems" binding:"omitempty,dive"`
	Tax          *decimal.Decimal `json:"tax"`
	Discount     *decimal.Decimal `json:"discount"`
	ExpectedDate DateUpdate       `json:"expectedDate"`
	Notes        *string          `json:"notes"`
	Estado       *string          `json:"estado"`
}

type NewConsultation struct {
	Subject          string                  `json:"subject" binding:"required,max=200"`
	Description      string                  `json:"description"`
	ConsultationDate *Date                   `json:"consultationDate"`
	Estado           string                  `json:"estado"`
	Details          []NewConsultationDetail `json:"details" binding:"omitempty,dive"`
}

type ConsultationUpdate struct {
	Subject          *string `json:"subject" binding:"omitempty,max=200"`
	Description      *string `json:"description"`
	ConsultationDate *Date   `json:"consultationDate"`
	Estado           *string `json:"estado"`
}

type NewConsultationDetail struct {
	PartyType string `json:"partyType" binding:"required"`
	PartyInput
	ProductId *int   `json:"productId"`
	Comment   string `json:"comment"`
}

type ConsultationDetailUpdate struct {
	PartyType *string `json:"partyType"`
	PartyUpdate
	ProductId *int    `json:"productId"`
	Comment   *string `json:"comment"`
}

func validateAmounts(tax *decimal.Decimal, discount *decimal.Decimal) error {
	if tax != nil && tax.IsNegative() {
		return utils.NewValidationError("tax must not be negative")
	}
	if discount != nil && discount.IsNegative() {
		return utils.NewValidationError("discount must not be negative")
	}
	return nil
}

func (input *NewQuotation) Validate() error {
	if err := input.PartyInput.Validate(); err != nil {
		return err
	}
	if len(input.LineItems) == 0 {
		return utils.NewValidationError("lineItems is required")
	}
	if err := ValidateLineItems(input.LineItems); err != nil {
		return err
	}
	input.Notes = strings.TrimSpace(input.Notes)
	return validateAmounts(input.Tax, input.Discount)
}

func (input *QuotationUpdate) Validate() error {
	if input.LineItems != nil {
		if err := ValidateLineItems(input.LineItems); err != nil {
			return err
		}
	}
	return validateAmounts(input.Tax, input.Discount)
}

func (input *NewOrder) Validate() error {
	if err := input.PartyInput.Validate(); err != nil {
		return err
	}
	if len(input.LineItems) == 0 {
		return utils.NewValidationError("lineItems is required")
	}
	if err := ValidateLineItems(input.LineItems); err != nil {
		return err
	}
	input.Notes = strings.TrimSpace(input.Notes)
	return validateAmounts(input.Tax, input.Discount)
}

func (input *OrderUpdate) Validate() error {
	if input.LineItems != nil {
		if err := ValidateLineItems(input.LineItems); err != nil {
			return err
		}
	}
	return validateAmounts(input.Tax, input.Discount)
}

func (input *NewConsultation) Validate() error {
	input.Subject = strings.TrimSpace(input.Subject)
	if input.Subject == "" {
		return utils.NewValidationError("subject is required")
	}
	for i := range input.Details {
		if err := input.Details[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (input *ConsultationUpdate) Validate() error {
	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return utils.NewValidationError("subject must not be empty")
		}
		input.Subject = &subject
	}
	return nil
}

func (input *NewConsultationDetail) Validate() error {
	if _, err := ParsePartyKind(input.PartyType); err != nil {
		return utils.NewValidationError("%s", err.Error())
	}
	if input.ProductId != nil && *input.ProductId <= 0 {
		return utils.NewValidationError("productId must be positive")
	}
	return input.PartyInput.Validate()
}

func (input *ConsultationDetailUpdate) Validate() error {
	if input.PartyType != nil {
		if _, err := ParsePartyKind(*input.PartyType); err != nil {
			return utils.NewValidationError("%s", err.Error())
		}
		if !input.PartyUpdate.Present() {
			return utils.NewValidationError("changing partyType requires the party identity")
		}
	}
	if input.ProductId != nil && *input.ProductId < 0 {
		return utils.NewValidationError("productId must not be negative")
	}
	return nil
}
