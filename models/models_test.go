package models

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequest(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
		wantOffset          int
	}{
		{0, 0, 1, DefaultPageLimit, 0},
		{3, 10, 3, 10, 20},
		{-2, 1000, 1, MaxPageLimit, 0},
	}
	for _, tt := range tests {
		p := NewPageRequest(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p.Page)
		assert.Equal(t, tt.wantLimit, p.Limit)
		assert.Equal(t, tt.wantOffset, p.Offset())
	}

	// zero-value requests are clamped on use
	assert.Equal(t, 0, PageRequest{}.Offset())
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0}, NewPagination(NewPageRequest(1, 10), 0))
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 21, TotalPages: 3}, NewPagination(NewPageRequest(2, 10), 21))
	assert.Equal(t, 1, NewPagination(NewPageRequest(1, 10), 10).TotalPages)
}

func TestParsePartyKind(t *testing.T) {
	for _, raw := range []string{"cliente", " Cliente ", "client"} {
		kind, err := ParsePartyKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, PartyKindClient, kind)
	}
	kind, err := ParsePartyKind("PROVEEDOR")
	require.NoError(t, err)
	assert.Equal(t, PartyKindProvider, kind)
	assert.Equal(t, "providers", kind.Table())
	assert.Equal(t, "clients", PartyKindClient.Table())

	_, err = ParsePartyKind("socio")
	assert.EqualError(t, err, "partyType must be cliente or proveedor")
}

func TestStatuses(t *testing.T) {
	for _, s := range []DocumentStatus{DocumentStatusPendiente, DocumentStatusEnProceso, DocumentStatusCompletada, DocumentStatusCancelada} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, DocumentStatus("aprobada").IsValid())
	assert.False(t, DocumentStatus("").IsValid())
	assert.True(t, ConsultationStatusCerrada.IsValid())
	assert.False(t, ConsultationStatus("pendiente").IsValid())
}

func TestDateUnmarshal(t *testing.T) {
	var body struct {
		DueDate *Date `json:"dueDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2025-06-15"}`), &body))
	require.NotNil(t, body.DueDate)
	assert.Equal(t, 15, body.DueDate.Day())

	body.DueDate = nil
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":null}`), &body))
	assert.Nil(t, body.DueDate.TimePtr())

	err := json.Unmarshal([]byte(`{"dueDate":"15/06/2025"}`), &body)
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))

	err = json.Unmarshal([]byte(`{"dueDate":20250615}`), &body)
	assert.True(t, utils.IsValidationError(err))
}

func TestDateUpdateUnmarshal(t *testing.T) {
	var body struct {
		DueDate DateUpdate `json:"dueDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	assert.False(t, body.DueDate.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2025-06-15"}`), &body))
	assert.True(t, body.DueDate.Set)
	require.NotNil(t, body.DueDate.Time)
	assert.Equal(t, 15, body.DueDate.Time.Day())
	assert.IsType(t, body.DueDate.Time.UTC(), body.DueDate.Value())

	body.DueDate = DateUpdate{}
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":null}`), &body))
	assert.True(t, body.DueDate.Set)
	assert.Nil(t, body.DueDate.Time)
	assert.Nil(t, body.DueDate.Value())

	err := json.Unmarshal([]byte(`{"dueDate":"tomorrow"}`), &body)
	assert.True(t, utils.IsValidationError(err))
}

func TestImportProductsRejectsNonWorkbook(t *testing.T) {
	n, err := NewGormStore(nil).ImportProductsFromXlsx(context.Background(), strings.NewReader("not a workbook"))
	assert.Equal(t, 0, n)
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
	assert.Contains(t, err.Error(), "not a valid xlsx workbook")
}

func TestDecimalsMarshalAsNumbers(t *testing.T) {
	b, err := json.Marshal(Quotation{Total: decimal.RequireFromString("23.6")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"total":23.6`)
}

func lines(items ...[3]string) []LineItemInput {
	out := make([]LineItemInput, 0, len(items))
	for i, it := range items {
		out = append(out, LineItemInput{
			ProductId: i + 1,
			Quantity:  decimal.RequireFromString(it[1]),
			UnitPrice: decimal.RequireFromString(it[2]),
		})
	}
	return out
}

func TestValidateLineItems(t *testing.T) {
	assert.NoError(t, ValidateLineItems(nil))
	assert.NoError(t, ValidateLineItems(lines([3]string{"", "1", "0"})))

	err := ValidateLineItems(lines([3]string{"", "1", "5"}, [3]string{"", "0", "5"}))
	assert.EqualError(t, err, "lineItems[1].quantity must be greater than 0")

	err = ValidateLineItems(lines([3]string{"", "-1", "5"}))
	assert.EqualError(t, err, "lineItems[0].quantity must be greater than 0")

	err = ValidateLineItems(lines([3]string{"", "2", "-0.01"}))
	assert.EqualError(t, err, "lineItems[0].unitPrice must not be negative")

	err = ValidateLineItems([]LineItemInput{{Quantity: decimal.NewFromInt(1)}})
	assert.EqualError(t, err, "lineItems[0].productId is required")
}

func anaParty() PartyInput {
	return PartyInput{
		DocumentType:   " DNI ",
		DocumentNumber: " 12345678 ",
		Name:           " Ana ",
		Email:          " ANA@X.COM ",
	}
}

func TestPartyInputValidate(t *testing.T) {
	t.Setenv("PHONE_VALIDATION", "true")
	t.Setenv("DEFAULT_COUNTRY_CODE", "PE")

	p := anaParty()
	require.NoError(t, p.Validate())
	assert.Equal(t, "DNI", p.DocumentType)
	assert.Equal(t, "12345678", p.DocumentNumber)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "ana@x.com", p.Email)

	p = anaParty()
	p.Email = "\t Ventas@Acme.PE  "
	require.NoError(t, p.Validate())
	assert.Equal(t, "ventas@acme.pe", p.Email)

	p = anaParty()
	p.Email = "ana-at-x"
	assert.EqualError(t, p.Validate(), "email is not valid")

	p = anaParty()
	p.DocumentNumber = "   "
	assert.EqualError(t, p.Validate(), "documentType and documentNumber are required")

	p = anaParty()
	p.Phone = "12"
	assert.EqualError(t, p.Validate(), "phone is not valid")

	t.Setenv("PHONE_VALIDATION", "false")
	p = anaParty()
	p.Phone = "12"
	assert.NoError(t, p.Validate())
}

func strPtr(s string) *string { return &s }

func TestPartyUpdate(t *testing.T) {
	var empty PartyUpdate
	assert.False(t, empty.Present())

	partial := PartyUpdate{Phone: strPtr("987654321")}
	assert.True(t, partial.Present())
	_, err := partial.PartyInput()
	assert.True(t, utils.IsValidationError(err))

	full := PartyUpdate{
		DocumentType:   strPtr("RUC"),
		DocumentNumber: strPtr(" 20100100100 "),
		Name:           strPtr("Acme"),
		Email:          strPtr("Ventas@Acme.pe"),
	}
	input, err := full.PartyInput()
	require.NoError(t, err)
	assert.Equal(t, "20100100100", input.DocumentNumber)
	assert.Equal(t, "ventas@acme.pe", input.Email)
	assert.Equal(t, "", input.Phone)
	assert.Equal(t, PartyIdentity{DocumentType: "RUC", DocumentNumber: "20100100100"}, input.Identity())
}

func TestNewQuotationValidate(t *testing.T) {
	q := NewQuotation{PartyInput: anaParty(), Notes: "  urgent  "}
	assert.EqualError(t, q.Validate(), "lineItems is required")

	q.LineItems = lines([3]string{"", "2", "10"})
	require.NoError(t, q.Validate())
	assert.Equal(t, "urgent", q.Notes)

	tax := decimal.RequireFromString("-1")
	q.Tax = &tax
	assert.EqualError(t, q.Validate(), "tax must not be negative")

	q.Tax = nil
	discount := decimal.RequireFromString("-1")
	q.Discount = &discount
	assert.EqualError(t, q.Validate(), "discount must not be negative")
}

func TestUpdatesValidate(t *testing.T) {
	var qu QuotationUpdate
	assert.NoError(t, qu.Validate())
	qu.LineItems = []LineItemInput{}
	assert.NoError(t, qu.Validate())
	qu.LineItems = lines([3]string{"", "0", "1"})
	assert.Error(t, qu.Validate())

	var ou OrderUpdate
	zero := decimal.Zero
	ou.Tax = &zero
	assert.NoError(t, ou.Validate())

	cu := ConsultationUpdate{Subject: strPtr("   ")}
	assert.EqualError(t, cu.Validate(), "subject must not be empty")
	cu.Subject = strPtr("  Cemento  ")
	require.NoError(t, cu.Validate())
	assert.Equal(t, "Cemento", *cu.Subject)
}

func TestConsultationValidate(t *testing.T) {
	c := NewConsultation{Subject: "  "}
	assert.EqualError(t, c.Validate(), "subject is required")

	c = NewConsultation{
		Subject: "Precios",
		Details: []NewConsultationDetail{{PartyType: "socio", PartyInput: anaParty()}},
	}
	assert.EqualError(t, c.Validate(), "partyType must be cliente or proveedor")

	zero := 0
	c.Details[0].PartyType = "cliente"
	c.Details[0].ProductId = &zero
	assert.EqualError(t, c.Validate(), "productId must be positive")

	c.Details[0].ProductId = nil
	assert.NoError(t, c.Validate())

	du := ConsultationDetailUpdate{PartyType: strPtr("proveedor")}
	assert.EqualError(t, du.Validate(), "changing partyType requires the party identity")
	du = ConsultationDetailUpdate{ProductId: &zero}
	assert.NoError(t, du.Validate())
}

func TestNewProductValidate(t *testing.T) {
	p := NewProduct{Code: " CEM-42 ", Name: " Cemento ", UnitPrice: decimal.RequireFromString("28.5")}
	require.NoError(t, p.validate())
	assert.Equal(t, "CEM-42", p.Code)
	assert.Equal(t, defaultProductUnit, p.Unit)

	p = NewProduct{Code: "X", Name: "Y", UnitPrice: decimal.RequireFromString("-1")}
	assert.EqualError(t, p.validate(), "unitPrice must not be negative")

	p = NewProduct{Code: "", Name: "Y"}
	assert.True(t, utils.IsValidationError(p.validate()))
}
