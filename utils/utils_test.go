package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreErrorClassification(t *testing.T) {
	assert.NoError(t, StoreError("op", nil))
	assert.Same(t, ErrorRecordNotFound, StoreError("get quotation", ErrorRecordNotFound))

	wrapped := StoreError("insert quotation", errors.New("duplicate entry"))
	require.True(t, IsDataStoreError(wrapped))
	assert.Equal(t, "insert quotation: duplicate entry", wrapped.Error())
	assert.Same(t, wrapped, StoreError("outer", wrapped))

	notFound := fmt.Errorf("lookup: %w", ErrorRecordNotFound)
	assert.False(t, IsDataStoreError(StoreError("op", notFound)))
}

func TestErrorKinds(t *testing.T) {
	v := NewValidationError("lineItems[%d].quantity must be greater than 0", 2)
	assert.True(t, IsValidationError(v))
	assert.False(t, IsConflictError(v))
	assert.Equal(t, "lineItems[2].quantity must be greater than 0", v.Error())

	c := fmt.Errorf("delete product: %w", NewConflictError("product %s is in use", "CEM-42"))
	assert.True(t, IsConflictError(c))
	assert.False(t, IsValidationError(c))
	assert.False(t, IsDataStoreError(c))
}

func TestParseDate(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)

	d, err := ParseDate(" 2025-06-01 ", lima)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 6, 1, 0, 0, 0, 0, lima).Equal(d), d.String())

	d, err = ParseDate("2025-06-01T03:00:00Z", lima)
	require.NoError(t, err)
	assert.Equal(t, 31, d.Day())
	assert.Equal(t, "America/Lima", d.Location().String())

	_, err = ParseDate("", lima)
	assert.Error(t, err)
	_, err = ParseDate("01/06/2025", lima)
	assert.EqualError(t, err, "date must be YYYY-MM-DD or RFC3339")
}

func TestDayBounds(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)

	// 02:00 UTC on June 2 is still June 1 in Lima
	start, end := DayBounds(time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC), lima)
	assert.True(t, time.Date(2025, 6, 1, 0, 0, 0, 0, lima).Equal(start), start.String())
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 28.50 ")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("28.5").Equal(d))

	_, err = ParseDecimal("")
	assert.Error(t, err)
	_, err = ParseDecimal("12,5")
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.True(t, *NewTrue())
	assert.Equal(t, 0, DereferencePtr[int](nil))
	assert.Equal(t, 7, DereferencePtr[int](nil, 7))
	n := 3
	assert.Equal(t, 3, DereferencePtr(&n, 7))
	assert.Equal(t, "lineItems", LowercaseFirst("LineItems"))
	assert.Equal(t, "", LowercaseFirst(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ana@x.com", NormalizeEmail("  ANA@X.Com "))
	assert.Equal(t, "20100100100", NormalizeDocument(" 20100100100\t"))
	assert.Equal(t, "AbC-1", NormalizeDocument("AbC-1"))

	assert.True(t, IsValidEmail("ventas@acme.pe"))
	assert.False(t, IsValidEmail("ventas@acme"))
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, ValidatePhoneNumber("+51 987654321", "PE"))
	assert.NoError(t, ValidatePhoneNumber("987654321", "PE"))
	assert.Error(t, ValidatePhoneNumber("123", "PE"))
	assert.Error(t, ValidatePhoneNumber("not a phone", "PE"))
}

func TestBindingErrorMessage(t *testing.T) {
	type party struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
		Notes string `validate:"max=3"`
	}
	err := validator.New().Struct(party{Email: "nope", Notes: "toolong"})
	require.Error(t, err)

	fields := ProcessValidationErrors(err)
	assert.Equal(t, map[string]string{"Name": "required", "Email": "email", "Notes": "max"}, fields)
	assert.Equal(t, "email is not a valid email; name is required; notes is too long", BindingErrorMessage(err))

	assert.Equal(t, "invalid request body: EOF", BindingErrorMessage(errors.New("EOF")))
}

func TestFinancialHelpers(t *testing.T) {
	sub := LineSubtotal(decimal.RequireFromString("3"), decimal.RequireFromString("2.50"))
	assert.True(t, decimal.RequireFromString("7.5").Equal(sub))
	tax := CalculateTaxAmount(sub, decimal.RequireFromString("0.18"))
	assert.True(t, decimal.RequireFromString("1.35").Equal(tax))
	total := CalculateTotal(sub, tax, decimal.RequireFromString("1"))
	assert.True(t, decimal.RequireFromString("7.85").Equal(total))
}

type cachedThing struct {
	ID int
}

func TestRedisHelpersWithoutRedis(t *testing.T) {
	assert.Equal(t, "cachedThing", GetTypeName[cachedThing]())
	assert.Equal(t, "cachedThing:4", redisKey[cachedThing](4))

	require.NoError(t, StoreRedis(&cachedThing{ID: 4}, 4))
	got, err := RetrieveRedis[cachedThing](4)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, RemoveRedisItem[cachedThing](4))
}

func TestNewRedisLockerWithoutRedis(t *testing.T) {
	assert.Nil(t, NewRedisLocker(time.Second, time.Second))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	_, ok := GetCorrelationIdFromContext(ctx)
	assert.False(t, ok)

	ctx = SetCorrelationIdInContext(ctx, "cid-1")
	ctx = SetClientIPInContext(ctx, "10.0.0.9")
	cid, ok := GetCorrelationIdFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "cid-1", cid)
	ip, _ := GetClientIPFromContext(ctx)
	assert.Equal(t, "10.0.0.9", ip)
}
