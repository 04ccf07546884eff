package models_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"bitbucket.org/mmdatafocus/quotes_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/xuri/excelize/v2"
	gormPostgres "gorm.io/driver/postgres"
)

// startStore boots Postgres 16, migrates, and returns a store on a fresh schema.
func startStore(t *testing.T) *models.GormStore {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	ctx := context.Background()

	pgC, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("quotes_test"),
		postgres.WithUsername("quotes"),
		postgres.WithPassword("testpw"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := config.OpenDatabase(gormPostgres.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, models.MigrateTable(db))
	return models.NewGormStore(db)
}

func storeOptions(now time.Time) workflow.Options {
	rate := decimal.RequireFromString("0.18")
	return workflow.Options{
		Clock:    func() time.Time { return now },
		TaxRate:  &rate,
		Location: time.UTC,
	}
}

func anaQuotation() *models.NewQuotation {
	return &models.NewQuotation{
		PartyInput: models.PartyInput{
			DocumentType:   "DNI",
			DocumentNumber: " 12345678 ",
			Name:           "Ana",
			Email:          "ANA@X.COM",
		},
		LineItems: []models.LineItemInput{
			{ProductId: 1, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10)},
		},
	}
}

func TestGormStoreQuotationLifecycle(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()
	june1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	quotations := workflow.NewQuotationWorkflow(store, storeOptions(june1))

	first, err := quotations.Create(ctx, anaQuotation())
	require.NoError(t, err)
	require.True(t, first.Secondary.OK())
	assert.Equal(t, "COT-20250601-0001", first.Quotation.Code)
	assert.True(t, first.Party.WasCreated)

	second, err := quotations.Create(ctx, anaQuotation())
	require.NoError(t, err)
	assert.Equal(t, "COT-20250601-0002", second.Quotation.Code)
	assert.False(t, second.Party.WasCreated)
	assert.Equal(t, first.Party.ID, second.Party.ID)

	party, err := store.GetParty(ctx, models.PartyKindClient, first.Party.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345678", party.DocumentNumber)
	assert.Equal(t, "ana@x.com", party.Email)

	got, err := store.GetQuotation(ctx, first.Quotation.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("23.6").Equal(got.Total))
	require.Len(t, got.Details, 1)
	assert.True(t, decimal.RequireFromString("20").Equal(got.Details[0].Subtotal))

	newLines := []models.LineItemInput{
		{ProductId: 2, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
		{ProductId: 3, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(10)},
	}
	estado := "en_proceso"
	updated, err := quotations.Update(ctx, first.Quotation.ID, &models.QuotationUpdate{LineItems: newLines, Estado: &estado})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusEnProceso, updated.Quotation.Estado)
	assert.True(t, decimal.RequireFromString("80").Equal(updated.Quotation.Subtotal))
	assert.Len(t, updated.Quotation.Details, 2)

	list, total, err := store.ListQuotations(ctx, models.QuotationQuery{
		Estado:      models.DocumentStatusPendiente,
		PageRequest: models.NewPageRequest(1, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, second.Quotation.ID, list[0].ID)

	require.NoError(t, quotations.Delete(ctx, second.Quotation.ID))
	_, err = store.GetQuotation(ctx, second.Quotation.ID)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestGormStorePartyLookupIgnoresInactive(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()
	identity := models.PartyIdentity{DocumentType: "RUC", DocumentNumber: "20100100100"}

	_, err := store.FindActiveParty(ctx, models.PartyKindProvider, identity)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	id, err := store.InsertParty(ctx, models.PartyKindProvider, identity, models.PartyAttributes{Name: "Acme", Email: "ventas@acme.pe"})
	require.NoError(t, err)
	found, err := store.FindActiveParty(ctx, models.PartyKindProvider, identity)
	require.NoError(t, err)
	assert.Equal(t, id, found)

	// same identity in the other table is a different party
	_, err = store.FindActiveParty(ctx, models.PartyKindClient, identity)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	require.NoError(t, store.DeactivateParty(ctx, models.PartyKindProvider, id))
	_, err = store.FindActiveParty(ctx, models.PartyKindProvider, identity)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestGormStoreConsultationDetailExclusivity(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()
	consultations := workflow.NewConsultationWorkflow(store, storeOptions(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))

	created, err := consultations.Create(ctx, &models.NewConsultation{Subject: "Precios de cemento"})
	require.NoError(t, err)
	consultationId := created.Consultation.ID

	added, err := consultations.AddDetail(ctx, consultationId, &models.NewConsultationDetail{
		PartyType: "proveedor",
		PartyInput: models.PartyInput{
			DocumentType: "RUC", DocumentNumber: "20100100100", Name: "Acme", Email: "ventas@acme.pe",
		},
	})
	require.NoError(t, err)
	assert.Nil(t, added.Detail.ClientId)
	require.NotNil(t, added.Detail.ProviderId)

	partyType := "cliente"
	switched, err := consultations.UpdateDetail(ctx, consultationId, added.Detail.ID, &models.ConsultationDetailUpdate{
		PartyType: &partyType,
		PartyUpdate: models.PartyUpdate{
			DocumentType:   ptr("DNI"),
			DocumentNumber: ptr("12345678"),
			Name:           ptr("Ana"),
			Email:          ptr("ana@x.com"),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, switched.Detail.ClientId)
	assert.Nil(t, switched.Detail.ProviderId)

	// the CHECK constraint rejects a detail with neither party
	err = store.CreateConsultationDetail(ctx, &models.ConsultationDetail{
		ConsultationId: consultationId,
		PartyType:      models.PartyKindClient,
	})
	assert.True(t, utils.IsDataStoreError(err), "%v", err)

	err = store.DeleteConsultationDetail(ctx, consultationId+1, added.Detail.ID)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestGormStoreProductsAndExport(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	product, err := store.CreateProduct(ctx, &models.NewProduct{Code: "CEM-42", Name: "Cemento", UnitPrice: decimal.RequireFromString("28.5")})
	require.NoError(t, err)
	_, err = store.CreateProduct(ctx, &models.NewProduct{Code: "CEM-42", Name: "Otro"})
	assert.True(t, utils.IsConflictError(err))

	quotations := workflow.NewQuotationWorkflow(store, storeOptions(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)))
	input := anaQuotation()
	input.LineItems[0].ProductId = product.ID
	_, err = quotations.Create(ctx, input)
	require.NoError(t, err)

	err = store.DeleteProduct(ctx, product.ID)
	assert.True(t, utils.IsConflictError(err))
	assert.ErrorIs(t, store.DeleteProduct(ctx, product.ID+100), utils.ErrorRecordNotFound)

	var buf bytes.Buffer
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	n, err := store.ExportQuotations(ctx, &buf, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Quotations")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Code", rows[0][0])
	assert.Equal(t, "COT-20250601-0001", rows[1][0])
	assert.Equal(t, "DNI 12345678", rows[1][4])
	assert.Equal(t, "23.6", rows[1][9])

	sheet := excelize.NewFile()
	defer sheet.Close()
	for cell, value := range map[string]interface{}{
		"A1": "code", "B1": "name", "C1": "description", "D1": "unitPrice", "E1": "unit",
		"A2": "CEM-42", "B2": "Cemento Andino", "D2": "30.10", "E2": "bolsa",
		"A3": "FIE-08", "B3": "Fierro 8mm", "D3": "12",
	} {
		require.NoError(t, sheet.SetCellValue("Sheet1", cell, value))
	}
	var upload bytes.Buffer
	require.NoError(t, sheet.Write(&upload))

	imported, err := store.ImportProductsFromXlsx(ctx, &upload)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	updated, err := store.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cemento Andino", updated.Name)
	assert.True(t, decimal.RequireFromString("30.1").Equal(updated.UnitPrice))

	_, total, err := store.ListProducts(ctx, models.ProductQuery{Search: "fierro", PageRequest: models.NewPageRequest(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestGormStoreDuplicateDocumentCodes(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	clientId, err := store.InsertParty(ctx, models.PartyKindClient,
		models.PartyIdentity{DocumentType: "DNI", DocumentNumber: "1"}, models.PartyAttributes{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	// two creates that raced on the same count
	for i := 0; i < 2; i++ {
		require.NoError(t, store.CreateQuotation(ctx, &models.Quotation{
			Code:         "COT-20250601-0001",
			ClientId:     clientId,
			EmissionDate: at,
			Estado:       models.DocumentStatusPendiente,
		}))
	}

	start, end := utils.DayBounds(at, time.UTC)
	dups, err := store.DuplicateDocumentCodes(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, models.DuplicateCode{Table: "quotations", Code: "COT-20250601-0001", Count: 2}, dups[0])

	dups, err = store.DuplicateDocumentCodes(ctx, end, end.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func ptr[T any](v T) *T { return &v }
