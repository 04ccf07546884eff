package workflow

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// QuotationResult is the two-phase outcome of a quotation write: the
// persisted quotation plus any best-effort writes that failed.
type QuotationResult struct {
	Quotation *models.Quotation
	Party     *PartyRef
	Secondary SecondaryOutcome
}

type QuotationWorkflow struct {
	store    QuotationStore
	parties  *PartyResolver
	sequence *SequenceAllocator
	taxRate  decimal.Decimal
	clock    Clock
	logger   logrus.FieldLogger
}

func NewQuotationWorkflow(store QuotationStore, opts Options) *QuotationWorkflow {
	opts = opts.withDefaults()
	return &QuotationWorkflow{
		store:    store,
		parties:  NewPartyResolver(store, opts.Logger),
		sequence: NewSequenceAllocator(models.QuotationCodePrefix, store.CountQuotationsBetween, opts.Location, opts.Locker),
		taxRate:  *opts.TaxRate,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// Create resolves the client, computes totals, allocates the COT code and
// inserts the quotation. Line items are inserted afterwards; if that fails the
// quotation is kept and the failure is reported in Secondary.
func (w *QuotationWorkflow) Create(ctx context.Context, input *models.NewQuotation) (*QuotationResult, error) {
	ctx, span := tracer.Start(ctx, "QuotationWorkflow.Create")
	defer span.End()
	logger := requestLogger(ctx, w.logger)

	if len(input.LineItems) == 0 {
		return nil, utils.NewValidationError("lineItems is required")
	}
	if err := models.ValidateLineItems(input.LineItems); err != nil {
		return nil, err
	}

	party, err := w.parties.Resolve(ctx, models.PartyKindClient, input.Identity(), input.Attributes())
	if err != nil {
		return nil, err
	}
	result := &QuotationResult{Party: &party}
	result.Secondary.merge(party.Secondary)

	financials := ComputeFinancials(input.LineItems, input.Tax, input.Discount, w.taxRate)

	now := w.clock()
	code, release, err := w.sequence.Next(ctx, now)
	if err != nil {
		config.LogError(logger, "quotationWorkflow.go", "Create", "SequenceAllocator.Next", nil, err)
		return nil, err
	}
	defer release()

	status := models.DocumentStatusPendiente
	if requested := models.DocumentStatus(strings.TrimSpace(input.Estado)); requested.IsValid() {
		status = requested
	}
	quotation := &models.Quotation{
		Code:         code,
		ClientId:     party.ID,
		EmissionDate: now,
		DueDate:      input.DueDate.TimePtr(),
		Estado:       status,
		Notes:        input.Notes,
		Subtotal:     financials.Subtotal,
		Tax:          financials.Tax,
		Discount:     financials.Discount,
		Total:        financials.Total,
	}
	if err := w.store.CreateQuotation(ctx, quotation); err != nil {
		config.LogError(logger, "quotationWorkflow.go", "Create", "CreateQuotation", code, err)
		return nil, utils.StoreError("create quotation", err)
	}
	release()
	span.SetAttributes(attribute.Int("quotation.id", quotation.ID), attribute.String("quotation.code", code))

	details := newQuotationDetails(quotation.ID, input.LineItems)
	if err := w.store.CreateQuotationDetails(ctx, details); err != nil {
		config.LogError(logger, "quotationWorkflow.go", "Create", "CreateQuotationDetails", quotation.ID, err)
		result.Secondary.record(StepLineItems, err)
		quotation.Details = []models.QuotationDetail{}
	} else {
		quotation.Details = details
	}

	result.Quotation = quotation
	return result, nil
}

// Update applies only the fields present in input. Non-nil LineItems replace
// every stored line; an estado outside the allowed set is ignored.
func (w *QuotationWorkflow) Update(ctx context.Context, id int, input *models.QuotationUpdate) (*QuotationResult, error) {
	ctx, span := tracer.Start(ctx, "QuotationWorkflow.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("quotation.id", id))
	logger := requestLogger(ctx, w.logger)

	if input.LineItems != nil {
		if err := models.ValidateLineItems(input.LineItems); err != nil {
			return nil, err
		}
	}

	existing, err := w.store.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &QuotationResult{}
	fields := map[string]interface{}{}

	if input.PartyUpdate.Present() {
		partyInput, err := input.PartyUpdate.PartyInput()
		if err != nil {
			return nil, err
		}
		party, err := w.parties.Resolve(ctx, models.PartyKindClient, partyInput.Identity(), partyInput.Attributes())
		if err != nil {
			return nil, err
		}
		result.Party = &party
		result.Secondary.merge(party.Secondary)
		fields["client_id"] = party.ID
	}
	if input.DueDate.Set {
		fields["due_date"] = input.DueDate.Value()
	}
	if input.Notes != nil {
		fields["notes"] = strings.TrimSpace(*input.Notes)
	}
	if input.Estado != nil {
		if status := models.DocumentStatus(strings.TrimSpace(*input.Estado)); status.IsValid() {
			fields["estado"] = status
		} else {
			logger.WithField("estado", *input.Estado).Warn("ignoring quotation status outside the allowed set")
		}
	}
	if input.LineItems != nil || input.Tax != nil || input.Discount != nil {
		financials := recomputeFinancials(quotationLineInputs(existing.Details), existing.Tax, existing.Discount,
			input.LineItems, input.Tax, input.Discount, w.taxRate)
		for k, v := range financials.fields() {
			fields[k] = v
		}
	}
	fields["updated_at"] = w.clock()

	if err := w.store.UpdateQuotation(ctx, id, fields); err != nil {
		config.LogError(logger, "quotationWorkflow.go", "Update", "UpdateQuotation", id, err)
		return nil, utils.StoreError("update quotation", err)
	}

	if input.LineItems != nil {
		// delete result is not checked; the insert below decides the outcome
		if err := w.store.DeleteQuotationDetails(ctx, id); err != nil {
			logger.WithError(err).WithField("quotation_id", id).Warn("deleting quotation details failed")
		}
		details := newQuotationDetails(id, input.LineItems)
		if err := w.store.CreateQuotationDetails(ctx, details); err != nil {
			config.LogError(logger, "quotationWorkflow.go", "Update", "CreateQuotationDetails", id, err)
			return nil, utils.StoreError("replace quotation details", err)
		}
	}

	quotation, err := w.store.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Quotation = quotation
	return result, nil
}

func (w *QuotationWorkflow) Delete(ctx context.Context, id int) error {
	ctx, span := tracer.Start(ctx, "QuotationWorkflow.Delete")
	defer span.End()
	if err := w.store.DeleteQuotation(ctx, id); err != nil {
		if !isNotFoundErr(err) {
			config.LogError(requestLogger(ctx, w.logger), "quotationWorkflow.go", "Delete", "DeleteQuotation", id, err)
		}
		return err
	}
	return nil
}

func (w *QuotationWorkflow) Get(ctx context.Context, id int) (*models.Quotation, error) {
	return w.store.GetQuotation(ctx, id)
}

func (w *QuotationWorkflow) List(ctx context.Context, query models.QuotationQuery) ([]*models.Quotation, int64, error) {
	return w.store.ListQuotations(ctx, query)
}
