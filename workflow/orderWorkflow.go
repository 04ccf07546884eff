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

type OrderResult struct {
	Order     *models.Order
	Party     *PartyRef
	Secondary SecondaryOutcome
}

// OrderWorkflow synchronizes purchase orders against providers, with PED codes.
type OrderWorkflow struct {
	store    OrderStore
	parties  *PartyResolver
	sequence *SequenceAllocator
	taxRate  decimal.Decimal
	clock    Clock
	logger   logrus.FieldLogger
}

func NewOrderWorkflow(store OrderStore, opts Options) *OrderWorkflow {
	opts = opts.withDefaults()
	return &OrderWorkflow{
		store:    store,
		parties:  NewPartyResolver(store, opts.Logger),
		sequence: NewSequenceAllocator(models.OrderCodePrefix, store.CountOrdersBetween, opts.Location, opts.Locker),
		taxRate:  *opts.TaxRate,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

func (w *OrderWorkflow) Create(ctx context.Context, input *models.NewOrder) (*OrderResult, error) {
	ctx, span := tracer.Start(ctx, "OrderWorkflow.Create")
	defer span.End()
	logger := requestLogger(ctx, w.logger)

	if len(input.LineItems) == 0 {
		return nil, utils.NewValidationError("lineItems is required")
	}
	if err := models.ValidateLineItems(input.LineItems); err != nil {
		return nil, err
	}

	party, err := w.parties.Resolve(ctx, models.PartyKindProvider, input.Identity(), input.Attributes())
	if err != nil {
		return nil, err
	}
	result := &OrderResult{Party: &party}
	result.Secondary.merge(party.Secondary)

	financials := ComputeFinancials(input.LineItems, input.Tax, input.Discount, w.taxRate)

	now := w.clock()
	code, release, err := w.sequence.Next(ctx, now)
	if err != nil {
		config.LogError(logger, "orderWorkflow.go", "Create", "SequenceAllocator.Next", nil, err)
		return nil, err
	}
	defer release()

	status := models.DocumentStatusPendiente
	if requested := models.DocumentStatus(strings.TrimSpace(input.Estado)); requested.IsValid() {
		status = requested
	}
	order := &models.Order{
		Code:         code,
		ProviderId:   party.ID,
		OrderDate:    now,
		ExpectedDate: input.ExpectedDate.TimePtr(),
		Estado:       status,
		Notes:        input.Notes,
		Subtotal:     financials.Subtotal,
		Tax:          financials.Tax,
		Discount:     financials.Discount,
		Total:        financials.Total,
	}
	if err := w.store.CreateOrder(ctx, order); err != nil {
		config.LogError(logger, "orderWorkflow.go", "Create", "CreateOrder", code, err)
		return nil, utils.StoreError("create order", err)
	}
	release()
	span.SetAttributes(attribute.Int("order.id", order.ID), attribute.String("order.code", code))

	details := newOrderDetails(order.ID, input.LineItems)
	if err := w.store.CreateOrderDetails(ctx, details); err != nil {
		config.LogError(logger, "orderWorkflow.go", "Create", "CreateOrderDetails", order.ID, err)
		result.Secondary.record(StepLineItems, err)
		order.Details = []models.OrderDetail{}
	} else {
		order.Details = details
	}

	result.Order = order
	return result, nil
}

func (w *OrderWorkflow) Update(ctx context.Context, id int, input *models.OrderUpdate) (*OrderResult, error) {
	ctx, span := tracer.Start(ctx, "OrderWorkflow.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("order.id", id))
	logger := requestLogger(ctx, w.logger)

	if input.LineItems != nil {
		if err := models.ValidateLineItems(input.LineItems); err != nil {
			return nil, err
		}
	}

	existing, err := w.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &OrderResult{}
	fields := map[string]interface{}{}

	if input.PartyUpdate.Present() {
		partyInput, err := input.PartyUpdate.PartyInput()
		if err != nil {
			return nil, err
		}
		party, err := w.parties.Resolve(ctx, models.PartyKindProvider, partyInput.Identity(), partyInput.Attributes())
		if err != nil {
			return nil, err
		}
		result.Party = &party
		result.Secondary.merge(party.Secondary)
		fields["provider_id"] = party.ID
	}
	if input.ExpectedDate.Set {
		fields["expected_date"] = input.ExpectedDate.Value()
	}
	if input.Notes != nil {
		fields["notes"] = strings.TrimSpace(*input.Notes)
	}
	if input.Estado != nil {
		if status := models.DocumentStatus(strings.TrimSpace(*input.Estado)); status.IsValid() {
			fields["estado"] = status
		} else {
			logger.WithField("estado", *input.Estado).Warn("ignoring order status outside the allowed set")
		}
	}
	if input.LineItems != nil || input.Tax != nil || input.Discount != nil {
		financials := recomputeFinancials(orderLineInputs(existing.Details), existing.Tax, existing.Discount,
			input.LineItems, input.Tax, input.Discount, w.taxRate)
		for k, v := range financials.fields() {
			fields[k] = v
		}
	}
	fields["updated_at"] = w.clock()

	if err := w.store.UpdateOrder(ctx, id, fields); err != nil {
		config.LogError(logger, "orderWorkflow.go", "Update", "UpdateOrder", id, err)
		return nil, utils.StoreError("update order", err)
	}

	if input.LineItems != nil {
		if err := w.store.DeleteOrderDetails(ctx, id); err != nil {
			logger.WithError(err).WithField("order_id", id).Warn("deleting order details failed")
		}
		details := newOrderDetails(id, input.LineItems)
		if err := w.store.CreateOrderDetails(ctx, details); err != nil {
			config.LogError(logger, "orderWorkflow.go", "Update", "CreateOrderDetails", id, err)
			return nil, utils.StoreError("replace order details", err)
		}
	}

	order, err := w.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Order = order
	return result, nil
}

func (w *OrderWorkflow) Delete(ctx context.Context, id int) error {
	ctx, span := tracer.Start(ctx, "OrderWorkflow.Delete")
	defer span.End()
	if err := w.store.DeleteOrder(ctx, id); err != nil {
		if !isNotFoundErr(err) {
			config.LogError(requestLogger(ctx, w.logger), "orderWorkflow.go", "Delete", "DeleteOrder", id, err)
		}
		return err
	}
	return nil
}

func (w *OrderWorkflow) Get(ctx context.Context, id int) (*models.Order, error) {
	return w.store.GetOrder(ctx, id)
}

func (w *OrderWorkflow) List(ctx context.Context, query models.OrderQuery) ([]*models.Order, int64, error) {
	return w.store.ListOrders(ctx, query)
}
