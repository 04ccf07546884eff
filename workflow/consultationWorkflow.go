package workflow

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type ConsultationResult struct {
	Consultation *models.Consultation
	Secondary    SecondaryOutcome
}

type ConsultationDetailResult struct {
	Detail    *models.ConsultationDetail
	Party     *PartyRef
	Secondary SecondaryOutcome
}

// ConsultationWorkflow keeps consultation details pointing at exactly one
// client or provider, resolved by partyType.
type ConsultationWorkflow struct {
	store   ConsultationStore
	parties *PartyResolver
	clock   Clock
	logger  logrus.FieldLogger
}

func NewConsultationWorkflow(store ConsultationStore, opts Options) *ConsultationWorkflow {
	opts = opts.withDefaults()
	return &ConsultationWorkflow{
		store:   store,
		parties: NewPartyResolver(store, opts.Logger),
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
}

// Create inserts the consultation, then each initial detail. A detail that
// fails after the consultation exists is logged and reported in Secondary.
func (w *ConsultationWorkflow) Create(ctx context.Context, input *models.NewConsultation) (*ConsultationResult, error) {
	ctx, span := tracer.Start(ctx, "ConsultationWorkflow.Create")
	defer span.End()
	logger := requestLogger(ctx, w.logger)

	input.Subject = strings.TrimSpace(input.Subject)
	if input.Subject == "" {
		return nil, utils.NewValidationError("subject is required")
	}
	for i := range input.Details {
		if _, err := models.ParsePartyKind(input.Details[i].PartyType); err != nil {
			return nil, utils.NewValidationError("details[%d]: %s", i, err.Error())
		}
	}

	status := models.ConsultationStatusAbierta
	if requested := models.ConsultationStatus(strings.TrimSpace(input.Estado)); requested.IsValid() {
		status = requested
	}
	consultationDate := w.clock()
	if input.ConsultationDate != nil {
		consultationDate = input.ConsultationDate.Time
	}
	consultation := &models.Consultation{
		Subject:          input.Subject,
		Description:      input.Description,
		ConsultationDate: consultationDate,
		Estado:           status,
		Details:          []models.ConsultationDetail{},
	}
	if err := w.store.CreateConsultation(ctx, consultation); err != nil {
		config.LogError(logger, "consultationWorkflow.go", "Create", "CreateConsultation", input.Subject, err)
		return nil, utils.StoreError("create consultation", err)
	}
	span.SetAttributes(attribute.Int("consultation.id", consultation.ID))

	result := &ConsultationResult{Consultation: consultation}
	for i := range input.Details {
		detail, party, err := w.synchronizeDetail(ctx, consultation.ID, &input.Details[i])
		if err != nil {
			config.LogError(logger, "consultationWorkflow.go", "Create", "synchronizeDetail", i, err)
			result.Secondary.record(StepDetails, err)
			continue
		}
		result.Secondary.merge(party.Secondary)
		consultation.Details = append(consultation.Details, *detail)
	}
	return result, nil
}

func (w *ConsultationWorkflow) Update(ctx context.Context, id int, input *models.ConsultationUpdate) (*ConsultationResult, error) {
	ctx, span := tracer.Start(ctx, "ConsultationWorkflow.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("consultation.id", id))
	logger := requestLogger(ctx, w.logger)

	if _, err := w.store.GetConsultation(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return nil, utils.NewValidationError("subject must not be empty")
		}
		fields["subject"] = subject
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.ConsultationDate != nil {
		fields["consultation_date"] = input.ConsultationDate.Time
	}
	if input.Estado != nil {
		if status := models.ConsultationStatus(strings.TrimSpace(*input.Estado)); status.IsValid() {
			fields["estado"] = status
		} else {
			logger.WithField("estado", *input.Estado).Warn("ignoring consultation status outside the allowed set")
		}
	}
	fields["updated_at"] = w.clock()

	if err := w.store.UpdateConsultation(ctx, id, fields); err != nil {
		config.LogError(logger, "consultationWorkflow.go", "Update", "UpdateConsultation", id, err)
		return nil, utils.StoreError("update consultation", err)
	}
	consultation, err := w.store.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConsultationResult{Consultation: consultation}, nil
}

func (w *ConsultationWorkflow) Delete(ctx context.Context, id int) error {
	ctx, span := tracer.Start(ctx, "ConsultationWorkflow.Delete")
	defer span.End()
	if err := w.store.DeleteConsultation(ctx, id); err != nil {
		if !isNotFoundErr(err) {
			config.LogError(requestLogger(ctx, w.logger), "consultationWorkflow.go", "Delete", "DeleteConsultation", id, err)
		}
		return err
	}
	return nil
}

func (w *ConsultationWorkflow) Get(ctx context.Context, id int) (*models.Consultation, error) {
	return w.store.GetConsultation(ctx, id)
}

func (w *ConsultationWorkflow) List(ctx context.Context, query models.ConsultationQuery) ([]*models.Consultation, int64, error) {
	return w.store.ListConsultations(ctx, query)
}

// AddDetail resolves the detail's party and inserts it under the consultation.
func (w *ConsultationWorkflow) AddDetail(ctx context.Context, consultationId int, input *models.NewConsultationDetail) (*ConsultationDetailResult, error) {
	ctx, span := tracer.Start(ctx, "ConsultationWorkflow.AddDetail")
	defer span.End()
	span.SetAttributes(attribute.Int("consultation.id", consultationId))

	if _, err := models.ParsePartyKind(input.PartyType); err != nil {
		return nil, utils.NewValidationError("%s", err.Error())
	}
	if _, err := w.store.GetConsultation(ctx, consultationId); err != nil {
		return nil, err
	}
	detail, party, err := w.synchronizeDetail(ctx, consultationId, input)
	if err != nil {
		return nil, err
	}
	return &ConsultationDetailResult{Detail: detail, Party: &party, Secondary: party.Secondary}, nil
}

// UpdateDetail applies present fields. A present party re-resolves it and
// rewrites both foreign keys so only the one matching partyType is set.
func (w *ConsultationWorkflow) UpdateDetail(ctx context.Context, consultationId int, detailId int, input *models.ConsultationDetailUpdate) (*ConsultationDetailResult, error) {
	ctx, span := tracer.Start(ctx, "ConsultationWorkflow.UpdateDetail")
	defer span.End()
	span.SetAttributes(attribute.Int("consultation.id", consultationId), attribute.Int("consultation_detail.id", detailId))
	logger := requestLogger(ctx, w.logger)

	detail, err := w.store.GetConsultationDetail(ctx, consultationId, detailId)
	if err != nil {
		return nil, err
	}

	result := &ConsultationDetailResult{}
	fields := map[string]interface{}{}

	if input.PartyType != nil && !input.PartyUpdate.Present() {
		return nil, utils.NewValidationError("changing partyType requires the party identity")
	}
	if input.PartyUpdate.Present() {
		kind := detail.PartyType
		if input.PartyType != nil {
			kind, err = models.ParsePartyKind(*input.PartyType)
			if err != nil {
				return nil, utils.NewValidationError("%s", err.Error())
			}
		}
		partyInput, err := input.PartyUpdate.PartyInput()
		if err != nil {
			return nil, err
		}
		party, err := w.parties.Resolve(ctx, kind, partyInput.Identity(), partyInput.Attributes())
		if err != nil {
			return nil, err
		}
		result.Party = &party
		result.Secondary.merge(party.Secondary)
		for k, v := range partyForeignKeys(party) {
			fields[k] = v
		}
	}
	if input.ProductId != nil {
		if *input.ProductId == 0 {
			fields["product_id"] = nil
		} else {
			fields["product_id"] = *input.ProductId
		}
	}
	if input.Comment != nil {
		fields["comment"] = *input.Comment
	}
	fields["updated_at"] = w.clock()

	if err := w.store.UpdateConsultationDetail(ctx, detailId, fields); err != nil {
		config.LogError(logger, "consultationWorkflow.go", "UpdateDetail", "UpdateConsultationDetail", detailId, err)
		return nil, utils.StoreError("update consultation detail", err)
	}
	updated, err := w.store.GetConsultationDetail(ctx, consultationId, detailId)
	if err != nil {
		return nil, err
	}
	result.Detail = updated
	return result, nil
}

func (w *ConsultationWorkflow) DeleteDetail(ctx context.Context, consultationId int, detailId int) error {
	ctx, span := tracer.Start(ctx, "ConsultationWorkflow.DeleteDetail")
	defer span.End()
	if err := w.store.DeleteConsultationDetail(ctx, consultationId, detailId); err != nil {
		if !isNotFoundErr(err) {
			config.LogError(requestLogger(ctx, w.logger), "consultationWorkflow.go", "DeleteDetail", "DeleteConsultationDetail", detailId, err)
		}
		return err
	}
	return nil
}

func (w *ConsultationWorkflow) synchronizeDetail(ctx context.Context, consultationId int, input *models.NewConsultationDetail) (*models.ConsultationDetail, PartyRef, error) {
	kind, err := models.ParsePartyKind(input.PartyType)
	if err != nil {
		return nil, PartyRef{}, utils.NewValidationError("%s", err.Error())
	}
	party, err := w.parties.Resolve(ctx, kind, input.Identity(), input.Attributes())
	if err != nil {
		return nil, PartyRef{}, err
	}
	detail := &models.ConsultationDetail{
		ConsultationId: consultationId,
		ProductId:      input.ProductId,
		Comment:        input.Comment,
	}
	assignParty(detail, party)
	if err := w.store.CreateConsultationDetail(ctx, detail); err != nil {
		return nil, party, utils.StoreError("create consultation detail", err)
	}
	return detail, party, nil
}

// assignParty sets the foreign key matching the party kind and nulls the other.
func assignParty(detail *models.ConsultationDetail, party PartyRef) {
	id := party.ID
	detail.PartyType = party.Kind
	switch party.Kind {
	case models.PartyKindProvider:
		detail.ClientId = nil
		detail.ProviderId = &id
	default:
		detail.ClientId = &id
		detail.ProviderId = nil
	}
}

func partyForeignKeys(party PartyRef) map[string]interface{} {
	fields := map[string]interface{}{"party_type": party.Kind}
	switch party.Kind {
	case models.PartyKindProvider:
		fields["client_id"] = nil
		fields["provider_id"] = party.ID
	default:
		fields["client_id"] = party.ID
		fields["provider_id"] = nil
	}
	return fields
}
