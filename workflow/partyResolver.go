package workflow

import (
	"context"
	"errors"
	"strings"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// PartyRef points at the party a dependent record will reference.
type PartyRef struct {
	Kind       models.PartyKind
	ID         int
	WasCreated bool
	Secondary  SecondaryOutcome
}

// PartyResolver finds the active party for an identity or creates it.
type PartyResolver struct {
	store  PartyStore
	logger logrus.FieldLogger
}

func NewPartyResolver(store PartyStore, logger logrus.FieldLogger) *PartyResolver {
	return &PartyResolver{store: store, logger: logger}
}

// Resolve normalizes identity and attributes, then:
//   - found: overwrites the display attributes (best effort) and returns WasCreated=false
//   - not found: inserts an active party and returns WasCreated=true
//
// A lookup or insert failure aborts with a DataStoreError. A failed attribute
// update is logged and recorded in PartyRef.Secondary.
func (r *PartyResolver) Resolve(ctx context.Context, kind models.PartyKind, identity models.PartyIdentity, attrs models.PartyAttributes) (PartyRef, error) {
	ctx, span := tracer.Start(ctx, "PartyResolver.Resolve")
	defer span.End()
	logger := requestLogger(ctx, r.logger)

	identity.DocumentType = strings.TrimSpace(identity.DocumentType)
	identity.DocumentNumber = utils.NormalizeDocument(identity.DocumentNumber)
	if identity.DocumentType == "" || identity.DocumentNumber == "" {
		return PartyRef{}, utils.NewValidationError("documentType and documentNumber are required")
	}
	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.Email = utils.NormalizeEmail(attrs.Email)
	attrs.Phone = strings.TrimSpace(attrs.Phone)
	attrs.Address = strings.TrimSpace(attrs.Address)

	span.SetAttributes(
		attribute.String("party.kind", string(kind)),
		attribute.String("party.document_type", identity.DocumentType),
	)

	id, err := r.store.FindActiveParty(ctx, kind, identity)
	if err == nil {
		ref := PartyRef{Kind: kind, ID: id}
		if err := r.store.UpdatePartyAttributes(ctx, kind, id, attrs); err != nil {
			config.LogError(logger, "partyResolver.go", "Resolve", "UpdatePartyAttributes", id, err)
			ref.Secondary.record(StepPartyAttributes, err)
		}
		return ref, nil
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		config.LogError(logger, "partyResolver.go", "Resolve", "FindActiveParty", identity, err)
		return PartyRef{}, utils.StoreError("find "+kind.Table(), err)
	}

	if attrs.Name == "" || attrs.Email == "" {
		return PartyRef{}, utils.NewValidationError("name and email are required to create a %s", kind)
	}
	id, err = r.store.InsertParty(ctx, kind, identity, attrs)
	if err != nil {
		config.LogError(logger, "partyResolver.go", "Resolve", "InsertParty", identity, err)
		return PartyRef{}, utils.StoreError("create "+kind.Table(), err)
	}
	logger.WithFields(logrus.Fields{
		"party_kind": kind,
		"party_id":   id,
	}).Info("party created")
	return PartyRef{Kind: kind, ID: id, WasCreated: true}, nil
}

func isNotFoundErr(err error) bool {
	return errors.Is(err, utils.ErrorRecordNotFound)
}

// requestLogger tags logger with the correlation id and client ip carried by ctx.
func requestLogger(ctx context.Context, logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		logger = config.GetLogger()
	}
	return config.WithRequestFields(ctx, logger)
}
