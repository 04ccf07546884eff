package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"gorm.io/gorm"
)

// Party is a client or provider row. Both tables share these columns.
// At most one active row exists per (document_type, document_number).
type Party struct {
	ID             int       `gorm:"primary_key" json:"id"`
	DocumentType   string    `gorm:"size:20;not null" json:"documentType"`
	DocumentNumber string    `gorm:"size:30;not null;index" json:"documentNumber"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	Email          string    `gorm:"size:150;not null" json:"email"`
	Phone          string    `gorm:"size:30;not null" json:"phone"`
	Address        string    `gorm:"size:255;not null" json:"address"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	Estado         *bool     `gorm:"not null;default:true" json:"estado"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type Client struct {
	Party
}

type Provider struct {
	Party
}

// PartyIdentity is the natural key of a party.
type PartyIdentity struct {
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
}

// PartyAttributes are the display fields overwritten on every reference.
type PartyAttributes struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// PartyInput is the identity plus display fields a request carries for a party.
type PartyInput struct {
	DocumentType   string `json:"documentType" binding:"required,max=20"`
	DocumentNumber string `json:"documentNumber" binding:"required,max=30"`
	Name           string `json:"name" binding:"required,max=150"`
	Email          string `json:"email" binding:"required,max=150"`
	Phone          string `json:"phone" binding:"max=30"`
	Address        string `json:"address" binding:"max=255"`
	Description    string `json:"description"`
}

type NewParty struct {
	PartyInput
	Estado *bool `json:"estado"`
}

type PartyQuery struct {
	Search string
	Estado *bool
	PageRequest
}

func (input *PartyInput) Identity() PartyIdentity {
	return PartyIdentity{DocumentType: input.DocumentType, DocumentNumber: input.DocumentNumber}
}

func (input *PartyInput) Attributes() PartyAttributes {
	return PartyAttributes{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Description: input.Description,
		Address:     input.Address,
	}
}

// Normalize trims identity and lower-cases the email in place.
func (input *PartyInput) Normalize() {
	input.DocumentType = strings.TrimSpace(input.DocumentType)
	input.DocumentNumber = utils.NormalizeDocument(input.DocumentNumber)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = utils.NormalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
}

// Validate normalizes the input and checks the rules binding tags cannot express.
// The email format is checked here, after trimming, rather than in the binding tag.
func (input *PartyInput) Validate() error {
	input.Normalize()
	if input.DocumentType == "" || input.DocumentNumber == "" {
		return utils.NewValidationError("documentType and documentNumber are required")
	}
	if input.Name == "" {
		return utils.NewValidationError("name is required")
	}
	if !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email is not valid")
	}
	return validatePhone(input.Phone)
}

func validatePhone(phone string) error {
	if phone == "" || !config.PhoneValidationEnabled() {
		return nil
	}
	if err := utils.ValidatePhoneNumber(phone, config.DefaultCountryCode()); err != nil {
		return utils.NewValidationError("phone is not valid")
	}
	return nil
}

// PartyUpdate carries optional party fields on update requests. When any is
// present the party is re-resolved, which needs the identity plus name and email.
type PartyUpdate struct {
	DocumentType   *string `json:"documentType"`
	DocumentNumber *string `json:"documentNumber"`
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	Description    *string `json:"description"`
}

func (input *PartyUpdate) Present() bool {
	return input.DocumentType != nil || input.DocumentNumber != nil || input.Name != nil ||
		input.Email != nil || input.Phone != nil || input.Address != nil || input.Description != nil
}

// PartyInput converts a present update into a full PartyInput.
func (input *PartyUpdate) PartyInput() (*PartyInput, error) {
	if input.DocumentType == nil || input.DocumentNumber == nil || input.Name == nil || input.Email == nil {
		return nil, utils.NewValidationError("documentType, documentNumber, name and email are required to change the party")
	}
	party := &PartyInput{
		DocumentType:   *input.DocumentType,
		DocumentNumber: *input.DocumentNumber,
		Name:           *input.Name,
		Email:          *input.Email,
		Phone:          utils.DereferencePtr(input.Phone),
		Address:        utils.DereferencePtr(input.Address),
		Description:    utils.DereferencePtr(input.Description),
	}
	if err := party.Validate(); err != nil {
		return nil, err
	}
	return party, nil
}

/* workflow side */

// FindActiveParty returns the id of the active party with this identity, or utils.ErrorRecordNotFound.
func (s *GormStore) FindActiveParty(ctx context.Context, kind PartyKind, identity PartyIdentity) (int, error) {
	var ids []int
	err := s.db.WithContext(ctx).Table(kind.Table()).
		Where("document_type = ? AND document_number = ? AND estado = ?", identity.DocumentType, identity.DocumentNumber, true).
		Order("id").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, utils.StoreError("find "+kind.Table(), err)
	}
	if len(ids) == 0 {
		return 0, utils.ErrorRecordNotFound
	}
	return ids[0], nil
}

func (s *GormStore) InsertParty(ctx context.Context, kind PartyKind, identity PartyIdentity, attrs PartyAttributes) (int, error) {
	party := Party{
		DocumentType:   identity.DocumentType,
		DocumentNumber: identity.DocumentNumber,
		Name:           attrs.Name,
		Email:          attrs.Email,
		Phone:          attrs.Phone,
		Address:        attrs.Address,
		Description:    attrs.Description,
		Estado:         utils.NewTrue(),
	}
	if err := s.db.WithContext(ctx).Table(kind.Table()).Create(&party).Error; err != nil {
		return 0, utils.StoreError("create "+kind.Table(), err)
	}
	return party.ID, nil
}

func (s *GormStore) UpdatePartyAttributes(ctx context.Context, kind PartyKind, id int, attrs PartyAttributes) error {
	err := s.db.WithContext(ctx).Table(kind.Table()).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":        attrs.Name,
			"email":       attrs.Email,
			"phone":       attrs.Phone,
			"address":     attrs.Address,
			"description": attrs.Description,
			"updated_at":  time.Now(),
		}).Error
	return utils.StoreError("update "+kind.Table(), err)
}

/* catalog side */

func (s *GormStore) CreateParty(ctx context.Context, kind PartyKind, input *NewParty) (*Party, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.FindActiveParty(ctx, kind, input.Identity()); err == nil {
		return nil, utils.NewConflictError("%s with %s %s already exists", kind, input.DocumentType, input.DocumentNumber)
	} else if !isNotFound(err) {
		return nil, err
	}
	party := Party{
		DocumentType:   input.DocumentType,
		DocumentNumber: input.DocumentNumber,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
		Description:    input.Description,
		Estado:         utils.NewTrue(),
	}
	if input.Estado != nil {
		party.Estado = input.Estado
	}
	if err := s.db.WithContext(ctx).Table(kind.Table()).Create(&party).Error; err != nil {
		return nil, utils.StoreError("create "+kind.Table(), err)
	}
	return &party, nil
}

func (s *GormStore) GetParty(ctx context.Context, kind PartyKind, id int) (*Party, error) {
	var party Party
	err := s.db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Take(&party).Error
	if err != nil {
		if isNotFound(err) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, utils.StoreError("fetch "+kind.Table(), err)
	}
	return &party, nil
}

func (s *GormStore) UpdateParty(ctx context.Context, kind PartyKind, id int, input *NewParty) (*Party, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.GetParty(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	// identity may change only towards a pair no other active row holds
	if otherId, err := s.FindActiveParty(ctx, kind, input.Identity()); err == nil && otherId != existing.ID {
		return nil, utils.NewConflictError("%s with %s %s already exists", kind, input.DocumentType, input.DocumentNumber)
	} else if err != nil && !isNotFound(err) {
		return nil, err
	}
	fields := map[string]interface{}{
		"document_type":   input.DocumentType,
		"document_number": input.DocumentNumber,
		"name":            input.Name,
		"email":           input.Email,
		"phone":           input.Phone,
		"address":         input.Address,
		"description":     input.Description,
		"updated_at":      time.Now(),
	}
	if input.Estado != nil {
		fields["estado"] = *input.Estado
	}
	if err := s.db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, utils.StoreError("update "+kind.Table(), err)
	}
	return s.GetParty(ctx, kind, id)
}

// DeactivateParty sets estado=false; parties are never hard-deleted.
func (s *GormStore) DeactivateParty(ctx context.Context, kind PartyKind, id int) error {
	if _, err := s.GetParty(ctx, kind, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Table(kind.Table()).
		Where("id = ?", id).
		Updates(map[string]interface{}{"estado": false, "updated_at": time.Now()}).Error
	return utils.StoreError("deactivate "+kind.Table(), err)
}

func (s *GormStore) ListParties(ctx context.Context, kind PartyKind, query PartyQuery) ([]*Party, int64, error) {
	dbCtx := s.db.WithContext(ctx).Table(kind.Table())
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		dbCtx = dbCtx.Where("LOWER(name) LIKE ? OR document_number LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}
	if query.Estado != nil {
		dbCtx = dbCtx.Where("estado = ?", *query.Estado)
	}
	dbCtx = dbCtx.Session(&gorm.Session{})
	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, utils.StoreError("count "+kind.Table(), err)
	}
	var results []*Party
	if err := dbCtx.Scopes(query.PageRequest.Scope).Order("id DESC").Find(&results).Error; err != nil {
		return nil, 0, utils.StoreError("list "+kind.Table(), err)
	}
	return results, total, nil
}
