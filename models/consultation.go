package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"gorm.io/gorm"
)

type Consultation struct {
	ID               int                  `gorm:"primary_key" json:"id"`
	Subject          string               `gorm:"size:200;not null" json:"subject"`
	Description      string               `gorm:"type:text;not null" json:"description"`
	ConsultationDate time.Time            `gorm:"not null;index" json:"consultationDate"`
	Estado           ConsultationStatus   `gorm:"size:20;not null;default:'abierta'" json:"estado"`
	Details          []ConsultationDetail `gorm:"foreignKey:ConsultationId" json:"details"`
	CreatedAt        time.Time            `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time            `gorm:"autoUpdateTime" json:"updatedAt"`
}

// ConsultationDetail references exactly one party: ClientId when PartyType is
// cliente, ProviderId when proveedor. The check constraint holds the other one null.
type ConsultationDetail struct {
	ID             int       `gorm:"primary_key" json:"id"`
	ConsultationId int       `gorm:"index;not null" json:"consultationId"`
	PartyType      PartyKind `gorm:"size:20;not null" json:"partyType"`
	ClientId       *int      `gorm:"index;check:chk_consultation_details_party,(client_id IS NULL) <> (provider_id IS NULL)" json:"clientId"`
	ProviderId     *int      `gorm:"index" json:"providerId"`
	ProductId      *int      `gorm:"index" json:"productId"`
	Comment        string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type ConsultationQuery struct {
	Estado ConsultationStatus
	Search string
	PageRequest
}

func (s *GormStore) CreateConsultation(ctx context.Context, consultation *Consultation) error {
	return insertRow(ctx, s.db, consultation)
}

func (s *GormStore) GetConsultation(ctx context.Context, id int) (*Consultation, error) {
	return fetchWithDetails[Consultation](ctx, s.db, id)
}

func (s *GormStore) UpdateConsultation(ctx context.Context, id int, fields map[string]interface{}) error {
	return updateFields[Consultation](ctx, s.db, id, fields)
}

func (s *GormStore) DeleteConsultation(ctx context.Context, id int) error {
	return deleteWithDetails[Consultation, ConsultationDetail](ctx, s.db, id, "consultation_id")
}

func (s *GormStore) ListConsultations(ctx context.Context, query ConsultationQuery) ([]*Consultation, int64, error) {
	dbCtx := s.db.WithContext(ctx).Model(&Consultation{})
	if query.Estado != "" {
		dbCtx = dbCtx.Where("estado = ?", query.Estado)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		dbCtx = dbCtx.Where("LOWER(subject) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	dbCtx = dbCtx.Session(&gorm.Session{})
	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, utils.StoreError("count consultations", err)
	}
	var results []*Consultation
	err := dbCtx.Scopes(query.PageRequest.Scope).
		Preload("Details", orderedDetails).
		Order("consultation_date DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, 0, utils.StoreError("list consultations", err)
	}
	return results, total, nil
}

func (s *GormStore) CreateConsultationDetail(ctx context.Context, detail *ConsultationDetail) error {
	return insertRow(ctx, s.db, detail)
}

// GetConsultationDetail is not found when the detail belongs to another consultation.
func (s *GormStore) GetConsultationDetail(ctx context.Context, consultationId int, detailId int) (*ConsultationDetail, error) {
	var detail ConsultationDetail
	err := s.db.WithContext(ctx).
		Where("id = ? AND consultation_id = ?", detailId, consultationId).
		Take(&detail).Error
	if err != nil {
		if isNotFound(err) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, utils.StoreError("fetch consultation detail", err)
	}
	return &detail, nil
}

func (s *GormStore) UpdateConsultationDetail(ctx context.Context, detailId int, fields map[string]interface{}) error {
	return updateFields[ConsultationDetail](ctx, s.db, detailId, fields)
}

func (s *GormStore) DeleteConsultationDetail(ctx context.Context, consultationId int, detailId int) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND consultation_id = ?", detailId, consultationId).
		Delete(&ConsultationDetail{})
	if result.Error != nil {
		return utils.StoreError("delete consultation detail", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
