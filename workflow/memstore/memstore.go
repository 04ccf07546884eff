// Package memstore is an in-memory store for workflow and handler tests. It
// implements every workflow store interface and can inject store failures.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu            sync.Mutex
	nextID        int
	parties       map[models.PartyKind]map[int]*models.Party
	quotations    map[int]*models.Quotation
	orders        map[int]*models.Order
	consultations map[int]*models.Consultation
	details       map[int]*models.ConsultationDetail

	// failures returned by the matching operations when set
	FailFindParty          error
	FailInsertParty        error
	FailUpdateParty        error
	FailCreateRecord       error
	FailCreateLineItems    error
	FailDeleteLineItems    error
	FailCreateConsultation error
	FailCreateDetail       error
}

func New() *Store {
	return &Store{
		parties: map[models.PartyKind]map[int]*models.Party{
			models.PartyKindClient:   {},
			models.PartyKindProvider: {},
		},
		quotations:    map[int]*models.Quotation{},
		orders:        map[int]*models.Order{},
		consultations: map[int]*models.Consultation{},
		details:       map[int]*models.ConsultationDetail{},
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

/* parties */

func (s *Store) FindActiveParty(_ context.Context, kind models.PartyKind, identity models.PartyIdentity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFindParty != nil {
		return 0, s.FailFindParty
	}
	ids := make([]int, 0)
	for id, p := range s.parties[kind] {
		if p.DocumentType == identity.DocumentType && p.DocumentNumber == identity.DocumentNumber && utils.DereferencePtr(p.Estado) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, utils.ErrorRecordNotFound
	}
	sort.Ints(ids)
	return ids[0], nil
}

func (s *Store) InsertParty(_ context.Context, kind models.PartyKind, identity models.PartyIdentity, attrs models.PartyAttributes) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsertParty != nil {
		return 0, s.FailInsertParty
	}
	party := &models.Party{
		ID:             s.id(),
		DocumentType:   identity.DocumentType,
		DocumentNumber: identity.DocumentNumber,
		Name:           attrs.Name,
		Email:          attrs.Email,
		Phone:          attrs.Phone,
		Address:        attrs.Address,
		Description:    attrs.Description,
		Estado:         utils.NewTrue(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	s.parties[kind][party.ID] = party
	return party.ID, nil
}

func (s *Store) UpdatePartyAttributes(_ context.Context, kind models.PartyKind, id int, attrs models.PartyAttributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdateParty != nil {
		return s.FailUpdateParty
	}
	party, ok := s.parties[kind][id]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	party.Name = attrs.Name
	party.Email = attrs.Email
	party.Phone = attrs.Phone
	party.Address = attrs.Address
	party.Description = attrs.Description
	party.UpdatedAt = time.Now()
	return nil
}

// Party returns a copy of a stored party, or nil.
func (s *Store) Party(kind models.PartyKind, id int) *models.Party {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[kind][id]
	if !ok {
		return nil
	}
	out := *party
	return &out
}

func (s *Store) PartyCount(kind models.PartyKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parties[kind])
}

// SetPartyActive flips estado on a stored party.
func (s *Store) SetPartyActive(kind models.PartyKind, id int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if party, ok := s.parties[kind][id]; ok {
		party.Estado = &active
	}
}

/* quotations */

func (s *Store) CountQuotationsBetween(_ context.Context, from time.Time, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, q := range s.quotations {
		if !q.EmissionDate.Before(from) && q.EmissionDate.Before(to) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateQuotation(_ context.Context, quotation *models.Quotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateRecord != nil {
		return s.FailCreateRecord
	}
	quotation.ID = s.id()
	quotation.CreatedAt = time.Now()
	quotation.UpdatedAt = quotation.CreatedAt
	stored := *quotation
	stored.Details = nil
	s.quotations[quotation.ID] = &stored
	return nil
}

func (s *Store) CreateQuotationDetails(_ context.Context, details []models.QuotationDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateLineItems != nil {
		return s.FailCreateLineItems
	}
	for i := range details {
		q, ok := s.quotations[details[i].QuotationId]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		details[i].ID = s.id()
		q.Details = append(q.Details, details[i])
	}
	return nil
}

func (s *Store) GetQuotation(_ context.Context, id int) (*models.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotations[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return copyQuotation(q), nil
}

func (s *Store) UpdateQuotation(_ context.Context, id int, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotations[id]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "client_id":
			q.ClientId = v.(int)
		case "due_date":
			q.DueDate = nil
			if t, ok := v.(time.Time); ok {
				q.DueDate = &t
			}
		case "notes":
			q.Notes = v.(string)
		case "estado":
			q.Estado = v.(models.DocumentStatus)
		case "subtotal":
			q.Subtotal = v.(decimal.Decimal)
		case "tax":
			q.Tax = v.(decimal.Decimal)
		case "discount":
			q.Discount = v.(decimal.Decimal)
		case "total":
			q.Total = v.(decimal.Decimal)
		case "updated_at":
			q.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (s *Store) DeleteQuotationDetails(_ context.Context, quotationId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDeleteLineItems != nil {
		return s.FailDeleteLineItems
	}
	if q, ok := s.quotations[quotationId]; ok {
		q.Details = nil
	}
	return nil
}

func (s *Store) DeleteQuotation(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotations[id]; !ok {
		return utils.ErrorRecordNotFound
	}
	delete(s.quotations, id)
	return nil
}

func (s *Store) ListQuotations(_ context.Context, query models.QuotationQuery) ([]*models.Quotation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]*models.Quotation, 0)
	for _, q := range s.quotations {
		if query.Estado != "" && q.Estado != query.Estado {
			continue
		}
		if query.ClientId > 0 && q.ClientId != query.ClientId {
			continue
		}
		matched = append(matched, copyQuotation(q))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return page(matched, query.PageRequest), int64(len(matched)), nil
}

func copyQuotation(q *models.Quotation) *models.Quotation {
	out := *q
	out.Details = append([]models.QuotationDetail{}, q.Details...)
	return &out
}

/* orders */

func (s *Store) CountOrdersBetween(_ context.Context, from time.Time, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, o := range s.orders {
		if !o.OrderDate.Before(from) && o.OrderDate.Before(to) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateRecord != nil {
		return s.FailCreateRecord
	}
	order.ID = s.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	stored.Details = nil
	s.orders[order.ID] = &stored
	return nil
}

func (s *Store) CreateOrderDetails(_ context.Context, details []models.OrderDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateLineItems != nil {
		return s.FailCreateLineItems
	}
	for i := range details {
		o, ok := s.orders[details[i].OrderId]
		if !ok {
			return utils.ErrorRecordNotFound
		}
		details[i].ID = s.id()
		o.Details = append(o.Details, details[i])
	}
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) UpdateOrder(_ context.Context, id int, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "provider_id":
			o.ProviderId = v.(int)
		case "expected_date":
			o.ExpectedDate = nil
			if t, ok := v.(time.Time); ok {
				o.ExpectedDate = &t
			}
		case "notes":
			o.Notes = v.(string)
		case "estado":
			o.Estado = v.(models.DocumentStatus)
		case "subtotal":
			o.Subtotal = v.(decimal.Decimal)
		case "tax":
			o.Tax = v.(decimal.Decimal)
		case "discount":
			o.Discount = v.(decimal.Decimal)
		case "total":
			o.Total = v.(decimal.Decimal)
		case "updated_at":
			o.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (s *Store) DeleteOrderDetails(_ context.Context, orderId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDeleteLineItems != nil {
		return s.FailDeleteLineItems
	}
	if o, ok := s.orders[orderId]; ok {
		o.Details = nil
	}
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return utils.ErrorRecordNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) ListOrders(_ context.Context, query models.OrderQuery) ([]*models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]*models.Order, 0)
	for _, o := range s.orders {
		if query.Estado != "" && o.Estado != query.Estado {
			continue
		}
		if query.ProviderId > 0 && o.ProviderId != query.ProviderId {
			continue
		}
		matched = append(matched, copyOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return page(matched, query.PageRequest), int64(len(matched)), nil
}

func copyOrder(o *models.Order) *models.Order {
	out := *o
	out.Details = append([]models.OrderDetail{}, o.Details...)
	return &out
}

/* consultations */

func (s *Store) CreateConsultation(_ context.Context, consultation *models.Consultation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateConsultation != nil {
		return s.FailCreateConsultation
	}
	consultation.ID = s.id()
	consultation.CreatedAt = time.Now()
	consultation.UpdatedAt = consultation.CreatedAt
	stored := *consultation
	stored.Details = nil
	s.consultations[consultation.ID] = &stored
	return nil
}

func (s *Store) GetConsultation(_ context.Context, id int) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consultations[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return s.copyConsultation(c), nil
}

func (s *Store) UpdateConsultation(_ context.Context, id int, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consultations[id]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "subject":
			c.Subject = v.(string)
		case "description":
			c.Description = v.(string)
		case "consultation_date":
			c.ConsultationDate = v.(time.Time)
		case "estado":
			c.Estado = v.(models.ConsultationStatus)
		case "updated_at":
			c.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (s *Store) DeleteConsultation(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.consultations[id]; !ok {
		return utils.ErrorRecordNotFound
	}
	for detailId, d := range s.details {
		if d.ConsultationId == id {
			delete(s.details, detailId)
		}
	}
	delete(s.consultations, id)
	return nil
}

func (s *Store) ListConsultations(_ context.Context, query models.ConsultationQuery) ([]*models.Consultation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]*models.Consultation, 0)
	for _, c := range s.consultations {
		if query.Estado != "" && c.Estado != query.Estado {
			continue
		}
		if query.Search != "" && !strings.Contains(strings.ToLower(c.Subject), strings.ToLower(query.Search)) {
			continue
		}
		matched = append(matched, s.copyConsultation(c))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return page(matched, query.PageRequest), int64(len(matched)), nil
}

func (s *Store) CreateConsultationDetail(_ context.Context, detail *models.ConsultationDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateDetail != nil {
		return s.FailCreateDetail
	}
	if _, ok := s.consultations[detail.ConsultationId]; !ok {
		return utils.ErrorRecordNotFound
	}
	detail.ID = s.id()
	detail.CreatedAt = time.Now()
	detail.UpdatedAt = detail.CreatedAt
	stored := *detail
	s.details[detail.ID] = &stored
	return nil
}

func (s *Store) GetConsultationDetail(_ context.Context, consultationId int, detailId int) (*models.ConsultationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[detailId]
	if !ok || d.ConsultationId != consultationId {
		return nil, utils.ErrorRecordNotFound
	}
	out := *d
	return &out, nil
}

func (s *Store) UpdateConsultationDetail(_ context.Context, detailId int, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[detailId]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "party_type":
			d.PartyType = v.(models.PartyKind)
		case "client_id":
			d.ClientId = intPtr(v)
		case "provider_id":
			d.ProviderId = intPtr(v)
		case "product_id":
			d.ProductId = intPtr(v)
		case "comment":
			d.Comment = v.(string)
		case "updated_at":
			d.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (s *Store) DeleteConsultationDetail(_ context.Context, consultationId int, detailId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[detailId]
	if !ok || d.ConsultationId != consultationId {
		return utils.ErrorRecordNotFound
	}
	delete(s.details, detailId)
	return nil
}

func (s *Store) copyConsultation(c *models.Consultation) *models.Consultation {
	out := *c
	out.Details = []models.ConsultationDetail{}
	ids := make([]int, 0)
	for id, d := range s.details {
		if d.ConsultationId == c.ID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		out.Details = append(out.Details, *s.details[id])
	}
	return &out
}

func intPtr(v interface{}) *int {
	if v == nil {
		return nil
	}
	n := v.(int)
	return &n
}

func page[T any](items []T, p models.PageRequest) []T {
	p = models.NewPageRequest(p.Page, p.Limit)
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
