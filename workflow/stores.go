package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("quotes_backend/workflow")

// Clock returns the current instant; injected so document dates are testable.
type Clock func() time.Time

// PartyStore finds, inserts and refreshes clients and providers.
// FindActiveParty returns utils.ErrorRecordNotFound when no active row matches.
type PartyStore interface {
	FindActiveParty(ctx context.Context, kind models.PartyKind, identity models.PartyIdentity) (int, error)
	InsertParty(ctx context.Context, kind models.PartyKind, identity models.PartyIdentity, attrs models.PartyAttributes) (int, error)
	UpdatePartyAttributes(ctx context.Context, kind models.PartyKind, id int, attrs models.PartyAttributes) error
}

type QuotationStore interface {
	PartyStore
	CountQuotationsBetween(ctx context.Context, from time.Time, to time.Time) (int64, error)
	CreateQuotation(ctx context.Context, quotation *models.Quotation) error
	CreateQuotationDetails(ctx context.Context, details []models.QuotationDetail) error
	GetQuotation(ctx context.Context, id int) (*models.Quotation, error)
	UpdateQuotation(ctx context.Context, id int, fields map[string]interface{}) error
	DeleteQuotationDetails(ctx context.Context, quotationId int) error
	DeleteQuotation(ctx context.Context, id int) error
	ListQuotations(ctx context.Context, query models.QuotationQuery) ([]*models.Quotation, int64, error)
}

type OrderStore interface {
	PartyStore
	CountOrdersBetween(ctx context.Context, from time.Time, to time.Time) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderDetails(ctx context.Context, details []models.OrderDetail) error
	GetOrder(ctx context.Context, id int) (*models.Order, error)
	UpdateOrder(ctx context.Context, id int, fields map[string]interface{}) error
	DeleteOrderDetails(ctx context.Context, orderId int) error
	DeleteOrder(ctx context.Context, id int) error
	ListOrders(ctx context.Context, query models.OrderQuery) ([]*models.Order, int64, error)
}

type ConsultationStore interface {
	PartyStore
	CreateConsultation(ctx context.Context, consultation *models.Consultation) error
	GetConsultation(ctx context.Context, id int) (*models.Consultation, error)
	UpdateConsultation(ctx context.Context, id int, fields map[string]interface{}) error
	DeleteConsultation(ctx context.Context, id int) error
	ListConsultations(ctx context.Context, query models.ConsultationQuery) ([]*models.Consultation, int64, error)
	CreateConsultationDetail(ctx context.Context, detail *models.ConsultationDetail) error
	GetConsultationDetail(ctx context.Context, consultationId int, detailId int) (*models.ConsultationDetail, error)
	UpdateConsultationDetail(ctx context.Context, detailId int, fields map[string]interface{}) error
	DeleteConsultationDetail(ctx context.Context, consultationId int, detailId int) error
}

// SequenceLocker serializes code allocation for one key; the returned func releases it.
type SequenceLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
