// Package handlers is the REST surface: JSON over gin with
// {success, data} / {success:false, error} envelopes.
package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Catalog is the plain CRUD side: parties, products and the quotation export.
// models.GormStore implements it.
type Catalog interface {
	CreateParty(ctx context.Context, kind models.PartyKind, input *models.NewParty) (*models.Party, error)
	GetParty(ctx context.Context, kind models.PartyKind, id int) (*models.Party, error)
	UpdateParty(ctx context.Context, kind models.PartyKind, id int, input *models.NewParty) (*models.Party, error)
	DeactivateParty(ctx context.Context, kind models.PartyKind, id int) error
	ListParties(ctx context.Context, kind models.PartyKind, query models.PartyQuery) ([]*models.Party, int64, error)

	CreateProduct(ctx context.Context, input *models.NewProduct) (*models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int, input *models.NewProduct) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, query models.ProductQuery) ([]*models.Product, int64, error)
	ImportProductsFromXlsx(ctx context.Context, r io.Reader) (int, error)

	ExportQuotations(ctx context.Context, w io.Writer, from *time.Time, to *time.Time) (int, error)
}

type Handlers struct {
	catalog       Catalog
	quotations    *workflow.QuotationWorkflow
	orders        *workflow.OrderWorkflow
	consultations *workflow.ConsultationWorkflow
	logger        logrus.FieldLogger
}

func New(catalog Catalog, quotations *workflow.QuotationWorkflow, orders *workflow.OrderWorkflow,
	consultations *workflow.ConsultationWorkflow, logger logrus.FieldLogger) *Handlers {
	return &Handlers{
		catalog:       catalog,
		quotations:    quotations,
		orders:        orders,
		consultations: consultations,
		logger:        logger,
	}
}

// Register mounts every resource route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/status", StatusHandler())

	for _, kind := range []models.PartyKind{models.PartyKindClient, models.PartyKindProvider} {
		group := r.Group("/" + kind.Table())
		group.GET("", h.listParties(kind))
		group.GET("/:id", h.getParty(kind))
		group.POST("", h.createParty(kind))
		group.PUT("/:id", h.updateParty(kind))
		group.DELETE("/:id", h.deactivateParty(kind))
	}

	products := r.Group("/products")
	products.GET("", h.listProducts())
	products.GET("/:id", h.getProduct())
	products.POST("", h.createProduct())
	products.POST("/import", h.importProducts())
	products.PUT("/:id", h.updateProduct())
	products.DELETE("/:id", h.deleteProduct())

	quotations := r.Group("/quotations")
	quotations.GET("", h.listQuotations())
	quotations.GET("/export", h.exportQuotations())
	quotations.GET("/:id", h.getQuotation())
	quotations.POST("", h.createQuotation())
	quotations.PUT("/:id", h.updateQuotation())
	quotations.DELETE("/:id", h.deleteQuotation())

	orders := r.Group("/orders")
	orders.GET("", h.listOrders())
	orders.GET("/:id", h.getOrder())
	orders.POST("", h.createOrder())
	orders.PUT("/:id", h.updateOrder())
	orders.DELETE("/:id", h.deleteOrder())

	consultations := r.Group("/consultations")
	consultations.GET("", h.listConsultations())
	consultations.GET("/:id", h.getConsultation())
	consultations.POST("", h.createConsultation())
	consultations.PUT("/:id", h.updateConsultation())
	consultations.DELETE("/:id", h.deleteConsultation())
	consultations.POST("/:id/details", h.addConsultationDetail())
	consultations.PUT("/:id/details/:detailId", h.updateConsultationDetail())
	consultations.DELETE("/:id/details/:detailId", h.deleteConsultationDetail())
}

func NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
}
