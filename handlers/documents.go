package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func documentStatusFilter(c *gin.Context) (models.DocumentStatus, error) {
	status := models.DocumentStatus(strings.TrimSpace(c.Query("estado")))
	if status != "" && !status.IsValid() {
		return "", utils.NewValidationError("estado must be pendiente, en_proceso, completada or cancelada")
	}
	return status, nil
}

/* quotations */

func (h *Handlers) listQuotations() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := models.QuotationQuery{PageRequest: pageRequest(c)}
		var err error
		if query.Estado, err = documentStatusFilter(c); err != nil {
			respondError(c, "quotation", err)
			return
		}
		if query.ClientId, err = queryInt(c, "clientId"); err != nil {
			respondError(c, "quotation", err)
			return
		}
		if query.From, err = queryDate(c, "from"); err != nil {
			respondError(c, "quotation", err)
			return
		}
		if query.To, err = queryDateEnd(c, "to"); err != nil {
			respondError(c, "quotation", err)
			return
		}
		quotations, total, err := h.quotations.List(c.Request.Context(), query)
		if err != nil {
			respondError(c, "quotation", err)
			return
		}
		respondList(c, quotations, query.PageRequest, total)
	}
}

func (h *Handlers) getQuotation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		quotation, err := h.quotations.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, "quotation", err)
			return
		}
		respondData(c, http.StatusOK, quotation)
	}
}

func (h *Handlers) createQuotation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewQuotation
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "quotation", err)
			return
		}
		result, err := h.quotations.Create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "quotation", err)
			return
		}
		logSecondary(c, h.logger, "quotation", result.Quotation.ID, result.Secondary)
		respondData(c, http.StatusCreated, result.Quotation)
	}
}

func (h *Handlers) updateQuotation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var input models.QuotationUpdate
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "quotation", err)
			return
		}
		result, err := h.quotations.Update(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "quotation", err)
			return
		}
		logSecondary(c, h.logger, "quotation", id, result.Secondary)
		respondData(c, http.StatusOK, result.Quotation)
	}
}

func (h *Handlers) deleteQuotation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.quotations.Delete(c.Request.Context(), id); err != nil {
			respondError(c, "quotation", err)
			return
		}
		respondMessage(c, "quotation deleted")
	}
}

// exportQuotations streams an xlsx of quotations emitted in [from, to].
func (h *Handlers) exportQuotations() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := queryDate(c, "from")
		if err != nil {
			respondError(c, "quotation", err)
			return
		}
		to, err := queryDateEnd(c, "to")
		if err != nil {
			respondError(c, "quotation", err)
			return
		}
		var buf bytes.Buffer
		if _, err := h.catalog.ExportQuotations(c.Request.Context(), &buf, from, to); err != nil {
			respondError(c, "quotation", err)
			return
		}
		filename := fmt.Sprintf("quotations-%s.xlsx", time.Now().In(config.AppLocation()).Format("20060102"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

/* orders */

func (h *Handlers) listOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := models.OrderQuery{PageRequest: pageRequest(c)}
		var err error
		if query.Estado, err = documentStatusFilter(c); err != nil {
			respondError(c, "order", err)
			return
		}
		if query.ProviderId, err = queryInt(c, "providerId"); err != nil {
			respondError(c, "order", err)
			return
		}
		orders, total, err := h.orders.List(c.Request.Context(), query)
		if err != nil {
			respondError(c, "order", err)
			return
		}
		respondList(c, orders, query.PageRequest, total)
	}
}

func (h *Handlers) getOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		order, err := h.orders.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, "order", err)
			return
		}
		respondData(c, http.StatusOK, order)
	}
}

func (h *Handlers) createOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewOrder
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "order", err)
			return
		}
		result, err := h.orders.Create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "order", err)
			return
		}
		logSecondary(c, h.logger, "order", result.Order.ID, result.Secondary)
		respondData(c, http.StatusCreated, result.Order)
	}
}

func (h *Handlers) updateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var input models.OrderUpdate
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "order", err)
			return
		}
		result, err := h.orders.Update(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "order", err)
			return
		}
		logSecondary(c, h.logger, "order", id, result.Secondary)
		respondData(c, http.StatusOK, result.Order)
	}
}

func (h *Handlers) deleteOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.orders.Delete(c.Request.Context(), id); err != nil {
			respondError(c, "order", err)
			return
		}
		respondMessage(c, "order deleted")
	}
}
