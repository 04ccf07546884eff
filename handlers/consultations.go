package handlers

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) listConsultations() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := models.ConsultationQuery{
			Estado:      models.ConsultationStatus(strings.TrimSpace(c.Query("estado"))),
			Search:      strings.TrimSpace(c.Query("search")),
			PageRequest: pageRequest(c),
		}
		if query.Estado != "" && !query.Estado.IsValid() {
			respondError(c, "consultation", utils.NewValidationError("estado must be abierta or cerrada"))
			return
		}
		consultations, total, err := h.consultations.List(c.Request.Context(), query)
		if err != nil {
			respondError(c, "consultation", err)
			return
		}
		respondList(c, consultations, query.PageRequest, total)
	}
}

func (h *Handlers) getConsultation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		consultation, err := h.consultations.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, "consultation", err)
			return
		}
		respondData(c, http.StatusOK, consultation)
	}
}

func (h *Handlers) createConsultation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewConsultation
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "consultation", err)
			return
		}
		result, err := h.consultations.Create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "consultation", err)
			return
		}
		logSecondary(c, h.logger, "consultation", result.Consultation.ID, result.Secondary)
		respondData(c, http.StatusCreated, result.Consultation)
	}
}

func (h *Handlers) updateConsultation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var input models.ConsultationUpdate
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "consultation", err)
			return
		}
		result, err := h.consultations.Update(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "consultation", err)
			return
		}
		respondData(c, http.StatusOK, result.Consultation)
	}
}

func (h *Handlers) deleteConsultation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.consultations.Delete(c.Request.Context(), id); err != nil {
			respondError(c, "consultation", err)
			return
		}
		respondMessage(c, "consultation deleted")
	}
}

func (h *Handlers) addConsultationDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var input models.NewConsultationDetail
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "consultation", err)
			return
		}
		result, err := h.consultations.AddDetail(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "consultation", err)
			return
		}
		logSecondary(c, h.logger, "consultation_detail", result.Detail.ID, result.Secondary)
		respondData(c, http.StatusCreated, result.Detail)
	}
}

func (h *Handlers) updateConsultationDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		detailId, ok := pathID(c, "detailId")
		if !ok {
			return
		}
		var input models.ConsultationDetailUpdate
		if !bindJSON(c, &input) {
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, "consultation detail", err)
			return
		}
		result, err := h.consultations.UpdateDetail(c.Request.Context(), id, detailId, &input)
		if err != nil {
			respondError(c, "consultation detail", err)
			return
		}
		logSecondary(c, h.logger, "consultation_detail", detailId, result.Secondary)
		respondData(c, http.StatusOK, result.Detail)
	}
}

func (h *Handlers) deleteConsultationDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		detailId, ok := pathID(c, "detailId")
		if !ok {
			return
		}
		if err := h.consultations.DeleteDetail(c.Request.Context(), id, detailId); err != nil {
			respondError(c, "consultation detail", err)
			return
		}
		respondMessage(c, "consultation detail deleted")
	}
}
