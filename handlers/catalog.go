package handlers

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"github.com/gin-gonic/gin"
)

/* clients and providers */

func (h *Handlers) listParties(kind models.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		estado, err := queryBool(c, "estado")
		if err != nil {
			respondError(c, string(kind), err)
			return
		}
		query := models.PartyQuery{
			Search:      strings.TrimSpace(c.Query("search")),
			Estado:      estado,
			PageRequest: pageRequest(c),
		}
		parties, total, err := h.catalog.ListParties(c.Request.Context(), kind, query)
		if err != nil {
			respondError(c, string(kind), err)
			return
		}
		respondList(c, parties, query.PageRequest, total)
	}
}

func (h *Handlers) getParty(kind models.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		party, err := h.catalog.GetParty(c.Request.Context(), kind, id)
		if err != nil {
			respondError(c, string(kind), err)
			return
		}
		respondData(c, http.StatusOK, party)
	}
}

func (h *Handlers) createParty(kind models.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewParty
		if !bindJSON(c, &input) {
			return
		}
		party, err := h.catalog.CreateParty(c.Request.Context(), kind, &input)
		if err != nil {
			respondError(c, string(kind), err)
			return
		}
		respondData(c, http.StatusCreated, party)
	}
}

func (h *Handlers) updateParty(kind models.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var input models.NewParty
		if !bindJSON(c, &input) {
			return
		}
		party, err := h.catalog.UpdateParty(c.Request.Context(), kind, id, &input)
		if err != nil {
			respondError(c, string(kind), err)
			return
		}
		respondData(c, http.StatusOK, party)
	}
}

func (h *Handlers) deactivateParty(kind models.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.catalog.DeactivateParty(c.Request.Context(), kind, id); err != nil {
			respondError(c, string(kind), err)
			return
		}
		respondMessage(c, string(kind)+" deactivated")
	}
}

/* products */

func (h *Handlers) listProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := models.ProductQuery{
			Search:      strings.TrimSpace(c.Query("search")),
			PageRequest: pageRequest(c),
		}
		products, total, err := h.catalog.ListProducts(c.Request.Context(), query)
		if err != nil {
			respondError(c, "product", err)
			return
		}
		respondList(c, products, query.PageRequest, total)
	}
}

func (h *Handlers) getProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		product, err := h.catalog.GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, "product", err)
			return
		}
		respondData(c, http.StatusOK, product)
	}
}

func (h *Handlers) createProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		if !bindJSON(c, &input) {
			return
		}
		product, err := h.catalog.CreateProduct(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "product", err)
			return
		}
		respondData(c, http.StatusCreated, product)
	}
}

func (h *Handlers) updateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var input models.NewProduct
		if !bindJSON(c, &input) {
			return
		}
		product, err := h.catalog.UpdateProduct(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "product", err)
			return
		}
		respondData(c, http.StatusOK, product)
	}
}

func (h *Handlers) deleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
			respondError(c, "product", err)
			return
		}
		respondMessage(c, "product deleted")
	}
}

// importProducts takes a multipart "file" xlsx and upserts products by code.
func (h *Handlers) importProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "file is required"})
			return
		}
		file, err := header.Open()
		if err != nil {
			respondError(c, "product", err)
			return
		}
		defer file.Close()

		imported, err := h.catalog.ImportProductsFromXlsx(c.Request.Context(), file)
		if err != nil {
			respondError(c, "product", err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"imported": imported})
	}
}
