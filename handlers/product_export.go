package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mercato-backend/models"
)

// GetMyProductsExport returns the store's full catalog without pagination,
// for spreadsheet export in the portal.
func (h *ProductHandler) GetMyProductsExport(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var products []models.Product
	if err := h.DB.Preload("Category").Preload("Images").
		Where("store_id = ?", storeID).
		Order("name ASC").
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}
