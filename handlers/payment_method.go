package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"mercato-backend/models"
	"mercato-backend/utils"
)

type PaymentMethodHandler struct {
	DB *gorm.DB
}

// GetMyPaymentMethods lists all tenders of the caller's store, enabled or
// not, in display order.
func (h *PaymentMethodHandler) GetMyPaymentMethods(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var methods []models.PaymentMethod
	if err := h.DB.Where("store_id = ?", storeID).
		Order("sort_order ASC, created_at ASC").
		Find(&methods).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment methods"})
		return
	}

	c.JSON(http.StatusOK, methods)
}

func (h *PaymentMethodHandler) CreatePaymentMethod(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var req struct {
		Code         string `json:"code" binding:"required"`
		DisplayName  string `json:"display_name" binding:"required"`
		Instructions string `json:"instructions"`
		IsEnabled    *bool  `json:"is_enabled"`
		SortOrder    int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if !models.PaymentMethodCodes[req.Code] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method code"})
		return
	}

	var existing int64
	h.DB.Model(&models.PaymentMethod{}).
		Where("store_id = ? AND code = ?", storeID, req.Code).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "This payment method is already configured"})
		return
	}

	method := models.PaymentMethod{
		StoreID:      storeID.(uuid.UUID),
		Code:         req.Code,
		DisplayName:  req.DisplayName,
		Instructions: req.Instructions,
		IsEnabled:    true,
		SortOrder:    req.SortOrder,
	}
	if req.IsEnabled != nil {
		method.IsEnabled = *req.IsEnabled
	}

	if err := h.DB.Create(&method).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment method"})
		return
	}

	c.JSON(http.StatusCreated, method)
}

func (h *PaymentMethodHandler) UpdatePaymentMethod(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	methodID := c.Param("id")

	var method models.PaymentMethod
	if err := h.DB.Where("id = ? AND store_id = ?", methodID, storeID).
		First(&method).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment method not found"})
		return
	}

	var req struct {
		DisplayName  *string `json:"display_name"`
		Instructions *string `json:"instructions"`
		IsEnabled    *bool   `json:"is_enabled"`
		SortOrder    *int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.DisplayName != nil {
		method.DisplayName = *req.DisplayName
	}
	if req.Instructions != nil {
		method.Instructions = *req.Instructions
	}
	if req.IsEnabled != nil {
		method.IsEnabled = *req.IsEnabled
	}
	if req.SortOrder != nil {
		method.SortOrder = *req.SortOrder
	}

	if err := h.DB.Save(&method).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment method"})
		return
	}

	c.JSON(http.StatusOK, method)
}

func (h *PaymentMethodHandler) DeletePaymentMethod(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	methodID := c.Param("id")

	result := h.DB.Where("id = ? AND store_id = ?", methodID, storeID).
		Delete(&models.PaymentMethod{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete payment method"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment method not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted successfully"})
}
