package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"mercato-backend/models"
	"mercato-backend/utils"
)

type CouponHandler struct {
	DB *gorm.DB
}

// GetMyCoupons lists every coupon of the caller's store, newest first.
func (h *CouponHandler) GetMyCoupons(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var coupons []models.Coupon
	if err := h.DB.Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&coupons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch coupons"})
		return
	}

	c.JSON(http.StatusOK, coupons)
}

func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var req struct {
		Code        string     `json:"code" binding:"required"`
		Description string     `json:"description"`
		Type        string     `json:"type" binding:"required,oneof=percent fixed"`
		Value       float64    `json:"value" binding:"required,gt=0"`
		MinSubtotal float64    `json:"min_subtotal" binding:"gte=0"`
		UsageLimit  int        `json:"usage_limit" binding:"gte=0"`
		IsActive    *bool      `json:"is_active"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Type == "percent" && req.Value > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Percent discount cannot exceed 100"})
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must be after start date"})
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	var existing int64
	h.DB.Model(&models.Coupon{}).
		Where("store_id = ? AND code = ?", storeID, code).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A coupon with this code already exists"})
		return
	}

	coupon := models.Coupon{
		StoreID:     storeID.(uuid.UUID),
		Code:        code,
		Description: req.Description,
		Type:        models.DiscountType(req.Type),
		Value:       req.Value,
		MinSubtotal: req.MinSubtotal,
		UsageLimit:  req.UsageLimit,
		IsActive:    true,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&coupon).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create coupon"})
		return
	}

	c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	couponID := c.Param("id")

	var coupon models.Coupon
	if err := h.DB.Where("id = ? AND store_id = ?", couponID, storeID).
		First(&coupon).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
		return
	}

	var req struct {
		Description *string    `json:"description"`
		Type        *string    `json:"type" binding:"omitempty,oneof=percent fixed"`
		Value       *float64   `json:"value" binding:"omitempty,gt=0"`
		MinSubtotal *float64   `json:"min_subtotal" binding:"omitempty,gte=0"`
		UsageLimit  *int       `json:"usage_limit" binding:"omitempty,gte=0"`
		IsActive    *bool      `json:"is_active"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Description != nil {
		coupon.Description = *req.Description
	}
	if req.Type != nil {
		coupon.Type = models.DiscountType(*req.Type)
	}
	if req.Value != nil {
		coupon.Value = *req.Value
	}
	if req.MinSubtotal != nil {
		coupon.MinSubtotal = *req.MinSubtotal
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = *req.UsageLimit
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.StartDate != nil {
		coupon.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		coupon.EndDate = req.EndDate
	}

	if coupon.Type == models.DiscountTypePercent && coupon.Value > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Percent discount cannot exceed 100"})
		return
	}

	if err := h.DB.Save(&coupon).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coupon"})
		return
	}

	c.JSON(http.StatusOK, coupon)
}

func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	couponID := c.Param("id")

	result := h.DB.Where("id = ? AND store_id = ?", couponID, storeID).
		Delete(&models.Coupon{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete coupon"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted successfully"})
}
