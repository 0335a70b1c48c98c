package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"mercato-backend/firebase"
	"mercato-backend/models"
	"mercato-backend/storestatus"
	"mercato-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PortalHandler serves the store portal: everything an owner or staff member
// manages about their own store.
type PortalHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

func (h *PortalHandler) GetMyStore(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var store models.Store
	if err := h.DB.Preload("Hours").Preload("Staff").Preload("Staff.User").Preload("PaymentMethods").
		Where("id = ?", storeID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	c.JSON(http.StatusOK, store)
}

func (h *PortalHandler) UpdateMyStore(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var store models.Store
	if err := h.DB.Where("id = ?", storeID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	var req struct {
		Address         *string  `json:"address"`
		City            *string  `json:"city"`
		PostCode        *string  `json:"post_code"`
		Phone           *string  `json:"phone"`
		Email           *string  `json:"email"`
		Timezone        *string  `json:"timezone"`
		DeliveryRadius  *float64 `json:"delivery_radius"`
		DeliveryFee     *float64 `json:"delivery_fee"`
		FreeDeliveryMin *float64 `json:"free_delivery_min"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timezone"})
			return
		}
		store.Timezone = *req.Timezone
	}
	if req.Address != nil {
		store.Address = *req.Address
	}
	if req.City != nil {
		store.City = *req.City
	}
	if req.PostCode != nil {
		store.PostCode = *req.PostCode
	}
	if req.Phone != nil {
		store.Phone = *req.Phone
	}
	if req.Email != nil {
		store.Email = *req.Email
	}
	if req.DeliveryRadius != nil {
		store.DeliveryRadius = *req.DeliveryRadius
	}
	if req.DeliveryFee != nil {
		store.DeliveryFee = *req.DeliveryFee
	}
	if req.FreeDeliveryMin != nil {
		store.FreeDeliveryMin = *req.FreeDeliveryMin
	}

	if err := h.DB.Save(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store"})
		return
	}

	h.DB.Preload("Hours").First(&store, store.ID)
	c.JSON(http.StatusOK, store)
}

func (h *PortalHandler) UploadLogo(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var store models.Store
	if err := h.DB.Where("id = ?", storeID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	file, header, err := c.Request.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Logo file is required"})
		return
	}
	defer file.Close()

	if err := utils.ValidateFileUpload(header); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.Storage.UploadStoreLogo(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload logo"})
		return
	}

	// Best effort cleanup of the previous logo
	if store.LogoURL != "" {
		if path, err := utils.ExtractObjectPath(store.LogoURL); err == nil {
			h.Storage.DeleteFile(path)
		}
	}

	h.DB.Model(&store).Update("logo_url", url)
	c.JSON(http.StatusOK, gin.H{"logo_url": url})
}

// ========== Opening Hours ==========

func (h *PortalHandler) GetStoreHours(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var hours []models.StoreHours
	if err := h.DB.Where("store_id = ?", storeID).
		Order("day_of_week, open_time").Find(&hours).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch store hours"})
		return
	}

	c.JSON(http.StatusOK, hours)
}

// ReplaceStoreHours swaps the whole weekly schedule in one transaction. A day
// may carry several windows (split shifts) and a day with no entries is
// closed. Every window is validated before anything is written.
func (h *PortalHandler) ReplaceStoreHours(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	sID := storeID.(uuid.UUID)

	var req struct {
		Hours []struct {
			DayOfWeek int    `json:"day_of_week"`
			OpenTime  string `json:"open_time" binding:"required"`
			CloseTime string `json:"close_time" binding:"required"`
		} `json:"hours"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	for _, w := range req.Hours {
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("day_of_week must be 0-6, got %d", w.DayOfWeek),
			})
			return
		}
		if !storestatus.IsValidClockTime(w.OpenTime) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid open time '%s' for day %d; use HH:MM or HH:MM:SS", w.OpenTime, w.DayOfWeek),
			})
			return
		}
		if !storestatus.IsValidClockTime(w.CloseTime) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid close time '%s' for day %d; use HH:MM or HH:MM:SS", w.CloseTime, w.DayOfWeek),
			})
			return
		}
		// Overnight windows are not supported; close must be later the same day
		if w.CloseTime <= w.OpenTime {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Close time (%s) must be after open time (%s) for day %d", w.CloseTime, w.OpenTime, w.DayOfWeek),
			})
			return
		}
	}

	tx := h.DB.Begin()

	if err := tx.Where("store_id = ?", sID).Delete(&models.StoreHours{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store hours"})
		return
	}

	for _, w := range req.Hours {
		row := models.StoreHours{
			StoreID:   sID,
			DayOfWeek: w.DayOfWeek,
			OpenTime:  w.OpenTime,
			CloseTime: w.CloseTime,
		}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store hours"})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store hours"})
		return
	}

	var hours []models.StoreHours
	h.DB.Where("store_id = ?", sID).Order("day_of_week, open_time").Find(&hours)
	c.JSON(http.StatusOK, hours)
}

// UpdateForceStatus sets the manual override: force_open keeps the store
// accepting orders outside its hours, force_closed stops orders immediately,
// normal hands control back to the weekly schedule.
func (h *PortalHandler) UpdateForceStatus(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var req struct {
		ForceStatus storestatus.ForceStatus `json:"force_status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if !req.ForceStatus.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "force_status must be 'normal', 'force_open' or 'force_closed'"})
		return
	}

	var store models.Store
	if err := h.DB.Preload("Hours").Where("id = ?", storeID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	if err := h.DB.Model(&store).Update("force_status", req.ForceStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update force status"})
		return
	}
	store.ForceStatus = req.ForceStatus

	// Echo the effective status so the portal can update immediately
	now := time.Now().In(store.Location())
	result, err := storestatus.Evaluate(store.HourEntries(), store.ForceStatus, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store hours are misconfigured"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ========== Orders ==========

func (h *PortalHandler) GetMyOrders(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var orders []models.Order
	query := h.DB.Preload("Items").Preload("Items.Product").Preload("Items.Product.Images").Preload("User").
		Where("store_id = ?", storeID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *PortalHandler) UpdateOrderStatus(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	orderID := c.Param("id")

	var order models.Order
	if err := h.DB.Where("id = ? AND store_id = ?", orderID, storeID).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if !models.IsValidTransition(order.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status transition from '%s' to '%s'", order.Status, req.Status),
		})
		return
	}

	order.Status = req.Status
	if err := h.DB.Save(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	// Restore stock on cancellation
	if req.Status == models.OrderStatusCancelled {
		var items []models.OrderItem
		h.DB.Where("order_id = ?", order.ID).Find(&items)
		for _, item := range items {
			h.DB.Model(&models.Product{}).Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity))
		}
	}

	h.DB.Preload("Items").Preload("Items.Product").Preload("User").First(&order, order.ID)

	// Send status update email (non-blocking)
	if order.User.Email != "" {
		utils.SendOrderStatusUpdate(order.User.Email, order.User.Name, order.OrderNumber, string(req.Status))
	}

	c.JSON(http.StatusOK, order)
}

// ========== Staff ==========

func (h *PortalHandler) GetMyStaff(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var staff []models.StoreStaff
	if err := h.DB.Preload("User").Where("store_id = ?", storeID).Find(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch staff"})
		return
	}

	c.JSON(http.StatusOK, staff)
}

func (h *PortalHandler) InviteStaff(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	sID := storeID.(uuid.UUID)

	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role"` // manager or staff
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Role == "" {
		req.Role = "staff"
	}
	if req.Role != "manager" && req.Role != "staff" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be 'manager' or 'staff'"})
		return
	}

	tx := h.DB.Begin()

	var user models.User
	if err := tx.Where("email = ?", req.Email).First(&user).Error; err != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		user = models.User{
			ID:       uuid.New(),
			Email:    req.Email,
			Password: string(hashedPassword),
			Name:     req.Name,
			Role:     "store_staff",
			StoreID:  &sID,
		}

		if err := tx.Create(&user).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
	} else {
		tx.Model(&user).Updates(map[string]interface{}{
			"store_id": sID,
			"role":     "store_staff",
		})
	}

	staff := models.StoreStaff{
		StoreID: sID,
		UserID:  user.ID,
		Role:    req.Role,
	}

	if err := tx.Create(&staff).Error; err != nil {
		tx.Rollback()
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already staff at a store"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add staff"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete operation"})
		return
	}

	h.DB.Preload("User").First(&staff, staff.ID)
	c.JSON(http.StatusCreated, staff)
}

func (h *PortalHandler) RemoveStaff(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	staffID := c.Param("id")

	var staff models.StoreStaff
	if err := h.DB.Where("id = ? AND store_id = ?", staffID, storeID).First(&staff).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}

	h.DB.Model(&models.User{}).Where("id = ?", staff.UserID).Updates(map[string]interface{}{
		"store_id": nil,
		"role":     "customer",
	})

	if err := h.DB.Delete(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove staff"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Staff member removed"})
}

// ========== Dashboard ==========

func (h *PortalHandler) GetDashboard(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	var totalRevenue float64
	var totalOrders int64
	var todayOrders int64
	today := time.Now().Truncate(24 * time.Hour)

	h.DB.Model(&models.Order{}).Where("store_id = ?", storeID).Count(&totalOrders)
	h.DB.Model(&models.Order{}).Where("store_id = ?", storeID).
		Select("COALESCE(SUM(total), 0)").Scan(&totalRevenue)
	h.DB.Model(&models.Order{}).Where("store_id = ? AND created_at >= ?", storeID, today).Count(&todayOrders)

	var pendingOrders int64
	h.DB.Model(&models.Order{}).Where("store_id = ? AND status IN ?", storeID,
		[]string{"pending", "confirmed", "preparing"}).Count(&pendingOrders)

	var lowStockCount int64
	h.DB.Model(&models.Product{}).
		Where("store_id = ? AND stock <= ? AND is_available = ?", storeID, 5, true).
		Count(&lowStockCount)

	var recentOrders []models.Order
	h.DB.Preload("Items").Preload("User").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(10).
		Find(&recentOrders)

	var todayRevenue float64
	h.DB.Model(&models.Order{}).
		Where("store_id = ? AND created_at >= ?", storeID, today).
		Select("COALESCE(SUM(total), 0)").Scan(&todayRevenue)

	var staffCount int64
	h.DB.Model(&models.StoreStaff{}).Where("store_id = ?", storeID).Count(&staffCount)

	var productCount int64
	h.DB.Model(&models.Product{}).Where("store_id = ?", storeID).Count(&productCount)

	c.JSON(http.StatusOK, gin.H{
		"total_revenue":    totalRevenue,
		"total_orders":     totalOrders,
		"today_orders":     todayOrders,
		"today_revenue":    todayRevenue,
		"pending_orders":   pendingOrders,
		"low_stock_alerts": lowStockCount,
		"staff_count":      staffCount,
		"product_count":    productCount,
		"recent_orders":    recentOrders,
	})
}
