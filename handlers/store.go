package handlers

import (
	"net/http"
	"strconv"
	"time"

	"mercato-backend/models"
	"mercato-backend/storestatus"
	"mercato-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type StoreHandler struct {
	DB *gorm.DB
}

// ========== Public Endpoints ==========

func (h *StoreHandler) GetNearestStore(c *gin.Context) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")

	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid latitude"})
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid longitude"})
		return
	}

	var stores []models.Store
	if err := h.DB.Preload("Hours").Where("is_active = ?", true).Find(&stores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stores"})
		return
	}

	var nearest *models.Store
	var nearestDistance float64 = -1

	for i := range stores {
		dist := utils.Haversine(lat, lng, stores[i].Latitude, stores[i].Longitude)
		if dist <= stores[i].DeliveryRadius && (nearestDistance < 0 || dist < nearestDistance) {
			nearest = &stores[i]
			nearestDistance = dist
		}
	}

	if nearest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No store delivers to your location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store":    nearest,
		"distance": nearestDistance,
	})
}

func (h *StoreHandler) ListActiveStores(c *gin.Context) {
	var stores []models.Store
	if err := h.DB.Preload("Hours").Where("is_active = ?", true).Order("name").Find(&stores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stores"})
		return
	}

	c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) GetStore(c *gin.Context) {
	id := c.Param("id")

	var store models.Store
	if err := h.DB.Preload("Hours").Where("id = ? AND is_active = ?", id, true).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	c.JSON(http.StatusOK, store)
}

// GetStoreStatus reports whether the store is currently accepting orders,
// evaluated against the store's local clock, along with the next time it will
// open and its full weekly hours.
func (h *StoreHandler) GetStoreStatus(c *gin.Context) {
	id := c.Param("id")

	var store models.Store
	if err := h.DB.Preload("Hours").Where("id = ? AND is_active = ?", id, true).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	now := time.Now().In(store.Location())
	result, err := storestatus.Evaluate(store.HourEntries(), store.ForceStatus, now)
	if err != nil {
		// Hours are validated on write, so this means the stored rows are corrupt
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store hours are misconfigured"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *StoreHandler) GetStoreCoupons(c *gin.Context) {
	storeID := c.Param("id")

	now := time.Now()
	var coupons []models.Coupon
	if err := h.DB.Where(
		"store_id = ? AND is_active = ? AND (start_date IS NULL OR start_date <= ?) AND (end_date IS NULL OR end_date >= ?)",
		storeID, true, now, now,
	).Find(&coupons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch coupons"})
		return
	}

	c.JSON(http.StatusOK, coupons)
}

func (h *StoreHandler) GetStorePaymentMethods(c *gin.Context) {
	storeID := c.Param("id")

	var methods []models.PaymentMethod
	if err := h.DB.Where("store_id = ? AND is_enabled = ?", storeID, true).
		Order("sort_order").Find(&methods).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment methods"})
		return
	}

	c.JSON(http.StatusOK, methods)
}

// ========== Admin Endpoints ==========

func (h *StoreHandler) ListStores(c *gin.Context) {
	var stores []models.Store
	if err := h.DB.Preload("Owner").Find(&stores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stores"})
		return
	}

	// Batch query: order counts for all stores in one GROUP BY
	type orderCountResult struct {
		StoreID    uuid.UUID `gorm:"column:store_id"`
		OrderCount int64     `gorm:"column:order_count"`
	}
	var counts []orderCountResult
	h.DB.Model(&models.Order{}).
		Select("store_id, count(*) as order_count").
		Group("store_id").
		Find(&counts)

	countMap := make(map[uuid.UUID]int64)
	for _, oc := range counts {
		countMap[oc.StoreID] = oc.OrderCount
	}

	type StoreWithStats struct {
		models.Store
		OrderCount int64 `json:"order_count"`
	}

	var result []StoreWithStats
	for _, s := range stores {
		result = append(result, StoreWithStats{
			Store:      s,
			OrderCount: countMap[s.ID],
		})
	}

	c.JSON(http.StatusOK, result)
}

func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req struct {
		Name            string  `json:"name" binding:"required"`
		Slug            string  `json:"slug" binding:"required"`
		OwnerEmail      string  `json:"owner_email" binding:"required,email"`
		OwnerName       string  `json:"owner_name"`
		OwnerPassword   string  `json:"owner_password" binding:"required,min=8"`
		Address         string  `json:"address"`
		City            string  `json:"city"`
		PostCode        string  `json:"post_code"`
		Latitude        float64 `json:"latitude" binding:"required"`
		Longitude       float64 `json:"longitude" binding:"required"`
		Timezone        string  `json:"timezone"`
		DeliveryRadius  float64 `json:"delivery_radius"`
		DeliveryFee     float64 `json:"delivery_fee"`
		FreeDeliveryMin float64 `json:"free_delivery_min"`
		Phone           string  `json:"phone"`
		Email           string  `json:"email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timezone"})
			return
		}
	}

	tx := h.DB.Begin()

	// Create or find the owner user, including soft-deleted accounts so we
	// don't trip the unique email constraint
	var owner models.User
	if err := tx.Unscoped().Where("email = ?", req.OwnerEmail).First(&owner).Error; err != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
		if err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		owner = models.User{
			ID:       uuid.New(),
			Email:    req.OwnerEmail,
			Password: string(hashedPassword),
			Name:     req.OwnerName,
			Role:     "store_owner",
		}

		if err := tx.Create(&owner).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create owner user"})
			return
		}
	} else if owner.DeletedAt.Valid {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
		if err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		if err := tx.Unscoped().Model(&owner).Updates(map[string]interface{}{
			"deleted_at": nil,
			"role":       "store_owner",
			"name":       req.OwnerName,
			"password":   string(hashedPassword),
		}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore owner user"})
			return
		}
	}
	// else: existing active user found, reuse as-is

	store := models.Store{
		Name:            req.Name,
		Slug:            req.Slug,
		OwnerID:         owner.ID,
		Address:         req.Address,
		City:            req.City,
		PostCode:        req.PostCode,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Timezone:        req.Timezone,
		DeliveryRadius:  req.DeliveryRadius,
		DeliveryFee:     req.DeliveryFee,
		FreeDeliveryMin: req.FreeDeliveryMin,
		Phone:           req.Phone,
		Email:           req.Email,
		ForceStatus:     storestatus.ForceStatusNormal,
		IsActive:        true,
	}

	if store.Timezone == "" {
		store.Timezone = "Europe/London"
	}
	if store.DeliveryRadius == 0 {
		store.DeliveryRadius = 5
	}
	if store.DeliveryFee == 0 {
		store.DeliveryFee = 4.99
	}
	if store.FreeDeliveryMin == 0 {
		store.FreeDeliveryMin = 50
	}

	if err := tx.Create(&store).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create store: " + err.Error()})
		return
	}

	tx.Model(&owner).Update("store_id", store.ID)

	// New stores open every day until the owner sets real hours
	for day := 0; day <= 6; day++ {
		hours := models.StoreHours{
			StoreID:   store.ID,
			DayOfWeek: day,
			OpenTime:  "09:00",
			CloseTime: "21:00",
		}
		tx.Create(&hours)
	}

	defaultMethods := []models.PaymentMethod{
		{StoreID: store.ID, Code: "cash", DisplayName: "Cash on delivery", IsEnabled: true, SortOrder: 1},
		{StoreID: store.ID, Code: "card_on_delivery", DisplayName: "Card on delivery", IsEnabled: true, SortOrder: 2},
	}
	for i := range defaultMethods {
		tx.Create(&defaultMethods[i])
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize store creation"})
		return
	}

	h.DB.Preload("Owner").Preload("Hours").First(&store, store.ID)
	c.JSON(http.StatusCreated, store)
}

func (h *StoreHandler) UpdateStore(c *gin.Context) {
	id := c.Param("id")

	var store models.Store
	if err := h.DB.Where("id = ?", id).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	var req struct {
		Name            *string  `json:"name"`
		Address         *string  `json:"address"`
		City            *string  `json:"city"`
		PostCode        *string  `json:"post_code"`
		Latitude        *float64 `json:"latitude"`
		Longitude       *float64 `json:"longitude"`
		Timezone        *string  `json:"timezone"`
		DeliveryRadius  *float64 `json:"delivery_radius"`
		DeliveryFee     *float64 `json:"delivery_fee"`
		FreeDeliveryMin *float64 `json:"free_delivery_min"`
		Phone           *string  `json:"phone"`
		Email           *string  `json:"email"`
		IsActive        *bool    `json:"is_active"`
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
	if req.Name != nil {
		store.Name = *req.Name
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
	if req.Latitude != nil {
		store.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		store.Longitude = *req.Longitude
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
	if req.Phone != nil {
		store.Phone = *req.Phone
	}
	if req.Email != nil {
		store.Email = *req.Email
	}
	if req.IsActive != nil {
		store.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store"})
		return
	}

	h.DB.Preload("Owner").Preload("Hours").First(&store, store.ID)
	c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) DeleteStore(c *gin.Context) {
	id := c.Param("id")

	var store models.Store
	if err := h.DB.Where("id = ?", id).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	// Check for dependencies before deleting
	var orderCount int64
	h.DB.Model(&models.Order{}).Where("store_id = ?", id).Count(&orderCount)

	var staffCount int64
	h.DB.Model(&models.StoreStaff{}).Where("store_id = ?", id).Count(&staffCount)

	var productCount int64
	h.DB.Model(&models.Product{}).Where("store_id = ?", id).Count(&productCount)

	if orderCount > 0 || staffCount > 0 || productCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":         "Cannot delete store with existing dependencies. Consider deactivating instead.",
			"order_count":   orderCount,
			"staff_count":   staffCount,
			"product_count": productCount,
		})
		return
	}

	if err := h.DB.Delete(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete store"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Store deleted successfully"})
}

func (h *StoreHandler) GetStoreOrders(c *gin.Context) {
	storeID := c.Param("id")

	var orders []models.Order
	if err := h.DB.Preload("Items").Preload("Items.Product").Preload("User").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}
