package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mercato-backend/models"
	"mercato-backend/storestatus"
	"mercato-backend/utils"
)

type OrderHandler struct {
	DB *gorm.DB
}

// CreateOrder converts the caller's cart into an order. The cart holds items
// from a single store; that store must be active and currently open, the
// chosen tender must be one the store has enabled, and stock is decremented
// under row locks so concurrent checkouts cannot oversell.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req struct {
		DeliveryAddress string   `json:"delivery_address" binding:"required"`
		PaymentMethod   string   `json:"payment_method" binding:"required"`
		CouponCode      string   `json:"coupon_code"`
		CustomerLat     *float64 `json:"customer_lat"`
		CustomerLng     *float64 `json:"customer_lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !models.PaymentMethodCodes[req.PaymentMethod] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method"})
		return
	}

	var cartItems []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).
		Preload("Product").
		Preload("Product.Images").
		Find(&cartItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	storeID := cartItems[0].StoreID
	for _, item := range cartItems {
		if item.StoreID != storeID {
			c.JSON(http.StatusConflict, gin.H{"error": "Cart contains items from multiple stores"})
			return
		}
	}

	var store models.Store
	if err := h.DB.Preload("Hours").First(&store, "id = ?", storeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}
	if !store.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Store is not accepting orders"})
		return
	}

	// Gate checkout on the store's live open/closed state, evaluated in
	// the store's own timezone.
	now := time.Now().In(store.Location())
	status, err := storestatus.Evaluate(store.HourEntries(), store.ForceStatus, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store hours are misconfigured"})
		return
	}
	if !status.IsOpen {
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Store is currently closed",
			"next_open_time": status.NextOpening,
		})
		return
	}

	var method models.PaymentMethod
	if err := h.DB.Where("store_id = ? AND code = ? AND is_enabled = ?", store.ID, req.PaymentMethod, true).
		First(&method).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method not accepted by this store"})
		return
	}

	var subtotal float64
	for _, item := range cartItems {
		if !item.Product.IsAvailable {
			c.JSON(http.StatusBadRequest, gin.H{"error": item.Product.Name + " is no longer available"})
			return
		}
		subtotal += item.Product.Price * float64(item.Quantity)
	}

	// Coupon, resolved outside the transaction but counted inside it.
	var coupon *models.Coupon
	var discount float64
	if req.CouponCode != "" {
		code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
		var found models.Coupon
		if err := h.DB.Where("store_id = ? AND code = ?", store.ID, code).First(&found).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coupon code"})
			return
		}
		if !found.Redeemable(subtotal, time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Coupon cannot be applied to this order"})
			return
		}
		coupon = &found
		discount = found.DiscountFor(subtotal)
	}

	deliveryFee := store.DeliveryFee
	if subtotal >= store.FreeDeliveryMin {
		deliveryFee = 0
	}

	total := subtotal - discount + deliveryFee
	pointsEarned := int(subtotal)

	// Primary image per product for the order item snapshots.
	productIDs := make([]uuid.UUID, len(cartItems))
	for i, item := range cartItems {
		productIDs[i] = item.ProductID
	}
	var primaryImages []models.ProductImage
	h.DB.Where("product_id IN ? AND is_primary = ?", productIDs, true).Find(&primaryImages)
	primaryImageMap := make(map[uuid.UUID]string)
	for _, img := range primaryImages {
		primaryImageMap[img.ProductID] = img.ImageURL
	}

	order := models.Order{
		UserID:          userID.(uuid.UUID),
		StoreID:         store.ID,
		Status:          models.OrderStatusPending,
		Subtotal:        subtotal,
		Discount:        discount,
		DeliveryFee:     deliveryFee,
		Total:           total,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		PointsEarned:    pointsEarned,
		CustomerLat:     req.CustomerLat,
		CustomerLng:     req.CustomerLng,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// Lock each product row and re-check stock before decrementing.
		for _, item := range cartItems {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, "id = ?", item.ProductID).Error; err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return &insufficientStockError{ProductName: product.Name}
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, len(cartItems))
		for i, item := range cartItems {
			orderItems[i] = models.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				ImageURL:    primaryImageMap[item.ProductID],
				Quantity:    item.Quantity,
				Price:       item.Product.Price,
			}
		}
		if err := tx.Omit("Product", "Order").CreateInBatches(&orderItems, 100).Error; err != nil {
			return err
		}

		if coupon != nil {
			if err := tx.Model(&models.Coupon{}).
				Where("id = ?", coupon.ID).
				UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", pointsEarned)).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		if stockErr, ok := err.(*insufficientStockError); ok {
			c.JSON(http.StatusConflict, gin.H{"error": "Not enough stock for " + stockErr.ProductName})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err == nil {
		go utils.SendOrderConfirmation(user.Email, user.Name, order.OrderNumber, order.Total)
	}

	h.DB.Preload("Items").Preload("Store").First(&order, "id = ?", order.ID)
	c.JSON(http.StatusCreated, order)
}

type insufficientStockError struct {
	ProductName string
}

func (e *insufficientStockError) Error() string {
	return "insufficient stock for " + e.ProductName
}

// GetOrders lists orders scoped to the caller's role: customers see their
// own, store roles see their store's, admins see everything.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("user_role")

	query := h.DB.Model(&models.Order{}).
		Preload("Items").
		Preload("Store").
		Preload("User")

	switch role {
	case "admin":
		if storeID := c.Query("store_id"); storeID != "" {
			query = query.Where("store_id = ?", storeID)
		}
	case "store_owner", "store_staff":
		storeID, exists := c.Get("store_id")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "No store associated with this account"})
			return
		}
		query = query.Where("store_id = ?", storeID)
	default:
		query = query.Where("user_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder fetches one order under the same scoping rules as GetOrders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("user_role")
	orderID := c.Param("id")

	query := h.DB.Preload("Items").Preload("Store").Preload("User")

	switch role {
	case "admin":
		// No extra scoping.
	case "store_owner", "store_staff":
		storeID, exists := c.Get("store_id")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "No store associated with this account"})
			return
		}
		query = query.Where("store_id = ?", storeID)
	default:
		query = query.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := query.First(&order, "id = ?", orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrderTransitions returns the statuses an order may move to next.
func (h *OrderHandler) GetOrderTransitions(c *gin.Context) {
	orderID := c.Param("id")

	var order models.Order
	if err := h.DB.First(&order, "id = ?", orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	transitions := models.AllowedTransitions[order.Status]
	if transitions == nil {
		transitions = []models.OrderStatus{}
	}

	c.JSON(http.StatusOK, gin.H{
		"current_status":      order.Status,
		"allowed_transitions": transitions,
	})
}

// UpdateOrderStatus is the admin path for moving an order through the state
// machine. The portal has its own store-scoped variant.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var order models.Order
	if err := h.DB.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if !models.IsValidTransition(order.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "Invalid status transition",
			"current_status":      order.Status,
			"allowed_transitions": models.AllowedTransitions[order.Status],
		})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if req.Status == models.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := tx.Model(&models.Product{}).
					Where("id = ?", item.ProductID).
					UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}
		}
		return tx.Model(&order).Update("status", req.Status).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", order.UserID).Error; err == nil {
		go utils.SendOrderStatusUpdate(user.Email, user.Name, order.OrderNumber, string(req.Status))
	}

	order.Status = req.Status
	c.JSON(http.StatusOK, order)
}

// GetAdminDashboard aggregates platform-wide stats, optionally narrowed to
// one store.
func (h *OrderHandler) GetAdminDashboard(c *gin.Context) {
	scoped := func(q *gorm.DB) *gorm.DB {
		if storeID := c.Query("store_id"); storeID != "" {
			return q.Where("store_id = ?", storeID)
		}
		return q
	}

	var totalOrders int64
	scoped(h.DB.Model(&models.Order{})).Count(&totalOrders)

	var totalRevenue float64
	scoped(h.DB.Model(&models.Order{})).
		Where("status != ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total), 0)").Scan(&totalRevenue)

	today := time.Now().Truncate(24 * time.Hour)
	var todayOrders int64
	scoped(h.DB.Model(&models.Order{})).Where("created_at >= ?", today).Count(&todayOrders)

	var todayRevenue float64
	scoped(h.DB.Model(&models.Order{})).
		Where("created_at >= ? AND status != ?", today, models.OrderStatusCancelled).
		Select("COALESCE(SUM(total), 0)").Scan(&todayRevenue)

	var pendingOrders int64
	scoped(h.DB.Model(&models.Order{})).
		Where("status IN ?", []models.OrderStatus{
			models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPreparing,
		}).Count(&pendingOrders)

	var totalStores int64
	h.DB.Model(&models.Store{}).Count(&totalStores)

	var totalCustomers int64
	h.DB.Model(&models.User{}).Where("role = ?", "customer").Count(&totalCustomers)

	var recentOrders []models.Order
	scoped(h.DB.Model(&models.Order{})).
		Preload("Items").
		Preload("Store").
		Preload("User").
		Order("created_at DESC").
		Limit(10).
		Find(&recentOrders)

	c.JSON(http.StatusOK, gin.H{
		"total_orders":    totalOrders,
		"total_revenue":   totalRevenue,
		"today_orders":    todayOrders,
		"today_revenue":   todayRevenue,
		"pending_orders":  pendingOrders,
		"total_stores":    totalStores,
		"total_customers": totalCustomers,
		"recent_orders":   recentOrders,
	})
}
