package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"mercato-backend/models"
)

type CartHandler struct {
	DB *gorm.DB
}

// GetCart returns the caller's cart items with product info.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).
		Preload("Product").
		Preload("Product.Images").
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.Product.Price * float64(item.Quantity)
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"subtotal": subtotal,
	})
}

// AddToCart adds a product to the cart. A cart may only hold items from
// one store at a time, so adding from a different store is rejected until
// the cart is cleared.
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product models.Product
	if err := h.DB.First(&product, "id = ?", productID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if !product.IsAvailable {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is not available"})
		return
	}

	var existingItem models.CartItem
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, productID).First(&existingItem).Error

	if err == nil {
		newQuantity := existingItem.Quantity + req.Quantity
		if newQuantity > product.Stock {
			newQuantity = product.Stock
		}
		if newQuantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product is out of stock"})
			return
		}
		existingItem.Quantity = newQuantity
		if err := h.DB.Save(&existingItem).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
		c.JSON(http.StatusOK, existingItem)
		return
	}

	// New item: enforce the single-store rule against whatever is
	// already in the cart.
	var otherStoreCount int64
	h.DB.Model(&models.CartItem{}).
		Where("user_id = ? AND store_id != ?", userID, product.StoreID).
		Count(&otherStoreCount)
	if otherStoreCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Your cart contains items from another store. Clear it before ordering from this store."})
		return
	}

	quantity := req.Quantity
	if quantity > product.Stock {
		quantity = product.Stock
	}
	if quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is out of stock"})
		return
	}

	cartItem := models.CartItem{
		UserID:    userID.(uuid.UUID),
		StoreID:   product.StoreID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := h.DB.Create(&cartItem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to cart"})
		return
	}

	h.DB.Preload("Product").Preload("Product.Images").First(&cartItem, "id = ?", cartItem.ID)
	c.JSON(http.StatusCreated, cartItem)
}

// UpdateCartItem changes the quantity of a cart item.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, _ := c.Get("user_id")
	itemID := c.Param("id")

	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", itemID, userID).
		Preload("Product").
		First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	quantity := req.Quantity
	if quantity > item.Product.Stock {
		quantity = item.Product.Stock
	}
	if quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is out of stock"})
		return
	}

	item.Quantity = quantity
	if err := h.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// RemoveFromCart deletes a single cart item.
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, _ := c.Get("user_id")
	itemID := c.Param("id")

	result := h.DB.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ClearCart empties the caller's cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, _ := c.Get("user_id")

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
