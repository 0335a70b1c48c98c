package middleware

import (
	"net/http"
	"strings"

	"mercato-backend/utils"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		if claims.StoreID != nil {
			c.Set("store_id", *claims.StoreID)
		}
		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// StoreMiddleware requires the user to be a store_owner or store_staff
// and have a store_id in their token.
func StoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Store access required"})
			c.Abort()
			return
		}

		roleStr := role.(string)
		if roleStr != "store_owner" && roleStr != "store_staff" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Store access required"})
			c.Abort()
			return
		}

		if _, exists := c.Get("store_id"); !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "No store associated with this account"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// StoreOwnerMiddleware requires the user to be specifically a store_owner.
func StoreOwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role != "store_owner" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Store owner access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
