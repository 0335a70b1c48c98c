package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mercato-backend/firebase"
	"mercato-backend/handlers"
	"mercato-backend/middleware"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, storage firebase.StorageClient) {
	authHandler := &handlers.AuthHandler{DB: db}
	storeHandler := &handlers.StoreHandler{DB: db}
	portalHandler := &handlers.PortalHandler{DB: db, Storage: storage}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	productHandler := &handlers.ProductHandler{DB: db, Storage: storage}
	cartHandler := &handlers.CartHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}
	couponHandler := &handlers.CouponHandler{DB: db}
	paymentMethodHandler := &handlers.PaymentMethodHandler{DB: db}
	billingHandler := &handlers.BillingHandler{DB: db}

	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Public routes
	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(authLimiter.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.POST("/refresh", authHandler.RefreshTokenHandler)
		}

		// Storefront
		api.GET("/stores", storeHandler.ListActiveStores)
		api.GET("/stores/nearest", storeHandler.GetNearestStore)
		api.GET("/stores/:id", storeHandler.GetStore)
		api.GET("/stores/:id/status", storeHandler.GetStoreStatus)
		api.GET("/stores/:id/categories", categoryHandler.GetStoreCategories)
		api.GET("/stores/:id/products", productHandler.GetStoreProducts)
		api.GET("/stores/:id/coupons", storeHandler.GetStoreCoupons)
		api.GET("/stores/:id/payment-methods", storeHandler.GetStorePaymentMethods)
		api.GET("/products/:id", productHandler.GetProduct)
	}

	// Authenticated customer routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.PUT("/auth/change-password", authHandler.ChangePassword)

		protected.GET("/cart", cartHandler.GetCart)
		protected.POST("/cart", cartHandler.AddToCart)
		protected.PUT("/cart/:id", cartHandler.UpdateCartItem)
		protected.DELETE("/cart/:id", cartHandler.RemoveFromCart)
		protected.DELETE("/cart", cartHandler.ClearCart)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders", orderHandler.GetOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)
	}

	// Store portal routes (owner and staff)
	portal := api.Group("/portal")
	portal.Use(middleware.AuthMiddleware())
	portal.Use(middleware.StoreMiddleware())
	{
		portal.GET("/store", portalHandler.GetMyStore)
		portal.PUT("/store", portalHandler.UpdateMyStore)
		portal.POST("/store/logo", portalHandler.UploadLogo)
		portal.GET("/store/hours", portalHandler.GetStoreHours)
		portal.PUT("/store/hours", portalHandler.ReplaceStoreHours)
		portal.PUT("/store/force-status", portalHandler.UpdateForceStatus)
		portal.GET("/dashboard", portalHandler.GetDashboard)

		portal.GET("/orders", portalHandler.GetMyOrders)
		portal.PUT("/orders/:id/status", portalHandler.UpdateOrderStatus)
		portal.GET("/orders/:id/transitions", orderHandler.GetOrderTransitions)

		portal.GET("/categories", categoryHandler.GetMyCategories)
		portal.POST("/categories", categoryHandler.CreateCategory)
		portal.PUT("/categories/:id", categoryHandler.UpdateCategory)
		portal.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		portal.GET("/products", productHandler.GetMyProducts)
		portal.GET("/products/export", productHandler.GetMyProductsExport)
		portal.POST("/products", productHandler.CreateProduct)
		portal.PUT("/products/:id", productHandler.UpdateProduct)
		portal.DELETE("/products/:id", productHandler.DeleteProduct)

		portal.GET("/coupons", couponHandler.GetMyCoupons)
		portal.POST("/coupons", couponHandler.CreateCoupon)
		portal.PUT("/coupons/:id", couponHandler.UpdateCoupon)
		portal.DELETE("/coupons/:id", couponHandler.DeleteCoupon)

		portal.GET("/payment-methods", paymentMethodHandler.GetMyPaymentMethods)
	}

	// Owner-only portal routes
	portalOwner := api.Group("/portal")
	portalOwner.Use(middleware.AuthMiddleware())
	portalOwner.Use(middleware.StoreOwnerMiddleware())
	{
		portalOwner.GET("/staff", portalHandler.GetMyStaff)
		portalOwner.POST("/staff", portalHandler.InviteStaff)
		portalOwner.DELETE("/staff/:id", portalHandler.RemoveStaff)

		portalOwner.POST("/payment-methods", paymentMethodHandler.CreatePaymentMethod)
		portalOwner.PUT("/payment-methods/:id", paymentMethodHandler.UpdatePaymentMethod)
		portalOwner.DELETE("/payment-methods/:id", paymentMethodHandler.DeletePaymentMethod)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/stores", storeHandler.ListStores)
		admin.POST("/stores", storeHandler.CreateStore)
		admin.PUT("/stores/:id", storeHandler.UpdateStore)
		admin.DELETE("/stores/:id", storeHandler.DeleteStore)
		admin.GET("/stores/:id/orders", storeHandler.GetStoreOrders)

		admin.GET("/users", authHandler.ListUsers)
		admin.GET("/users/:id", authHandler.GetUser)
		admin.PUT("/users/:id", authHandler.UpdateUser)

		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		admin.GET("/orders/:id/transitions", orderHandler.GetOrderTransitions)
		admin.GET("/dashboard", orderHandler.GetAdminDashboard)

		admin.GET("/billing", billingHandler.ListBillingRecords)
		admin.POST("/billing/run", billingHandler.RunBilling)
		admin.GET("/billing/jobs/:id", billingHandler.GetBillingJob)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
