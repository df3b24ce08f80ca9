package http

import (
	"github.com/gin-gonic/gin"

	"github.com/packlens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Stored images are served straight from the upload directory.
	router.Static("/uploads", cfg.Server.UploadDir)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/upload", handler.UploadProduct)
		v1.GET("/categories", handler.ListCategories)

		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.POST("/import", handler.ImportProduct)
			products.GET("/category/:category", handler.ListProductsByCategory)

			products.GET("/:id", handler.GetProduct)
			products.PUT("/:id", handler.UpdateProduct)
			products.DELETE("/:id", handler.DeleteProduct)

			products.GET("/:id/images", handler.ListProductImages)
			products.POST("/:id/images", handler.AddProductImages)
			products.PUT("/:id/images/reorder", handler.ReorderProductImages)
			products.DELETE("/:id/images/:imageID", handler.DeleteProductImage)
		}
	}

	return router
}
