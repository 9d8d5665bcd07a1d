package api

import (
	"github.com/Victor-talka/talka-history/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with middleware and routes
func NewRouter(handler *Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, cfg, log)
	SetupRoutes(router, handler)
	return router
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		// System endpoints
		api.GET("/health", handler.HealthCheck)
		api.GET("/ready", handler.ReadyCheck)

		// Import endpoints
		api.POST("/upload-csv", handler.UploadCSV)
		api.GET("/imports", handler.ListImports)

		// Conversation endpoints
		conversations := api.Group("/conversations")
		{
			conversations.GET("/user/:user_id", handler.ListUserConversations)
			conversations.GET("/:id", handler.GetConversation)
			conversations.GET("/:id/messages", handler.GetMessages)
			conversations.GET("/:id/media", handler.GetMedia)
			conversations.DELETE("/:id", handler.DeleteConversation)
		}

		// User endpoints
		api.POST("/login", handler.Login)
		api.POST("/init-admin", handler.InitAdmin)
		users := api.Group("/users")
		{
			users.GET("", handler.ListUsers)
			users.POST("", handler.CreateUser)
			users.GET("/:id", handler.GetUser)
			users.PUT("/:id", handler.UpdateUser)
			users.DELETE("/:id", handler.DeleteUser)
		}

		// Partner endpoints
		partners := api.Group("/partners")
		{
			partners.GET("", handler.ListPartners)
			partners.POST("", handler.CreatePartner)
			partners.GET("/:id", handler.GetPartner)
			partners.GET("/:id/sales", handler.ListSales)
			partners.POST("/:id/sales", handler.CreateSale)
			partners.GET("/:id/commissions", handler.ListCommissions)
			partners.GET("/:id/payment-methods", handler.ListPaymentMethods)
			partners.POST("/:id/payment-methods", handler.AddPaymentMethod)
		}
		api.POST("/sales/:id/confirm", handler.ConfirmSale)
		api.POST("/commissions/:id/pay", handler.PayCommission)
	}
}

// SetupMiddleware configures all middleware
func SetupMiddleware(router *gin.Engine, cfg *config.Config, log *zap.Logger) {
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(log))
	router.Use(RecoveryMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(RateLimitMiddleware(newLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)))
}
