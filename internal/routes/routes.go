package routes

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/handlers"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/middleware"
)

// corsConfig allows the admin/student frontend to call the API with a bearer
// token. An empty frontendURL allows any origin, without credentials.
func corsConfig(frontendURL string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}
	if frontendURL == "" {
		log.Println("WARNING: FRONTEND_URL not set, CORS allows all origins")
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = []string{frontendURL}
	cfg.AllowCredentials = true
	return cfg
}

func SetupRouter(h *handlers.Handlers, frontendURL string) *gin.Engine {
	handlers.RegisterValidators()

	router := gin.Default()

	// --- Global Middleware ---
	router.Use(cors.New(corsConfig(frontendURL)))
	if h.Metrics != nil {
		router.Use(middleware.Metrics(h.Metrics))
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	router.GET("/health", h.Health)
	if h.Uploads.Dir != "" {
		router.Static("/uploads", h.Uploads.Dir)
	}

	api := router.Group("/api")
	{
		// --- Public Routes (students) ---
		api.POST("/auth/login", h.Login)
		api.POST("/uploads/receipts", h.UploadReceipt)
		api.POST("/payment-requests", h.CreatePaymentRequest)
		api.POST("/subscription-requests", h.CreateSubscriptionRequest)

		// --- Admin Routes (token required) ---
		admin := api.Group("/")
		admin.Use(middleware.AdminAuth(h.Tokens))
		{
			admin.GET("/auth/me", h.Me)

			admin.GET("/payment-requests", h.GetPaymentRequests)
			admin.GET("/payment-requests/:id", h.GetPaymentRequest)
			admin.POST("/payment-requests/:id/approve", h.ApprovePaymentRequest)
			admin.POST("/payment-requests/:id/reject", h.RejectPaymentRequest)

			admin.GET("/subscription-requests", h.GetSubscriptionRequests)
			admin.GET("/subscription-requests/:id", h.GetSubscriptionRequest)
			admin.POST("/subscription-requests/:id/approve", h.ApproveSubscriptionRequest)
			admin.POST("/subscription-requests/:id/reject", h.RejectSubscriptionRequest)

			admin.GET("/fees", h.GetFees)
			admin.GET("/revenues", h.GetRevenues)
			admin.GET("/students", h.GetStudents)
			admin.GET("/dashboard/stats", h.GetDashboardStats)
		}
	}

	return router
}
