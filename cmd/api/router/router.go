package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"brewspot/cmd/api/handlers"
	"brewspot/cmd/api/middleware"
	"brewspot/cmd/api/services"
)

type Deps struct {
	Listings   *services.ListingService
	Admin      *services.AdminService
	AdminToken string
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLoggingMiddleware())

	r.GET("/health", handlers.HealthHandler())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/listings", handlers.ListListingsHandler(d.Listings))
		api.GET("/listings/:id", handlers.GetListingHandler(d.Listings))
		api.POST("/listings", handlers.SubmitListingHandler(d.Listings))
		api.POST("/listings/:id/ai-meta/refresh", handlers.RequestRefreshHandler(d.Listings))
	}

	admin := api.Group("/admin", middleware.AdminAuthMiddleware(d.AdminToken))
	{
		admin.GET("/listings", handlers.AdminListListingsHandler(d.Admin))
		admin.POST("/listings/:id/approve", handlers.AdminApproveListingHandler(d.Admin))
		admin.POST("/listings/:id/reject", handlers.AdminRejectListingHandler(d.Admin))
		admin.POST("/listings/:id/ai-meta/refresh", handlers.AdminRequestRefreshHandler(d.Admin))
		admin.GET("/audit-logs", handlers.AdminListAuditLogsHandler(d.Admin))
	}

	return r
}

// WithCORS wraps the engine with CORS handling for the configured origins.
// An empty list allows any origin.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.AdminTokenHeader, middleware.AdminUserHeader},
		MaxAge:         600,
	}).Handler(h)
}
