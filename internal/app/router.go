package app

import (
	"net/http"

	_ "aptracker/api/swagger" // swagger docs
	"aptracker/internal/handler"
	"aptracker/internal/middleware"
	"aptracker/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router builds the gin engine with every route of the API.
func (a *App) Router() *gin.Engine {
	if a.Config.Server.Mode != "" {
		gin.SetMode(a.Config.Server.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.Config.Server.CorsAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "storage": a.Config.Storage.Backend})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	secret := a.Config.JWTSecret()
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(a.Hub, c, secret)
	})

	api := router.Group("")
	handler.NewUserHandler(a.Users, a.Auth).RegisterRoutes(api)
	handler.NewVendorHandler(a.Vendors, a.Auth).RegisterRoutes(api)
	handler.NewInvoiceHandler(a.Invoices, a.Reports, a.Auth).RegisterRoutes(api)
	handler.NewForecastHandler(a.Forecast, a.Auth).RegisterRoutes(api)
	handler.NewAuditHandler(a.Audit, a.Auth).RegisterRoutes(api)

	return router
}
