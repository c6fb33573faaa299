package main

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/apihelpers"
	"github.com/egov-portal/portal-backend/services/portal-api/apihandlers"
)

func main() {
	authLimiter.StartSweep()
	defer authLimiter.StopSweep()

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	v1Root := router.Group("/v1")

	v1APIHandlers := apihandlers.NewHTTPHandler(
		userStore,
		otpService,
		sessionService,
		authLimiter,
		conf.OTPConfig.CodeInResponse,
	)
	v1APIHandlers.AddPortalAuthAPI(v1Root)
	v1APIHandlers.AddTaxBoardAPI(v1Root)
	v1APIHandlers.AddJusticeAPI(v1Root)
	v1APIHandlers.AddInteriorAPI(v1Root)

	if conf.GinConfig.DebugMode {
		apihelpers.WriteRoutesToFile(router, "portal-api-routes.txt")
	}

	// Start the server
	slog.Info("Starting Portal API on port " + conf.GinConfig.Port)
	if err := router.Run(":" + conf.GinConfig.Port); err != nil {
		slog.Error("Exited Portal API", slog.String("error", err.Error()))
	}
}
