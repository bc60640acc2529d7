package routes

import (
	"os"

	"imsystem/internal/core/container"
	"imsystem/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const Version = "1.0.0"

func NewRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(c.Logger), middleware.RequestLogger(c.Logger), c.Metrics.Middleware())

	RegisterPublicRoutes(router, c)
	RegisterProtectedRoutes(router, c)
	RegisterUtilityRoutes(router, c)

	return router
}

func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	container.LoginHandler.RegisterRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(container.Tokens.JWTMiddleware())

	container.UserHandler.RegisterRoutes(protectedRoutes)
	container.InventoryHandler.RegisterRoutes(protectedRoutes)
	container.InventoryLog.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, container *container.Container) {
	router.GET("/health", middleware.HealthCheckMiddleware(Version, container.Refresher))
	container.Metrics.RegisterRoutes(router)

	openapiFilePath := "./docs/index.html"
	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(c *gin.Context) {
			c.File(openapiFilePath)
		})
		container.Logger.Info("Route docs/index.html registered successfully.")
	} else {
		container.Logger.Debug("OpenAPI docs not found, /openapi.html will not be registered", zap.String("path", openapiFilePath))
	}
}
