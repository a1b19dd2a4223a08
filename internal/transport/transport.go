package transport

import (
	"net/http"

	"github.com/ds124wfegd/image-transform/internal/pkg/command"
	"github.com/ds124wfegd/image-transform/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(renditionHandler *RenditionHandler, prefix string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	router.GET(command.NormalizePrefix(prefix)+"/:id/*path", renditionHandler.TransformStaticFile)

	api := router.Group("/api/v1")
	{
		api.GET("/files/:id/url", renditionHandler.RenditionURL)
		api.PUT("/files/:id", renditionHandler.UploadMaster)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "image-transform-service",
		})
	})
	return router
}
