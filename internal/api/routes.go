package api

import (
	"net/http"
	"videoverse/internal/service"
	"videoverse/internal/storage"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the HTTP surface. Everything under /api/v1 requires the
// static API token; /share is public because the link id itself is the
// access token.
func SetupRoutes(
	router *gin.Engine,
	apiToken string,
	videoService service.VideoService,
	shareService service.ShareService,
	validator *service.UploadValidator,
	store *storage.Store,
	maxUploadBytes int64,
) {
	videoHandler := NewVideoHandler(videoService, validator, store, maxUploadBytes)
	shareHandler := NewShareHandler(shareService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(AuthMiddleware(apiToken))
	{
		videoGroup := apiV1.Group("/videos")
		{
			videoGroup.POST("", videoHandler.Upload)
			videoGroup.POST("/trim", videoHandler.Trim)
			videoGroup.POST("/merge", videoHandler.Merge)
			videoGroup.POST("/:id/share", shareHandler.Create)
		}
	}

	router.GET("/share/:linkId", shareHandler.Resolve)
}
