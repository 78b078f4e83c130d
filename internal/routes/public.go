package routes

import (
	"net/http"
	"time"

	_ "seribro_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupPublicRoutes - health, swagger и локальные файлы (если хранилище local)
func SetupPublicRoutes(r *gin.Engine, uploadsDir string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  "ok",
			"time":    time.Now().UTC(),
		})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if uploadsDir != "" {
		r.Static("/uploads", uploadsDir)
	}
}
