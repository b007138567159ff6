package router

import (
	"github.com/gin-gonic/gin"

	"samilabs.app/pulse/internal/http/handler"
	"samilabs.app/pulse/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		mentionHandler := handler.NewMentionHandler(services.Mentions())
		MentionRouter(v1.Group("/mentions"), mentionHandler)

		sessionHandler := handler.NewSessionHandler(services.Analysis())
		SessionRouter(v1.Group("/sessions"), sessionHandler)
	}
}
