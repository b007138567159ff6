package router

import (
	"github.com/gin-gonic/gin"

	"samilabs.app/pulse/internal/http/handler"
)

func SessionRouter(rg *gin.RouterGroup, h *handler.SessionHandler) {
	rg.POST("", h.Create)
	rg.GET("/:session_id", h.Get)
	rg.DELETE("/:session_id", h.Delete)
	rg.POST("/:session_id/ask", h.Ask)
	rg.POST("/:session_id/analyze", h.Analyze)
}
