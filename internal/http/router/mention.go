package router

import (
	"github.com/gin-gonic/gin"

	"samilabs.app/pulse/internal/http/handler"
)

func MentionRouter(rg *gin.RouterGroup, h *handler.MentionHandler) {
	rg.POST("/search", h.Search)
	rg.POST("/export", h.Export)
}
