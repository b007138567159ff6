package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"samilabs.app/pulse/common"
	"samilabs.app/pulse/internal/export"
	"samilabs.app/pulse/internal/http/dto"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/service"
)

type MentionHandler struct {
	mentionService service.MentionService
}

func NewMentionHandler(mentionService service.MentionService) *MentionHandler {
	return &MentionHandler{mentionService: mentionService}
}

func (h *MentionHandler) Search(c *gin.Context) {
	result, ok := h.collect(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToSearchMentionsResponse(result))
}

// Export streams the collected mentions as content,source,date,url CSV.
func (h *MentionHandler) Export(c *gin.Context) {
	result, ok := h.collect(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, common.ExportFilename(result.Query, "mentions", "csv")))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, result.Rows()); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to write csv export", "error", err)
	}
}

func (h *MentionHandler) collect(c *gin.Context) (*model.AggregationResult, bool) {
	ctx := c.Request.Context()

	var req dto.SearchMentionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if req.Limit == 0 {
		req.Limit = dto.DefaultSearchLimit
	}

	result, err := h.mentionService.Search(ctx, req.Entity, req.Limit)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return result, true
}
