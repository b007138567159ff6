package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"samilabs.app/pulse/internal/http/dto"
	"samilabs.app/pulse/internal/pipeline"
	"samilabs.app/pulse/internal/service"
)

// statusClientClosedRequest is reported when the caller went away before
// aggregation finished.
const statusClientClosedRequest = 499

func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var noData *pipeline.NoDataFoundError
	switch {
	case errors.As(err, &noData):
		slog.InfoContext(ctx, "no mentions found", "sources_tried", noData.SourcesTried())
		c.JSON(http.StatusNotFound, dto.NoDataResponse{
			Error:        "no data found for " + noData.Query,
			SourcesTried: noData.SourcesTried(),
		})
	case errors.Is(err, pipeline.ErrEmptyQuery), errors.Is(err, pipeline.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
