package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"samilabs.app/pulse/common/id"
	"samilabs.app/pulse/internal/http/dto"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/service"
)

type SessionHandler struct {
	analysisService service.AnalysisService
}

func NewSessionHandler(analysisService service.AnalysisService) *SessionHandler {
	return &SessionHandler{analysisService: analysisService}
}

func (h *SessionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.WarnContext(ctx, "invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	snap, err := h.analysisService.CreateSession(ctx, req.SystemPrompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSessionResponse(snap))
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	snap, err := h.analysisService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(snap))
}

func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.analysisService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Ask answers with 200 even when the analysis failed; the failure is part of
// the conversation and flagged in the body.
func (h *SessionHandler) Ask(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, _ := model.ParseAnalysisMode(req.Mode)

	res, err := h.analysisService.Ask(ctx, sessionID, req.Question, mode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAskResponse(mode, res))
}

func (h *SessionHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req dto.AnalyzeEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = dto.DefaultSearchLimit
	}
	mode, _ := model.ParseAnalysisMode(req.Mode)

	res, err := h.analysisService.AnalyzeEntity(ctx, sessionID, req.Entity, req.Limit, mode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnalyzeEntityResponse{
		AskResponse: dto.ToAskResponse(mode, &res.AskResult),
		Mentions:    dto.ToSearchMentionsResponse(res.Mentions),
	})
}

func sessionIDParam(c *gin.Context) (int64, bool) {
	sessionID, err := id.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return sessionID, true
}
