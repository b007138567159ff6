package dto

import (
	"time"

	"samilabs.app/pulse/internal/analysis"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/service"
)

type CreateSessionRequest struct {
	SystemPrompt string `json:"system_prompt" binding:"omitempty,max=4000"`
}

type AskRequest struct {
	Question string `json:"question" binding:"required,min=1,max=16000"`
	Mode     string `json:"mode" binding:"omitempty,oneof=summary report"`
}

type AnalyzeEntityRequest struct {
	Entity string `json:"entity" binding:"required,min=1,max=200"`
	Limit  int    `json:"limit" binding:"omitempty,min=1,max=500"`
	Mode   string `json:"mode" binding:"omitempty,oneof=summary report"`
}

type TurnResponse struct {
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

type SessionResponse struct {
	SessionID int64          `json:"session_id,string"`
	Window    int            `json:"window"`
	Turns     []TurnResponse `json:"turns"`
	CreatedAt time.Time      `json:"created_at"`
}

type AskResponse struct {
	SessionID    int64              `json:"session_id,string"`
	Mode         model.AnalysisMode `json:"mode"`
	Reply        string             `json:"reply"`
	Failed       bool               `json:"failed"`
	Retryable    bool               `json:"retryable,omitempty"` // a failed ask may succeed if repeated
	Report       *model.Report      `json:"report,omitempty"`
	PromptTokens int                `json:"prompt_tokens,omitempty"`
	OutputTokens int                `json:"output_tokens,omitempty"`
	Turns        []TurnResponse     `json:"turns"`
}

type AnalyzeEntityResponse struct {
	*AskResponse
	Mentions *SearchMentionsResponse `json:"mentions"`
}

func ToSessionResponse(s *service.SessionSnapshot) *SessionResponse {
	return &SessionResponse{SessionID: s.ID, Window: s.Window, Turns: toTurns(s.Turns), CreatedAt: s.CreatedAt}
}

func ToAskResponse(mode model.AnalysisMode, res *service.AskResult) *AskResponse {
	resp := &AskResponse{
		SessionID: res.SessionID,
		Mode:      mode,
		Reply:     res.Reply.Content,
		Failed:    res.Reply.Failed,
		Retryable: res.Reply.Failed && analysis.IsRetryable(res.Reply.Err),
		Turns:     toTurns(res.Turns),
	}
	if r := res.Reply.Result; r != nil {
		resp.Report = r.Report
		resp.PromptTokens = r.PromptTokens
		resp.OutputTokens = r.OutputTokens
	}
	return resp
}

func toTurns(turns []model.Turn) []TurnResponse {
	out := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, TurnResponse{Role: t.Role, Content: t.Content, CreatedAt: t.CreatedAt})
	}
	return out
}
