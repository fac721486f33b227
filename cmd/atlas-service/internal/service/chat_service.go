package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"atlashub/cmd/atlas-service/internal/biz"
	"atlashub/cmd/atlas-service/internal/domain"
)

// ChatRequest is the inbound chat payload. SessionID is optional; an
// empty or stale id gets a fresh session.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// ResponseBody carries the answer text, the raw query data and the
// follow-up suggestions.
type ResponseBody struct {
	Text        string              `json:"text"`
	Data        *domain.QueryResult `json:"data"`
	Suggestions []string            `json:"suggestions"`
}

// Metadata describes how the answer was produced.
type Metadata struct {
	Intent           domain.Intent   `json:"intent"`
	Entities         domain.Entities `json:"entities"`
	Confidence       float64         `json:"confidence"`
	UsedProvider     bool            `json:"usedProvider"`
	Provider         string          `json:"provider,omitempty"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
}

// ChatResponse is the outbound chat payload. It is always well-formed:
// failures carry success=false, an error message and an empty body.
// SessionID is a pointer so failures before session resolution encode
// null rather than "".
type ChatResponse struct {
	Success   bool          `json:"success"`
	SessionID *string       `json:"sessionId"`
	Response  *ResponseBody `json:"response"`
	Metadata  *Metadata     `json:"metadata,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ClearRequest identifies the session to wipe.
type ClearRequest struct {
	SessionID string `json:"sessionId"`
}

// ClearResponse reports whether a session was cleared.
type ClearResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SessionResponse exposes a session's full state.
type SessionResponse struct {
	Success bool            `json:"success"`
	Session *domain.Session `json:"session,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ChatService adapts the chat usecase to the transport DTOs.
type ChatService struct {
	uc  *biz.ChatUsecase
	log *log.Helper
}

// NewChatService creates the service.
func NewChatService(uc *biz.ChatUsecase, logger log.Logger) *ChatService {
	return &ChatService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "chat-service")),
	}
}

// Chat handles one message and shapes the reply envelope.
func (s *ChatService) Chat(ctx context.Context, req *ChatRequest) *ChatResponse {
	reply, err := s.uc.Chat(ctx, req.SessionID, req.Message)
	if err != nil {
		return failureResponse(req.SessionID, err)
	}

	return &ChatResponse{
		Success:   true,
		SessionID: &reply.SessionID,
		Response: &ResponseBody{
			Text:        reply.Answer,
			Data:        reply.Result,
			Suggestions: emptyIfNil(reply.Suggestions),
		},
		Metadata: &Metadata{
			Intent:           reply.Intent,
			Entities:         reply.Entities,
			Confidence:       reply.Confidence,
			UsedProvider:     reply.UsedProvider,
			Provider:         reply.Provider,
			ProcessingTimeMs: reply.ProcessingTimeMs,
		},
	}
}

// Clear wipes a session. Unknown ids report success=false without an
// error detail beyond the message.
func (s *ChatService) Clear(ctx context.Context, req *ClearRequest) *ClearResponse {
	if req.SessionID == "" {
		return &ClearResponse{Success: false, Error: "sessionId is required"}
	}
	if !s.uc.ClearSession(req.SessionID) {
		return &ClearResponse{Success: false, Error: domain.ErrSessionNotFound.Error()}
	}
	return &ClearResponse{Success: true}
}

// Session returns a copy of one session's state.
func (s *ChatService) Session(ctx context.Context, sessionID string) *SessionResponse {
	sess, err := s.uc.Session(sessionID)
	if err != nil {
		return &SessionResponse{Success: false, Error: err.Error()}
	}
	return &SessionResponse{Success: true, Session: sess}
}

// failureResponse builds the well-formed failure envelope. The session
// id is null when the failure happened before session resolution.
func failureResponse(sessionID string, err error) *ChatResponse {
	var sid *string
	if sessionID != "" {
		sid = &sessionID
	}
	return &ChatResponse{
		Success:   false,
		SessionID: sid,
		Error:     err.Error(),
		Response: &ResponseBody{
			Text:        "",
			Data:        nil,
			Suggestions: []string{},
		},
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
