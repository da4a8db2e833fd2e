package api

import (
	"github.com/example/campus-chat/modules/chat"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ConversationListResponse wraps a user's conversation list.
type ConversationListResponse struct {
	Data []chat.ConversationSummary `json:"data"`
}

// MessageListResponse wraps a conversation's message history.
type MessageListResponse struct {
	Data []chat.MessageView `json:"data"`
}

// ConversationCreatedResponse wraps an explicitly created conversation.
type ConversationCreatedResponse struct {
	Data chat.CreateConversationResponse `json:"data"`
}

// DirectConversationResponse reports whether a direct conversation between
// two users exists.
type DirectConversationResponse struct {
	Exists bool                      `json:"exists"`
	Data   *chat.ConversationSummary `json:"data,omitempty"`
}

// CreateConversationRequest is the body for POST /api/v1/conversations.
type CreateConversationRequest struct {
	Participants []string `json:"participants"`
}

// RegisterUserRequest is the body for POST /api/v1/users.
type RegisterUserRequest struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Lastname string `json:"lastname,omitempty"`
	Email    string `json:"email,omitempty"`
}

// UserCreatedResponse wraps a created user record.
type UserCreatedResponse struct {
	Data chat.RegisterUserResponse `json:"data"`
}
