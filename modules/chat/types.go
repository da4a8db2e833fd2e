package chat

import (
	"errors"
	"time"
)

// maxMessageLength caps stored message content.
const maxMessageLength = 4096

// Validation and resolution errors surfaced to callers.
var (
	ErrTextEmpty          = errors.New("message text is required")
	ErrTextTooLong        = errors.New("message text too long")
	ErrSenderEmpty        = errors.New("sender is required")
	ErrNotParticipant     = errors.New("sender is not a participant of the conversation")
	ErrTooFewParticipants = errors.New("a conversation requires at least two participants")
	ErrUsernameEmpty      = errors.New("username is required")
)

// ValidateMessageText checks message content constraints.
func ValidateMessageText(text string) error {
	if text == "" {
		return ErrTextEmpty
	}
	if len(text) > maxMessageLength {
		return ErrTextTooLong
	}
	return nil
}

// IsValidationError reports whether err is a client-caused validation or
// resolution failure, as opposed to an internal one.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrTextEmpty,
		ErrTextTooLong,
		ErrSenderEmpty,
		ErrNotParticipant,
		ErrTooFewParticipants,
		ErrUsernameEmpty,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// SendMessageRequest is the request for the send-message service.
// ConversationID and Recipient are both optional; resolution picks the target.
type SendMessageRequest struct {
	Sender          string `json:"sender"`
	Text            string `json:"text"`
	ConversationID  string `json:"conversation_id,omitempty"`
	Recipient       string `json:"recipient,omitempty"`
	ClientMessageID string `json:"client_message_id,omitempty"`
}

// SendMessageResponse is the response for the send-message service.
type SendMessageResponse struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ParticipantsRequest is the request for the get-participants service.
type ParticipantsRequest struct {
	ConversationID string `json:"conversation_id"`
}

// ParticipantsResponse is the response for the get-participants service.
type ParticipantsResponse struct {
	UserIDs []string `json:"user_ids"`
}

// ListConversationsRequest is the request for the list-conversations service.
type ListConversationsRequest struct {
	UserID string `json:"user_id"`
}

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	Participants    []string   `json:"participants"`
	LastMessage     string     `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
}

// ListConversationsResponse is the response for the list-conversations service.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// ListMessagesRequest is the request for the list-messages service. UserID
// scopes the view so isMine can be computed per message.
type ListMessagesRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// MessageView is a message as rendered for one requesting user. Timestamp is
// epoch milliseconds, matching the wire protocol.
type MessageView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
	IsMine    bool   `json:"isMine"`
}

// ListMessagesResponse is the response for the list-messages service.
type ListMessagesResponse struct {
	Messages []MessageView `json:"messages"`
}

// CreateConversationRequest is the request for the create-conversation service.
type CreateConversationRequest struct {
	Participants []string `json:"participants"`
}

// CreateConversationResponse is the response for the create-conversation service.
type CreateConversationResponse struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Participants []string  `json:"participants"`
}

// FindDirectConversationRequest is the request for the
// find-direct-conversation service.
type FindDirectConversationRequest struct {
	UserA string `json:"user_a"`
	UserB string `json:"user_b"`
}

// FindDirectConversationResponse is the response for the
// find-direct-conversation service.
type FindDirectConversationResponse struct {
	Exists       bool                 `json:"exists"`
	Conversation *ConversationSummary `json:"conversation,omitempty"`
}

// RegisterUserRequest is the request for the register-user service. ID is
// optional; one is generated when absent.
type RegisterUserRequest struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Lastname string `json:"lastname,omitempty"`
	Email    string `json:"email,omitempty"`
}

// RegisterUserResponse is the response for the register-user service.
type RegisterUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
