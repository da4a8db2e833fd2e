package chat

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
)

// sendMessage handles the chat.send-message service request.
func (m *ChatModule) sendMessage(ctx context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	return m.service.Send(ctx, req)
}

// getParticipants handles the chat.get-participants service request.
func (m *ChatModule) getParticipants(ctx context.Context, req ParticipantsRequest, _ *mono.Msg) (ParticipantsResponse, error) {
	if req.ConversationID == "" {
		return ParticipantsResponse{}, fmt.Errorf("conversation_id is required")
	}
	ids, err := m.service.Participants(ctx, req.ConversationID)
	if err != nil {
		return ParticipantsResponse{}, err
	}
	return ParticipantsResponse{UserIDs: ids}, nil
}

// listConversations handles the chat.list-conversations service request.
func (m *ChatModule) listConversations(ctx context.Context, req ListConversationsRequest, _ *mono.Msg) (ListConversationsResponse, error) {
	if req.UserID == "" {
		return ListConversationsResponse{}, fmt.Errorf("user_id is required")
	}
	summaries, err := m.service.ListConversations(ctx, req.UserID)
	if err != nil {
		return ListConversationsResponse{}, err
	}
	return ListConversationsResponse{Conversations: summaries}, nil
}

// listMessages handles the chat.list-messages service request.
func (m *ChatModule) listMessages(ctx context.Context, req ListMessagesRequest, _ *mono.Msg) (ListMessagesResponse, error) {
	if req.ConversationID == "" {
		return ListMessagesResponse{}, fmt.Errorf("conversation_id is required")
	}
	views, err := m.service.ListMessages(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return ListMessagesResponse{}, err
	}
	return ListMessagesResponse{Messages: views}, nil
}

// createConversation handles the chat.create-conversation service request.
func (m *ChatModule) createConversation(ctx context.Context, req CreateConversationRequest, _ *mono.Msg) (CreateConversationResponse, error) {
	return m.service.CreateConversation(ctx, req.Participants)
}

// findDirectConversation handles the chat.find-direct-conversation service request.
func (m *ChatModule) findDirectConversation(ctx context.Context, req FindDirectConversationRequest, _ *mono.Msg) (FindDirectConversationResponse, error) {
	if req.UserA == "" || req.UserB == "" {
		return FindDirectConversationResponse{}, fmt.Errorf("both user ids are required")
	}
	return m.service.FindDirect(ctx, req.UserA, req.UserB)
}

// registerUser handles the chat.register-user service request.
func (m *ChatModule) registerUser(ctx context.Context, req RegisterUserRequest, _ *mono.Msg) (RegisterUserResponse, error) {
	return m.service.RegisterUser(ctx, req)
}
