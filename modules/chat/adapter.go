package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort defines the interface other modules use to reach the chat module.
type ChatPort interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResponse, error)
	Participants(ctx context.Context, conversationID string) ([]string, error)
	ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID, userID string) ([]MessageView, error)
	CreateConversation(ctx context.Context, participants []string) (CreateConversationResponse, error)
	FindDirectConversation(ctx context.Context, userA, userB string) (FindDirectConversationResponse, error)
	RegisterUser(ctx context.Context, req RegisterUserRequest) (RegisterUserResponse, error)
}

// chatAdapter wraps ServiceContainer for type-safe cross-module communication.
type chatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new adapter for chat services. container is the
// chat module's ServiceContainer received via SetDependencyServiceContainer.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat adapter requires non-nil ServiceContainer")
	}
	return &chatAdapter{container: container}
}

func (a *chatAdapter) SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResponse, error) {
	var resp SendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "send-message", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return SendMessageResponse{}, fmt.Errorf("send-message service call failed: %w", err)
	}
	return resp, nil
}

func (a *chatAdapter) Participants(ctx context.Context, conversationID string) ([]string, error) {
	req := ParticipantsRequest{ConversationID: conversationID}
	var resp ParticipantsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-participants", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-participants service call failed: %w", err)
	}
	return resp.UserIDs, nil
}

func (a *chatAdapter) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	req := ListConversationsRequest{UserID: userID}
	var resp ListConversationsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-conversations", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-conversations service call failed: %w", err)
	}
	return resp.Conversations, nil
}

func (a *chatAdapter) ListMessages(ctx context.Context, conversationID, userID string) ([]MessageView, error) {
	req := ListMessagesRequest{ConversationID: conversationID, UserID: userID}
	var resp ListMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-messages", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-messages service call failed: %w", err)
	}
	return resp.Messages, nil
}

func (a *chatAdapter) CreateConversation(ctx context.Context, participants []string) (CreateConversationResponse, error) {
	req := CreateConversationRequest{Participants: participants}
	var resp CreateConversationResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-conversation", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return CreateConversationResponse{}, fmt.Errorf("create-conversation service call failed: %w", err)
	}
	return resp, nil
}

func (a *chatAdapter) FindDirectConversation(ctx context.Context, userA, userB string) (FindDirectConversationResponse, error) {
	req := FindDirectConversationRequest{UserA: userA, UserB: userB}
	var resp FindDirectConversationResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "find-direct-conversation", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return FindDirectConversationResponse{}, fmt.Errorf("find-direct-conversation service call failed: %w", err)
	}
	return resp, nil
}

func (a *chatAdapter) RegisterUser(ctx context.Context, req RegisterUserRequest) (RegisterUserResponse, error) {
	var resp RegisterUserResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "register-user", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return RegisterUserResponse{}, fmt.Errorf("register-user service call failed: %w", err)
	}
	return resp, nil
}
