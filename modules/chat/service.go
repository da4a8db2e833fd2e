package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/example/campus-chat/events"
	"github.com/google/uuid"
)

// Service implements conversation resolution, message persistence and the
// conversation query operations on top of the repository.
type Service struct {
	repo    *Repository
	publish func(events.MessageStoredEvent) error

	// resolveMu serializes two-party find-or-create so concurrent sends
	// between the same pair cannot create duplicate conversations.
	resolveMu sync.Mutex
}

// NewService creates a new chat service. publish is invoked after a message
// has been durably stored; nil disables publishing.
func NewService(repo *Repository, publish func(events.MessageStoredEvent) error) *Service {
	if publish == nil {
		publish = func(events.MessageStoredEvent) error { return nil }
	}
	return &Service{repo: repo, publish: publish}
}

// Resolve determines the target conversation for a send. An explicit
// conversation id is used as-is after verifying the sender participates in
// it. A recipient triggers find-or-create of the conversation whose
// participant set is exactly {sender, recipient}. With neither, a
// conversation containing only the sender is created.
func (s *Service) Resolve(_ context.Context, sender, recipient, conversationID string) (string, []string, error) {
	switch {
	case conversationID != "":
		participants, err := s.repo.GetParticipants(conversationID)
		if err != nil {
			return "", nil, fmt.Errorf("resolve conversation %s: %w", conversationID, err)
		}
		if !slices.Contains(participants, sender) {
			return "", nil, ErrNotParticipant
		}
		return conversationID, participants, nil

	case recipient != "" && recipient != sender:
		s.resolveMu.Lock()
		defer s.resolveMu.Unlock()

		id, found, err := s.repo.FindDirectConversation(sender, recipient)
		if err != nil {
			return "", nil, err
		}
		if found {
			return id, []string{sender, recipient}, nil
		}

		conv, err := s.repo.CreateConversation()
		if err != nil {
			return "", nil, err
		}
		if err := s.repo.AddParticipants(conv.ID, []string{sender, recipient}); err != nil {
			return "", nil, err
		}
		return conv.ID, []string{sender, recipient}, nil

	default:
		// No target at all, or the sender messaging themselves. Store in a
		// fresh conversation containing only the sender.
		conv, err := s.repo.CreateConversation()
		if err != nil {
			return "", nil, err
		}
		if err := s.repo.AddParticipants(conv.ID, []string{sender}); err != nil {
			return "", nil, err
		}
		return conv.ID, []string{sender}, nil
	}
}

// Send validates, resolves the conversation, persists the message and then
// publishes MessageStored. Nothing is published for a message that was not
// stored; a publish failure leaves the stored message authoritative and is
// only logged.
func (s *Service) Send(ctx context.Context, req SendMessageRequest) (SendMessageResponse, error) {
	if req.Sender == "" {
		return SendMessageResponse{}, ErrSenderEmpty
	}
	if err := ValidateMessageText(req.Text); err != nil {
		return SendMessageResponse{}, err
	}

	conversationID, _, err := s.Resolve(ctx, req.Sender, req.Recipient, req.ConversationID)
	if err != nil {
		return SendMessageResponse{}, err
	}

	msg, err := s.repo.CreateMessage(conversationID, req.Sender, req.Text)
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("store message: %w", err)
	}

	event := events.MessageStoredEvent{
		MessageID:       msg.ID,
		ConversationID:  msg.ConversationID,
		SenderID:        msg.SenderID,
		Content:         msg.Content,
		ClientMessageID: req.ClientMessageID,
		StoredAt:        msg.CreatedAt,
	}
	if err := s.publish(event); err != nil {
		slog.Warn("Failed to publish MessageStored event",
			"message_id", msg.ID, "error", err)
	}

	return SendMessageResponse{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		CreatedAt:      msg.CreatedAt,
	}, nil
}

// Participants returns the authoritative participant set of a conversation.
func (s *Service) Participants(_ context.Context, conversationID string) ([]string, error) {
	return s.repo.GetParticipants(conversationID)
}

// ListConversations returns the user's conversations, newest activity first.
// Conversations without messages sort last.
func (s *Service) ListConversations(_ context.Context, userID string) ([]ConversationSummary, error) {
	ids, err := s.repo.FindConversationsContaining(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := s.conversationSummary(id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessageTime, summaries[j].LastMessageTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return summaries, nil
}

func (s *Service) conversationSummary(conversationID string) (ConversationSummary, error) {
	conv, err := s.repo.GetConversation(conversationID)
	if err != nil {
		return ConversationSummary{}, err
	}

	participantIDs, err := s.repo.GetParticipants(conversationID)
	if err != nil {
		return ConversationSummary{}, err
	}
	usernames, err := s.repo.FindUsernames(participantIDs)
	if err != nil {
		return ConversationSummary{}, err
	}
	participants := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		if name, ok := usernames[id]; ok {
			participants = append(participants, name)
		} else {
			// No user record; fall back to the raw identity.
			participants = append(participants, id)
		}
	}

	summary := ConversationSummary{
		ID:           conv.ID,
		CreatedAt:    conv.CreatedAt,
		Participants: participants,
	}

	preview, err := s.repo.LastMessagePreview(conversationID)
	if err != nil {
		return ConversationSummary{}, err
	}
	if preview != nil {
		summary.LastMessage = preview.Content
		t := preview.CreatedAt
		summary.LastMessageTime = &t
	}
	return summary, nil
}

// ListMessages returns the full ascending history of a conversation as seen
// by one user.
func (s *Service) ListMessages(_ context.Context, conversationID, userID string) ([]MessageView, error) {
	messages, err := s.repo.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, MessageView{
			ID:        msg.ID,
			Text:      msg.Content,
			Sender:    msg.SenderID,
			Timestamp: msg.CreatedAt.UnixMilli(),
			IsMine:    msg.SenderID == userID,
		})
	}
	return views, nil
}

// CreateConversation explicitly creates a conversation with the given
// participants. At least two distinct participants are required.
func (s *Service) CreateConversation(_ context.Context, participantIDs []string) (CreateConversationResponse, error) {
	distinct := make([]string, 0, len(participantIDs))
	seen := make(map[string]bool, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		distinct = append(distinct, id)
	}
	if len(distinct) < 2 {
		return CreateConversationResponse{}, ErrTooFewParticipants
	}

	conv, err := s.repo.CreateConversation()
	if err != nil {
		return CreateConversationResponse{}, err
	}
	if err := s.repo.AddParticipants(conv.ID, distinct); err != nil {
		return CreateConversationResponse{}, err
	}

	return CreateConversationResponse{
		ID:           conv.ID,
		CreatedAt:    conv.CreatedAt,
		Participants: distinct,
	}, nil
}

// FindDirect reports whether a direct conversation between two users exists,
// including its summary when it does.
func (s *Service) FindDirect(_ context.Context, userA, userB string) (FindDirectConversationResponse, error) {
	id, found, err := s.repo.FindDirectConversation(userA, userB)
	if err != nil {
		return FindDirectConversationResponse{}, err
	}
	if !found {
		return FindDirectConversationResponse{Exists: false}, nil
	}

	summary, err := s.conversationSummary(id)
	if err != nil {
		return FindDirectConversationResponse{}, err
	}
	return FindDirectConversationResponse{Exists: true, Conversation: &summary}, nil
}

// RegisterUser creates a minimal user record.
func (s *Service) RegisterUser(_ context.Context, req RegisterUserRequest) (RegisterUserResponse, error) {
	if req.Username == "" {
		return RegisterUserResponse{}, ErrUsernameEmpty
	}

	user := &User{
		ID:       req.ID,
		Username: req.Username,
		Name:     req.Name,
		Lastname: req.Lastname,
		Email:    req.Email,
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := s.repo.CreateUser(user); err != nil {
		return RegisterUserResponse{}, err
	}

	return RegisterUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}
