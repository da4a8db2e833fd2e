package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository provides access to chat storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new chat repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser saves a new user to the database.
func (r *Repository) CreateUser(user *User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUsernames resolves user ids to usernames. Unknown ids are simply absent
// from the result map.
func (r *Repository) FindUsernames(ids []string) (map[string]string, error) {
	usernames := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return usernames, nil
	}

	var users []User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	for _, u := range users {
		usernames[u.ID] = u.Username
	}
	return usernames, nil
}

// CreateConversation creates an empty conversation.
func (r *Repository) CreateConversation() (*Conversation, error) {
	conv := &Conversation{ID: uuid.New().String()}
	if err := r.db.Create(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation retrieves a conversation by its ID.
func (r *Repository) GetConversation(id string) (*Conversation, error) {
	var conv Conversation
	if err := r.db.First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return &conv, nil
}

// AddParticipants links users to a conversation. Duplicate ids in the input
// are collapsed before insert.
func (r *Repository) AddParticipants(conversationID string, userIDs []string) error {
	seen := make(map[string]bool, len(userIDs))
	rows := make([]Participant, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, Participant{ConversationID: conversationID, UserID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to add participants: %w", err)
	}
	return nil
}

// GetParticipants returns the user ids participating in a conversation,
// ordered for deterministic output.
func (r *Repository) GetParticipants(conversationID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&Participant{}).
		Where("conversation_id = ?", conversationID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	return ids, nil
}

// FindConversationsContaining returns the ids of every conversation the user
// participates in.
func (r *Repository) FindConversationsContaining(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&Participant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find conversations: %w", err)
	}
	return ids, nil
}

// FindDirectConversation finds the conversation whose participant set is
// exactly {a, b}. A conversation containing both users plus a third does not
// match.
func (r *Repository) FindDirectConversation(a, b string) (string, bool, error) {
	var id string
	result := r.db.Raw(`
		SELECT conversation_id
		FROM conversation_participants
		GROUP BY conversation_id
		HAVING COUNT(*) = 2
		   AND SUM(CASE WHEN user_id IN (?, ?) THEN 1 ELSE 0 END) = 2
		LIMIT 1`, a, b).Scan(&id)
	if result.Error != nil {
		return "", false, fmt.Errorf("failed to find direct conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", false, nil
	}
	return id, true, nil
}

// CreateMessage stores a message in a conversation.
func (r *Repository) CreateMessage(conversationID, senderID, content string) (*Message, error) {
	msg := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := r.db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the full history of a conversation in canonical order.
func (r *Repository) ListMessages(conversationID string) ([]Message, error) {
	var messages []Message
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// LastMessagePreview returns the most recent message of a conversation, or
// nil when the conversation has no messages yet.
func (r *Repository) LastMessagePreview(conversationID string) (*Message, error) {
	var msg Message
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, seq DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load last message: %w", err)
	}
	return &msg, nil
}
