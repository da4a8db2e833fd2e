package chat

import (
	"time"
)

// User is a campus account. Authentication lives outside this service; the
// record exists so conversation listings can resolve usernames.
type User struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Name      string    `gorm:"size:100" json:"name"`
	Lastname  string    `gorm:"size:100" json:"lastname"`
	Email     string    `gorm:"size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}

// Conversation is a durable container of messages between a fixed set of
// participants. It has no name; identity comes from its participant set.
type Conversation struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the default table name.
func (Conversation) TableName() string {
	return "conversations"
}

// Participant links a user to a conversation.
type Participant struct {
	ConversationID string    `gorm:"primaryKey;size:36" json:"conversation_id"`
	UserID         string    `gorm:"primaryKey;size:36" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// TableName overrides the default table name.
func (Participant) TableName() string {
	return "conversation_participants"
}

// Message is a stored chat message. Seq is the insertion sequence and breaks
// ties between messages sharing a created_at; canonical history order is
// created_at ASC, seq ASC.
type Message struct {
	Seq            int64     `gorm:"primarykey;autoIncrement" json:"-"`
	ID             string    `gorm:"size:36;uniqueIndex;not null" json:"id"`
	ConversationID string    `gorm:"size:36;index;not null" json:"conversation_id"`
	SenderID       string    `gorm:"size:36;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName overrides the default table name.
func (Message) TableName() string {
	return "messages"
}
