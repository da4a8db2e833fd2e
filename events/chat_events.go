package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageStoredEvent is emitted after a direct message has been durably
// persisted. Broadcast fan-out consumes it; the event is never published
// for a message that failed to persist.
type MessageStoredEvent struct {
	MessageID       string    `json:"message_id"`
	ConversationID  string    `json:"conversation_id"`
	SenderID        string    `json:"sender_id"`
	Content         string    `json:"content"`
	ClientMessageID string    `json:"client_message_id,omitempty"`
	StoredAt        time.Time `json:"stored_at"`
}

// Event definitions for the chat domain.
var (
	MessageStoredV1 = helper.EventDefinition[MessageStoredEvent](
		"chat",
		"MessageStored",
		"v1",
	)
)
