package broadcast

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/campus-chat/domain/chat"
	"github.com/example/campus-chat/events"
)

// participantSource is the authoritative view of conversation membership.
type participantSource interface {
	Participants(ctx context.Context, conversationID string) ([]string, error)
}

// Broadcaster fans a stored message out to the live connections of its
// conversation's participants.
type Broadcaster struct {
	registry *Registry
	chat     participantSource
}

// NewBroadcaster creates a Broadcaster reading membership from chat and
// connections from registry.
func NewBroadcaster(registry *Registry, chat participantSource) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		chat:     chat,
	}
}

// Deliver pushes a stored message to every participant with a live
// connection. Participants without one are skipped; they catch up through
// the history queries. A failed write to one recipient does not affect the
// others. IsMine is computed per recipient, so the sender's own connection
// receives its copy flagged as such.
func (b *Broadcaster) Deliver(ctx context.Context, event events.MessageStoredEvent) error {
	participants, err := b.chat.Participants(ctx, event.ConversationID)
	if err != nil {
		return fmt.Errorf("fetch participants for %s: %w", event.ConversationID, err)
	}

	for _, userID := range participants {
		entry, ok := b.registry.Lookup(userID)
		if !ok {
			continue
		}

		envelope := domain.DeliveryEnvelope{
			Type:            domain.KindMessage,
			ID:              event.MessageID,
			Text:            event.Content,
			Sender:          event.SenderID,
			Timestamp:       event.StoredAt.UnixMilli(),
			ConversationID:  event.ConversationID,
			IsMine:          userID == event.SenderID,
			ClientMessageID: event.ClientMessageID,
		}
		if err := entry.Send(envelope); err != nil {
			log.Printf("[broadcast] Failed to deliver to %s: %v", userID, err)
		}
	}
	return nil
}
