package api

import (
	"context"
	"log/slog"

	domain "github.com/example/campus-chat/domain/chat"
	"github.com/example/campus-chat/modules/broadcast"
	"github.com/example/campus-chat/modules/chat"
	"github.com/gofiber/contrib/websocket"
)

// session is the server half of one live chat connection. A session handles
// inbound envelopes strictly in arrival order; a rejected message produces an
// error envelope and the session keeps going.
type session struct {
	entry  *broadcast.Entry
	userID string
	chat   chat.ChatPort
	logger *slog.Logger
}

// handleChat runs the chat session protocol on an upgraded connection at
// GET /chat?userId=<id>.
func (m *APIModule) handleChat(c *websocket.Conn) {
	userID := c.Query("userId")
	if userID == "" {
		// Refused by the upgrade middleware; kept as a guard.
		_ = c.Close()
		return
	}

	entry := broadcast.NewEntry(userID, c)
	if replaced := m.registry.Register(entry); replaced != nil {
		// The new connection is now the only one addressable by this
		// identity. Closing the superseded handle wakes its read loop.
		_ = replaced.Close()
	}

	s := &session{
		entry:  entry,
		userID: userID,
		chat:   m.chatAdapter,
		logger: slog.Default(),
	}

	defer func() {
		m.registry.Deregister(userID, entry.ID)
		_ = c.Close()
		s.logger.Info("Chat session closed", "user_id", userID, "entry_id", entry.ID)
	}()

	if err := entry.Send(domain.NewConnectionAck("connected")); err != nil {
		s.logger.Warn("Failed to send connection ack", "user_id", userID, "error", err)
		return
	}
	s.logger.Info("Chat session open", "user_id", userID, "entry_id", entry.ID)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Chat session read ended", "user_id", userID, "error", err)
			}
			return
		}
		s.handleFrame(context.Background(), data)
	}
}

// handleFrame processes one inbound frame to completion.
func (s *session) handleFrame(ctx context.Context, data []byte) {
	envelope, err := domain.Decode(data)
	if err != nil {
		s.sendError("invalid message format")
		return
	}

	switch env := envelope.(type) {
	case domain.MessageEnvelope:
		s.handleMessage(ctx, env)
	case domain.UnknownEnvelope:
		s.logger.Debug("Ignoring envelope with unknown kind",
			"user_id", s.userID, "kind", env.Kind)
	}
}

// handleMessage validates and forwards a message envelope. Persistence and
// fan-out happen in the chat and broadcast modules; the sender's own delivery
// copy arrives through the same fan-out as everyone else's.
func (s *session) handleMessage(ctx context.Context, env domain.MessageEnvelope) {
	if env.Text == "" || env.Sender == "" {
		s.sendError("invalid message format")
		return
	}

	_, err := s.chat.SendMessage(ctx, chat.SendMessageRequest{
		Sender:          env.Sender,
		Text:            env.Text,
		ConversationID:  env.ConversationID,
		Recipient:       env.Recipient,
		ClientMessageID: env.ClientMessageID,
	})
	if err != nil {
		s.logger.Warn("Message rejected",
			"user_id", s.userID, "error", err)
		s.sendError("failed to send message")
	}
}

// sendError reports a per-message failure to this connection.
func (s *session) sendError(message string) {
	if err := s.entry.Send(domain.NewErrorEnvelope(message)); err != nil {
		s.logger.Warn("Failed to send error envelope",
			"user_id", s.userID, "error", err)
	}
}
