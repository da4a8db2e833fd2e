package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope kinds exchanged over a chat session.
const (
	KindMessage    = "message"
	KindError      = "error"
	KindConnection = "connection"
)

// Inbound is an envelope decoded from a client frame. Exactly one concrete
// type exists per recognized kind; everything else decodes to UnknownEnvelope.
type Inbound interface {
	inbound()
}

// MessageEnvelope is a client request to deliver a message. ConversationID and
// Recipient are both optional; the resolver decides the target conversation.
// ClientMessageID, when present, is echoed back verbatim on delivery so the
// sending client can reconcile its optimistic render.
type MessageEnvelope struct {
	Text            string `json:"text"`
	Sender          string `json:"sender"`
	ConversationID  string `json:"conversationId,omitempty"`
	Recipient       string `json:"recipient,omitempty"`
	ClientMessageID string `json:"clientMessageId,omitempty"`
	Timestamp       int64  `json:"timestamp,omitempty"`
}

// UnknownEnvelope carries the tag of an unrecognized envelope kind.
type UnknownEnvelope struct {
	Kind string
}

func (MessageEnvelope) inbound() {}
func (UnknownEnvelope) inbound() {}

// Decode parses a raw frame into a tagged envelope. Unrecognized kinds are not
// an error; they decode to UnknownEnvelope and the caller decides what to do.
func Decode(data []byte) (Inbound, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch probe.Type {
	case KindMessage:
		var env MessageEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("malformed message envelope: %w", err)
		}
		return env, nil
	default:
		return UnknownEnvelope{Kind: probe.Type}, nil
	}
}

// DeliveryEnvelope is pushed to each participant of a conversation when a
// message is stored. IsMine is computed per recipient, so the sender's own
// connection sees its message flagged as such. Timestamps are epoch
// milliseconds, matching what chat clients send and compare against.
type DeliveryEnvelope struct {
	Type            string `json:"type"`
	ID              string `json:"id"`
	Text            string `json:"text"`
	Sender          string `json:"sender"`
	Timestamp       int64  `json:"timestamp"`
	ConversationID  string `json:"conversationId"`
	IsMine          bool   `json:"isMine"`
	ClientMessageID string `json:"clientMessageId,omitempty"`
}

// ErrorEnvelope reports a per-message failure back to the originating
// connection. The session stays open after sending one.
type ErrorEnvelope struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectionEnvelope acknowledges a successful handshake. Sent only to the
// newly opened connection.
type ConnectionEnvelope struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// NewErrorEnvelope builds an error envelope stamped with the current time.
func NewErrorEnvelope(message string) ErrorEnvelope {
	return ErrorEnvelope{
		Type:      KindError,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewConnectionAck builds the handshake acknowledgement envelope.
func NewConnectionAck(message string) ConnectionEnvelope {
	return ConnectionEnvelope{
		Type:      KindConnection,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
}
