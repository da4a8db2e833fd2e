package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/example/campus-chat/events"
	"github.com/example/campus-chat/modules/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// BroadcastModule consumes MessageStored events and pushes delivery envelopes
// to connected WebSocket clients through the connection registry.
type BroadcastModule struct {
	registry    *Registry
	broadcaster *Broadcaster
	chatAdapter chat.ChatPort
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.DependentModule = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		registry: NewRegistry(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Dependencies returns the list of module dependencies.
func (m *BroadcastModule) Dependencies() []string {
	return []string{"chat"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *BroadcastModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "chat":
		m.chatAdapter = chat.NewChatAdapter(container)
		m.broadcaster = NewBroadcaster(m.registry, m.chatAdapter)
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageStoredV1, m.handleMessageStored, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageStored consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: MessageStored")
	return nil
}

// handleMessageStored fans a stored message out to connected participants.
// Delivery is best effort; failures are logged, not retried, because the
// stored history remains the authoritative record.
func (m *BroadcastModule) handleMessageStored(ctx context.Context, event events.MessageStoredEvent, _ *mono.Msg) error {
	if err := m.broadcaster.Deliver(ctx, event); err != nil {
		log.Printf("[broadcast] Delivery failed for message %s: %v", event.MessageID, err)
	}
	return nil
}

// Start initializes the module.
func (m *BroadcastModule) Start(_ context.Context) error {
	if m.chatAdapter == nil {
		return fmt.Errorf("chat adapter dependency not set")
	}
	log.Println("[broadcast] Module started - connection registry ready")
	return nil
}

// Stop closes all registered connections.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.registry.Len()
	m.registry.CloseAll()
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.registry.Len(),
		},
	}
}

// Registry exposes the connection registry for the API module, which
// registers sessions directly rather than through the ServiceContainer.
func (m *BroadcastModule) Registry() *Registry {
	return m.registry
}
