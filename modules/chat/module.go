package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/example/campus-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ChatModule provides conversation resolution, message persistence and the
// conversation query services via GORM + SQLite.
type ChatModule struct {
	db       *gorm.DB
	repo     *Repository
	service  *Service
	eventBus mono.EventBus
	dbPath   string
}

// Compile-time interface checks.
var _ mono.Module = (*ChatModule)(nil)
var _ mono.ServiceProviderModule = (*ChatModule)(nil)
var _ mono.EventBusAwareModule = (*ChatModule)(nil)
var _ mono.EventEmitterModule = (*ChatModule)(nil)
var _ mono.HealthCheckableModule = (*ChatModule)(nil)

// NewModule creates a new ChatModule.
func NewModule() *ChatModule {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "campus-chat.db"
	}
	return &ChatModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *ChatModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *ChatModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageStoredV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
// The framework prefixes service names with "services.<module>." so
// "send-message" becomes "services.chat.send-message" in the NATS subject.
func (m *ChatModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "send-message", json.Unmarshal, json.Marshal, m.sendMessage,
	); err != nil {
		return fmt.Errorf("failed to register send-message service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-participants", json.Unmarshal, json.Marshal, m.getParticipants,
	); err != nil {
		return fmt.Errorf("failed to register get-participants service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-conversations", json.Unmarshal, json.Marshal, m.listConversations,
	); err != nil {
		return fmt.Errorf("failed to register list-conversations service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-messages", json.Unmarshal, json.Marshal, m.listMessages,
	); err != nil {
		return fmt.Errorf("failed to register list-messages service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-conversation", json.Unmarshal, json.Marshal, m.createConversation,
	); err != nil {
		return fmt.Errorf("failed to register create-conversation service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "find-direct-conversation", json.Unmarshal, json.Marshal, m.findDirectConversation,
	); err != nil {
		return fmt.Errorf("failed to register find-direct-conversation service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "register-user", json.Unmarshal, json.Marshal, m.registerUser,
	); err != nil {
		return fmt.Errorf("failed to register register-user service: %w", err)
	}

	log.Println("[chat] Registered services: services.chat.{send-message,get-participants,list-conversations,list-messages,create-conversation,find-direct-conversation,register-user}")
	return nil
}

// Start initializes the database connection, runs migrations and wires the
// service to the event bus.
func (m *ChatModule) Start(_ context.Context) error {
	log.Printf("[chat] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m.db = db

	if err := m.db.AutoMigrate(&User{}, &Conversation{}, &Participant{}, &Message{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)
	m.service = NewService(m.repo, func(event events.MessageStoredEvent) error {
		return events.MessageStoredV1.Publish(m.eventBus, event, nil)
	})

	log.Println("[chat] Module started successfully")
	return nil
}

// Stop gracefully closes the database connection.
func (m *ChatModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	log.Println("[chat] Closing database connection...")

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[chat] Database connection closed")
	return nil
}

// Health performs a health check on the chat module.
func (m *ChatModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}
