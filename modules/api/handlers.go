package api

import (
	"errors"
	"strings"

	"github.com/example/campus-chat/modules/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint. A connection without a user identity is refused
	// before the upgrade; there is nothing to address it by afterwards.
	m.app.Use("/chat", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if c.Query("userId") == "" {
			return fiber.NewError(fiber.StatusBadRequest, "userId query parameter is required")
		}
		return c.Next()
	})
	m.app.Get("/chat", websocket.New(m.handleChat))

	// REST API v1
	api := m.app.Group("/api/v1")

	api.Post("/users", m.registerUser)
	api.Get("/users/:id/conversations", m.listConversations)
	api.Post("/conversations", m.createConversation)
	api.Get("/conversations/direct/:a/:b", m.findDirectConversation)
	api.Get("/conversations/:id/messages/:userID", m.listMessages)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.registry.Len(),
		},
	})
}

// listConversations handles GET /api/v1/users/:id/conversations.
func (m *APIModule) listConversations(c *fiber.Ctx) error {
	userID := c.Params("id")

	conversations, err := m.chatAdapter.ListConversations(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list conversations",
		})
	}

	return c.JSON(ConversationListResponse{Data: conversations})
}

// createConversation handles POST /api/v1/conversations.
func (m *APIModule) createConversation(c *fiber.Ctx) error {
	var req CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	created, err := m.chatAdapter.CreateConversation(c.UserContext(), req.Participants)
	if err != nil {
		if isValidationFailure(err) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "validation_error",
				Message: "A conversation requires at least two participants",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create conversation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(ConversationCreatedResponse{Data: created})
}

// listMessages handles GET /api/v1/conversations/:id/messages/:userID.
func (m *APIModule) listMessages(c *fiber.Ctx) error {
	conversationID := c.Params("id")
	userID := c.Params("userID")

	messages, err := m.chatAdapter.ListMessages(c.UserContext(), conversationID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list messages",
		})
	}

	return c.JSON(MessageListResponse{Data: messages})
}

// findDirectConversation handles GET /api/v1/conversations/direct/:a/:b.
func (m *APIModule) findDirectConversation(c *fiber.Ctx) error {
	result, err := m.chatAdapter.FindDirectConversation(c.UserContext(), c.Params("a"), c.Params("b"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to look up conversation",
		})
	}

	return c.JSON(DirectConversationResponse{
		Exists: result.Exists,
		Data:   result.Conversation,
	})
}

// registerUser handles POST /api/v1/users.
func (m *APIModule) registerUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	created, err := m.chatAdapter.RegisterUser(c.UserContext(), chat.RegisterUserRequest{
		ID:       req.ID,
		Username: req.Username,
		Name:     req.Name,
		Lastname: req.Lastname,
		Email:    req.Email,
	})
	if err != nil {
		if isValidationFailure(err) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "validation_error",
				Message: "Username is required",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(UserCreatedResponse{Data: created})
}

// isValidationFailure reports whether a chat service error was caused by bad
// input. Errors crossing the service container lose their concrete type, so
// matching on the sentinel text is the fallback.
func isValidationFailure(err error) bool {
	if err == nil {
		return false
	}
	if chat.IsValidationError(err) {
		return true
	}
	for _, sentinel := range []error{
		chat.ErrTooFewParticipants,
		chat.ErrUsernameEmpty,
		chat.ErrTextEmpty,
		chat.ErrTextTooLong,
		chat.ErrSenderEmpty,
		chat.ErrNotParticipant,
	} {
		if errors.Is(err, sentinel) || strings.Contains(err.Error(), sentinel.Error()) {
			return true
		}
	}
	return false
}
