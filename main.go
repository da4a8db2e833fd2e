package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/campus-chat/modules/api"
	"github.com/example/campus-chat/modules/broadcast"
	"github.com/example/campus-chat/modules/chat"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional; deployments configure through the environment
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	log.Println("=== Campus Chat - Real-time Messaging Backend ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	chatModule := chat.NewModule()
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule()

	// Inject the connection registry into the API module
	// (done manually because the registry is not exposed via ServiceContainer)
	apiModule.SetRegistry(broadcastModule.Registry())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - chat: Core domain (ServiceProviderModule + EventEmitterModule)
	// - broadcast: Event consumer (connection registry + fan-out)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on chat)
	app.Register(chatModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Println("  - Storage: GORM + SQLite")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Println("")
	log.Println("Event-Driven Messaging:")
	log.Println("  - MessageStored events -> broadcast module -> connected participants")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                                      - Health check")
	log.Println("  POST   /api/v1/users                                - Register a user")
	log.Println("  GET    /api/v1/users/:id/conversations              - List a user's conversations")
	log.Println("  POST   /api/v1/conversations                        - Create a conversation")
	log.Println("  GET    /api/v1/conversations/:id/messages/:userID   - Message history")
	log.Println("  GET    /api/v1/conversations/direct/:a/:b           - Find direct conversation")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/chat):", port)
	log.Println("  Connect with: ws://localhost:3000/chat?userId=<your-id>")
	log.Println("  Envelope kinds: message (inbound), message/error/connection (outbound)")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
