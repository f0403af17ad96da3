package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/api/handlers"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/db"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/launcher"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/panel"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/repository"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/telemetry"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/view"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/ws"
)

func main() {
	// Get configuration from environment
	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "data/panels.db")
	dataDir := getEnv("DATA_DIR", "data")
	staticDir := getEnv("STATIC_DIR", "web/static")
	cspSource := getEnv("CSP_SOURCE", "'self'")

	// Ensure data directories exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize telemetry recording
	recorder, err := telemetry.NewRecorder(filepath.Join(dataDir, "telemetry.jsonl"))
	if err != nil {
		log.Fatalf("Failed to create telemetry recorder: %v", err)
	}
	defer recorder.Close()
	if err := recorder.WriteHeader("screencast-panel-host"); err != nil {
		log.Fatalf("Failed to write telemetry header: %v", err)
	}

	// Initialize repository
	panelRepo := repository.NewPanelRepository(database)

	// Initialize WebSocket transport for panel pages
	wsService := ws.NewService()
	defer wsService.Close()

	// Initialize the panel registry
	registry := panel.NewRegistry(panel.Config{
		Surface:   wsService,
		Renderer:  view.NewRenderer(),
		Resolver:  view.NewResolver(staticDir, "/static"),
		Reporter:  recorder,
		History:   panelRepo,
		CSPSource: cspSource,
	})
	defer registry.Close()

	// Initialize the browser launcher
	browserLauncher := launcher.NewLauncher(dataDir)
	defer browserLauncher.Close()
	browserLauncher.SetOnExit(func(id string, exitCode int) {
		log.Printf("Browser %s exited with code %d", id, exitCode)
	})

	// Initialize handlers
	panelHandler := handlers.NewPanelHandler(registry, panelRepo)
	attachHandler := handlers.NewAttachHandler(registry, wsService.Handler())
	pageHandler := handlers.NewPageHandler(registry)
	targetHandler := handlers.NewTargetHandler(browserLauncher)
	telemetryHandler := handlers.NewTelemetryHandler(recorder, panelRepo)

	// Initialize Gin router
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Panel page and bundled static resources
	pageHandler.RegisterRoutes(r)
	r.Static("/static", staticDir)

	// API routes
	api := r.Group("/api")
	{
		panelHandler.RegisterRoutes(api)
		attachHandler.RegisterRoutes(api)
		targetHandler.RegisterRoutes(api)
		telemetryHandler.RegisterRoutes(api)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		registry.Close()
		browserLauncher.Close()
		wsService.Close()
		recorder.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
