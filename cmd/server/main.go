package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milktrack/server/internal/api"
	"github.com/milktrack/server/internal/auth"
	"github.com/milktrack/server/internal/config"
	"github.com/milktrack/server/internal/logging"
	"github.com/milktrack/server/internal/repository"
	"github.com/milktrack/server/internal/service"
	"github.com/milktrack/server/internal/token"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger := logging.New(cfg.Logging.Level)

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Token codec and lifecycle manager
	codec := token.NewCodec([]byte(cfg.Auth.JWTSecret), nil)
	tokens := auth.NewManager(codec, repo, logger)

	// Create service
	svc := service.NewDefaultService(repo, tokens, logger)

	// Create API handler
	handler := api.NewHandler(svc, tokens)

	// Set up Gin router
	router := gin.Default()
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("starting server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
