package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"videoverse/internal/api"
	"videoverse/internal/config"
	"videoverse/internal/media"
	"videoverse/internal/messaging"
	"videoverse/internal/repository/mongo"
	"videoverse/internal/service"
	"videoverse/internal/storage"
	"videoverse/internal/transcoder"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting videoverse server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.Auth.Token == "" {
		log.Fatalf("FATAL: auth.token (AUTH_TOKEN) must be configured")
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureVideoIndexes(ctx, appDB.Collection("videos"))
		mongo.EnsureSharedLinkIndexes(ctx, appDB.Collection("shared_links"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Repositories ---
	videoRepo := mongo.NewMongoVideoRepository(appDB)
	linkRepo := mongo.NewMongoSharedLinkRepository(appDB)

	// --- Initialize Store and Engine ---
	store := storage.New(cfg.Storage.Dir)
	engine := transcoder.NewFFmpeg(cfg.Engine.FFmpegPath)
	prober := media.NewFFprobe(cfg.Engine.FFprobePath)

	// --- Optional Event Publishing ---
	var events *messaging.Producer
	if cfg.Kafka.Enabled {
		events, err = messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatalf("FATAL: Failed to connect Kafka producer: %v", err)
		}
		defer func() {
			if err := events.Close(); err != nil {
				log.Printf("ERROR: Failed to close Kafka producer: %v", err)
			}
		}()
		log.Printf("Kafka producer connected, topic %q.", cfg.Kafka.Topic)
	}

	// --- Initialize Services ---
	validator := service.NewUploadValidator(prober, cfg.Upload)
	videoService := service.NewVideoService(videoRepo, store, engine, events)
	shareService := service.NewShareService(videoRepo, linkRepo, store, cfg.Share.TTL, events)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware
	router.MaxMultipartMemory = 8 << 20

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.Auth.Token, videoService, shareService, validator, store, cfg.Upload.MaxSizeBytes)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Minute, // Uploads and transforms can be slow
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
