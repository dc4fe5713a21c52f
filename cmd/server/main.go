package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"okenna/streamtube/internal/api"
	"okenna/streamtube/internal/config"
	"okenna/streamtube/internal/repository/mongo"
	"okenna/streamtube/internal/service"
	"okenna/streamtube/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.Info("Starting StreamTube server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("Could not load config")
	}
	logrus.Info("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logrus.WithError(err).Fatal("Could not connect to MongoDB")
	}
	defer func() {
		logrus.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logrus.WithError(err).Error("Failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logrus.Info("Database connection established.")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureVideoIndexes(ctx, appDB.Collection("videos"))
		mongo.EnsureLikeIndexes(ctx, appDB.Collection("likes"))
		mongo.EnsureSubscriptionIndexes(ctx, appDB.Collection("subscriptions"))
		mongo.EnsureCommentIndexes(ctx, appDB.Collection("comments"))
		mongo.EnsureTweetIndexes(ctx, appDB.Collection("tweets"))
		mongo.EnsurePlaylistIndexes(ctx, appDB.Collection("playlists"))
		logrus.Info("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize S3 storage")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	videoRepo := mongo.NewMongoVideoRepository(appDB)
	likeRepo := mongo.NewMongoLikeRepository(appDB)
	subscriptionRepo := mongo.NewMongoSubscriptionRepository(appDB)
	commentRepo := mongo.NewMongoCommentRepository(appDB)
	tweetRepo := mongo.NewMongoTweetRepository(appDB)
	playlistRepo := mongo.NewMongoPlaylistRepository(appDB)

	// --- Initialize Services ---
	videoService := service.NewVideoService(videoRepo, userRepo, playlistRepo, fileStorage)
	engagementService := service.NewEngagementService(userRepo, videoRepo, likeRepo, subscriptionRepo, commentRepo, tweetRepo, playlistRepo)
	interactionService := service.NewInteractionService(userRepo, videoRepo, commentRepo, tweetRepo, likeRepo, subscriptionRepo)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	api.SetupRoutes(router, &cfg, videoService, engagementService, interactionService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logrus.WithField("address", cfg.Server.Address).Info("Server starting")

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("ListenAndServe error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exiting.")
}
