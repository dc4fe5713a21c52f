package api

import (
	"net/http"

	"okenna/streamtube/internal/config"
	"okenna/streamtube/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	videoService service.VideoService,
	engagementService service.EngagementService,
	interactionService service.InteractionService,
) {
	videoHandler := NewVideoHandler(videoService, engagementService, cfg.Media)
	channelHandler := NewChannelHandler(engagementService, interactionService)
	likeHandler := NewLikeHandler(interactionService, engagementService)
	subscriptionHandler := NewSubscriptionHandler(interactionService, engagementService)

	authMiddleware := AuthMiddleware(cfg.JWT.Secret)
	optionalAuth := OptionalAuthMiddleware(cfg.JWT.Secret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	// Public routes carry optional auth so per-viewer flags still resolve.
	public := apiV1.Group("")
	public.Use(optionalAuth)
	{
		public.GET("/videos", videoHandler.ListVideos)
		public.GET("/videos/:videoId", videoHandler.GetVideo)
		public.POST("/videos/:videoId/view", videoHandler.RecordView)
		public.GET("/channels/:username", channelHandler.GetProfile)
		public.GET("/users/:userId/playlists", channelHandler.GetPlaylists)
		public.GET("/subscriptions/channel/:channelId", subscriptionHandler.GetSubscribers)
		public.GET("/subscriptions/user/:subscriberId", subscriptionHandler.GetSubscriptions)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		videoGroup := protected.Group("/videos")
		{
			videoGroup.POST("", videoHandler.PublishVideo)
			videoGroup.PATCH("/:videoId", videoHandler.UpdateVideo)
			videoGroup.DELETE("/:videoId", videoHandler.DeleteVideo)
			videoGroup.PATCH("/:videoId/toggle-publish", videoHandler.TogglePublish)
		}

		likeGroup := protected.Group("/likes")
		{
			likeGroup.POST("/video/:videoId", likeHandler.ToggleVideoLike)
			likeGroup.POST("/comment/:commentId", likeHandler.ToggleCommentLike)
			likeGroup.POST("/tweet/:tweetId", likeHandler.ToggleTweetLike)
			likeGroup.GET("/videos", likeHandler.GetLikedVideos)
		}

		protected.POST("/subscriptions/channel/:channelId", subscriptionHandler.ToggleSubscription)

		dashboardGroup := protected.Group("/dashboard")
		{
			dashboardGroup.GET("/stats", channelHandler.GetStats)
			dashboardGroup.GET("/videos", channelHandler.GetChannelVideos)
		}

		historyGroup := protected.Group("/history")
		{
			historyGroup.GET("", channelHandler.GetWatchHistory)
			historyGroup.DELETE("", channelHandler.ClearWatchHistory)
		}
	}
}
