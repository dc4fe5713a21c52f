package api

import (
	"net/http"

	"okenna/streamtube/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LikeHandler struct {
	interactionService service.InteractionService
	engagementService  service.EngagementService
}

func NewLikeHandler(interactionService service.InteractionService, engagementService service.EngagementService) *LikeHandler {
	return &LikeHandler{
		interactionService: interactionService,
		engagementService:  engagementService,
	}
}

// likedQuery reads the liked flag: true toggles a like, false a dislike.
// Defaults to like so the common path needs no parameter.
func likedQuery(c *gin.Context) bool {
	return c.DefaultQuery("liked", "true") != "false"
}

type toggleFunc func(c *gin.Context, actor, target primitive.ObjectID, liked bool) (*service.ReactionState, error)

func (h *LikeHandler) toggle(c *gin.Context, paramName string, fn toggleFunc) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(c.Param(paramName))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid ID format.")
		return
	}

	state, err := fn(c, actorID, targetID, likedQuery(c))
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Reaction toggled", state)
}

// ToggleVideoLike cycles the actor's reaction on a video.
func (h *LikeHandler) ToggleVideoLike(c *gin.Context) {
	h.toggle(c, "videoId", func(c *gin.Context, actor, target primitive.ObjectID, liked bool) (*service.ReactionState, error) {
		return h.interactionService.ToggleVideoLike(c.Request.Context(), actor, target, liked)
	})
}

// ToggleCommentLike cycles the actor's reaction on a comment.
func (h *LikeHandler) ToggleCommentLike(c *gin.Context) {
	h.toggle(c, "commentId", func(c *gin.Context, actor, target primitive.ObjectID, liked bool) (*service.ReactionState, error) {
		return h.interactionService.ToggleCommentLike(c.Request.Context(), actor, target, liked)
	})
}

// ToggleTweetLike cycles the actor's reaction on a tweet.
func (h *LikeHandler) ToggleTweetLike(c *gin.Context) {
	h.toggle(c, "tweetId", func(c *gin.Context, actor, target primitive.ObjectID, liked bool) (*service.ReactionState, error) {
		return h.interactionService.ToggleTweetLike(c.Request.Context(), actor, target, liked)
	})
}

// GetLikedVideos lists the videos the actor currently likes, most recently
// liked first. Deleted videos drop out silently.
func (h *LikeHandler) GetLikedVideos(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	videos, err := h.engagementService.LikedVideos(c.Request.Context(), actorID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Liked videos fetched successfully", videos)
}
