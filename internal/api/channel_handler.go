package api

import (
	"net/http"

	"okenna/streamtube/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChannelHandler struct {
	engagementService  service.EngagementService
	interactionService service.InteractionService
}

func NewChannelHandler(engagementService service.EngagementService, interactionService service.InteractionService) *ChannelHandler {
	return &ChannelHandler{
		engagementService:  engagementService,
		interactionService: interactionService,
	}
}

// GetStats serves the authenticated channel's dashboard numbers.
func (h *ChannelHandler) GetStats(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	stats, err := h.engagementService.ChannelStats(c.Request.Context(), actorID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Channel stats fetched successfully", stats)
}

// GetChannelVideos lists everything the authenticated channel uploaded,
// drafts included.
func (h *ChannelHandler) GetChannelVideos(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	videos, err := h.engagementService.ChannelVideos(c.Request.Context(), actorID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Channel videos fetched successfully", videos)
}

// GetProfile serves a channel's public page by username, with the viewer's
// subscription flag when signed in.
func (h *ChannelHandler) GetProfile(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		abortWithError(c, http.StatusBadRequest, "Username is required.")
		return
	}

	profile, err := h.engagementService.ChannelProfile(c.Request.Context(), username, optionalActorFromContext(c))
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Channel profile fetched successfully", profile)
}

// GetPlaylists lists a channel's playlists.
func (h *ChannelHandler) GetPlaylists(c *gin.Context) {
	ownerID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	playlists, err := h.engagementService.ChannelPlaylists(c.Request.Context(), ownerID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Playlists fetched successfully", playlists)
}

// GetWatchHistory returns the actor's history grouped by day, most recent
// day first.
func (h *ChannelHandler) GetWatchHistory(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	history, err := h.engagementService.WatchHistory(c.Request.Context(), actorID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Watch history fetched successfully", history)
}

// ClearWatchHistory empties the actor's history.
func (h *ChannelHandler) ClearWatchHistory(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.interactionService.ClearWatchHistory(c.Request.Context(), actorID); err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Watch history cleared", nil)
}
