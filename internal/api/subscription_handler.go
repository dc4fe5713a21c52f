package api

import (
	"net/http"

	"okenna/streamtube/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionHandler struct {
	interactionService service.InteractionService
	engagementService  service.EngagementService
}

func NewSubscriptionHandler(interactionService service.InteractionService, engagementService service.EngagementService) *SubscriptionHandler {
	return &SubscriptionHandler{
		interactionService: interactionService,
		engagementService:  engagementService,
	}
}

// ToggleSubscription subscribes the actor to a channel, or unsubscribes when
// already subscribed.
func (h *SubscriptionHandler) ToggleSubscription(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	channelID, err := primitive.ObjectIDFromHex(c.Param("channelId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid channel ID format.")
		return
	}

	state, err := h.interactionService.ToggleSubscription(c.Request.Context(), actorID, channelID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Subscription toggled", state)
}

// GetSubscribers lists the users subscribed to a channel.
func (h *SubscriptionHandler) GetSubscribers(c *gin.Context) {
	channelID, err := primitive.ObjectIDFromHex(c.Param("channelId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid channel ID format.")
		return
	}

	rows, err := h.engagementService.SubscribersOf(c.Request.Context(), channelID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Subscribers fetched successfully", rows)
}

// GetSubscriptions lists the channels a user subscribes to.
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	subscriberID, err := primitive.ObjectIDFromHex(c.Param("subscriberId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid subscriber ID format.")
		return
	}

	rows, err := h.engagementService.SubscriptionsOf(c.Request.Context(), subscriberID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Subscriptions fetched successfully", rows)
}
