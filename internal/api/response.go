package api

import (
	"net/http"

	"okenna/streamtube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusClientClosedRequest mirrors nginx's non-standard code for requests
// the client abandoned before the server finished.
const statusClientClosedRequest = 499

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// abortServiceError maps the service error taxonomy onto HTTP statuses.
// Unclassified errors are treated as internal.
func abortServiceError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		abortWithError(c, http.StatusBadRequest, err.Error())
	case service.KindNotFound:
		abortWithError(c, http.StatusNotFound, err.Error())
	case service.KindAuthorization:
		abortWithError(c, http.StatusForbidden, err.Error())
	case service.KindConflict:
		abortWithError(c, http.StatusConflict, err.Error())
	case service.KindUpload:
		abortWithError(c, http.StatusBadGateway, "Upstream storage failure")
	case service.KindCancelled:
		abortWithError(c, statusClientClosedRequest, "Request cancelled")
	default:
		logrus.WithError(err).Error("Unhandled service error")
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func respond(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, gin.H{
		"status":  code,
		"message": message,
		"data":    data,
	})
}
