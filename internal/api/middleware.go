package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const ContextActorIDKey = "actorID"

// jwtClaims defines the structure we expect in the JWT payload.
type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func parseActorToken(tokenString, jwtSecret string) (primitive.ObjectID, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	if !token.Valid || claims.UserID == "" {
		return primitive.NilObjectID, errors.New("invalid token or missing claims")
	}
	actorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid user ID in token")
	}
	return actorID, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware creates a Gin middleware for JWT authentication. Requests
// without a valid bearer token are rejected.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		actorID, err := parseActorToken(tokenString, jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		c.Set(ContextActorIDKey, actorID)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the actor when a valid bearer token is
// present and lets the request through anonymously otherwise. Public
// endpoints use it so they can still report per-viewer flags.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if ok {
			if actorID, err := parseActorToken(tokenString, jwtSecret); err == nil {
				c.Set(ContextActorIDKey, actorID)
			}
		}
		c.Next()
	}
}

// getActorFromContext returns the authenticated actor, or an error when the
// request went through without AuthMiddleware.
func getActorFromContext(c *gin.Context) (primitive.ObjectID, error) {
	raw, exists := c.Get(ContextActorIDKey)
	if !exists {
		return primitive.NilObjectID, errors.New("actor not found in context")
	}
	actorID, ok := raw.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid actor type in context")
	}
	return actorID, nil
}

// optionalActorFromContext returns the actor when one is attached, nil for
// anonymous requests.
func optionalActorFromContext(c *gin.Context) *primitive.ObjectID {
	raw, exists := c.Get(ContextActorIDKey)
	if !exists {
		return nil
	}
	actorID, ok := raw.(primitive.ObjectID)
	if !ok {
		return nil
	}
	return &actorID
}
