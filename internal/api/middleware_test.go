package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID string, secret string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func authTestRouter(middleware gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/probe", middleware, func(c *gin.Context) {
		if actor := optionalActorFromContext(c); actor != nil {
			c.JSON(http.StatusOK, gin.H{"actor": actor.Hex()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actor": nil})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	actorID := primitive.NewObjectID()
	router := authTestRouter(AuthMiddleware(testSecret))

	t.Run("MissingHeader", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Token abc")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, actorID.Hex(), testSecret, -time.Minute))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, actorID.Hex(), "other-secret", time.Hour))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("ValidToken", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, actorID.Hex(), testSecret, time.Hour))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
		}
		if body := w.Body.String(); !contains(body, actorID.Hex()) {
			t.Errorf("body %q does not carry actor %s", body, actorID.Hex())
		}
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	actorID := primitive.NewObjectID()
	router := authTestRouter(OptionalAuthMiddleware(testSecret))

	t.Run("NoHeaderIsAnonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if !contains(w.Body.String(), `"actor":null`) {
			t.Errorf("expected anonymous actor, got %s", w.Body.String())
		}
	})

	t.Run("BadTokenIsAnonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if !contains(w.Body.String(), `"actor":null`) {
			t.Errorf("expected anonymous actor, got %s", w.Body.String())
		}
	})

	t.Run("ValidTokenAttachesActor", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, actorID.Hex(), testSecret, time.Hour))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if !contains(w.Body.String(), actorID.Hex()) {
			t.Errorf("expected actor %s, got %s", actorID.Hex(), w.Body.String())
		}
	})
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
