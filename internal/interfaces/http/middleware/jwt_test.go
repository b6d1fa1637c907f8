package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posvenda/backend/internal/domain/identity"
	"github.com/posvenda/backend/internal/infrastructure/auth"
	"github.com/posvenda/backend/internal/infrastructure/config"
)

func jwtTestRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-with-enough-length",
		Expiration: 60,
	})

	r := gin.New()
	r.Use(RequestID())
	r.GET("/protected", JWTAuth(svc), func(c *gin.Context) {
		claims := GetClaims(c)
		require.NotNil(t, claims)
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return r, svc
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	r, svc := jwtTestRouter(t)

	user, err := identity.NewUser("Ana", "ana@example.com", "strong-password")
	require.NoError(t, err)
	token, _, err := svc.Generate(user)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID.String())
}

func TestJWTAuthRejectsInvalidRequests(t *testing.T) {
	r, _ := jwtTestRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
	})

	t.Run("caller supplied", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-from-caller")
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-from-caller", w.Body.String())
	})
}
