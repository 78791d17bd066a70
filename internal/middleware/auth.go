package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Provider resolves the caller identity from an incoming request. The
// gateway in front of this service terminates the session and forwards the
// identity in trusted headers.
type Provider interface {
	Resolve(r *http.Request) (userID, displayName string, err error)
}

// HeaderProvider reads identity from X-User-Id and X-User-Name headers.
type HeaderProvider struct{}

func (HeaderProvider) Resolve(r *http.Request) (string, string, error) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		return "", "", errors.New("missing identity")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", "", errors.New("invalid user id")
	}
	return userID, r.Header.Get("X-User-Name"), nil
}

// AuthMiddleware resolves the caller identity and stores it in the gin
// context for handlers downstream.
func AuthMiddleware(provider Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, name, err := provider.Resolve(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set("userID", userID)
		c.Set("userName", name)
		c.Next()
	}
}
