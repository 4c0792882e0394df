package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

const (
	appContextKey     = "app"
	sessionContextKey = "session"
)

// APIKeyAuth resolves the tenant app from the X-API-Key header and stores it
// in the request context. Requests without a valid key never reach handlers.
func APIKeyAuth(apps ports.AppRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-API-Key header is required"})
			return
		}

		app, err := apps.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(appContextKey, app)
		c.Next()
	}
}

// SessionAuth validates the Bearer session token and stores the session in
// the request context.
func SessionAuth(tokenizer ports.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		session, err := tokenizer.ParseSessionToken(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			if err == core.ErrTokenExpired {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

func appFromContext(c *gin.Context) *core.App {
	app, _ := c.MustGet(appContextKey).(*core.App)
	return app
}

func sessionFromContext(c *gin.Context) *core.Session {
	session, _ := c.MustGet(sessionContextKey).(*core.Session)
	return session
}
