package auth

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"gitlab.com/phonebookapi/phonebook-service/internal/config"
)

// BasicGuard authenticates every request against a single process-wide
// username and password. There are no sessions and no expiry; exactly one
// valid identity exists.
type BasicGuard struct {
	username []byte
	password []byte
}

// NewBasicGuard builds the guard from the configured static credentials.
func NewBasicGuard(cfg config.Config) *BasicGuard {
	return &BasicGuard{
		username: []byte(cfg.BasicUser),
		password: []byte(cfg.BasicPassword),
	}
}

// Middleware decodes the client-supplied Basic credentials and compares them
// against the configured ones. Both comparisons are constant-time and both
// are always evaluated, so the response time does not reveal how much of a
// guess was correct.
func (g *BasicGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		usernameMatch := subtle.ConstantTimeCompare([]byte(username), g.username) == 1
		passwordMatch := subtle.ConstantTimeCompare([]byte(password), g.password) == 1
		if !ok || !usernameMatch || !passwordMatch {
			abortUnauthorized(c, "Basic", "Incorrect email or password")
			return
		}
		c.Set(usernameKey, username)
		c.Next()
	}
}

// Register adds the endpoint that echoes the authenticated identity.
func (g *BasicGuard) Register(router *gin.Engine) {
	router.GET("/users/me", g.Middleware(), usersMe)
}
