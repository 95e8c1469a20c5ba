// Package auth provides the two interchangeable authentication strategies of
// the phonebook service: static Basic credentials and issued bearer tokens.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/phonebookapi/phonebook-service/internal/model"
)

// Guard is one authentication strategy. Middleware rejects unauthenticated
// requests before they reach a handler; Register adds the strategy's own
// endpoints to the router.
type Guard interface {
	Middleware() gin.HandlerFunc
	Register(router *gin.Engine)
}

// UserStore is the part of the persistence adapter the token strategy needs.
type UserStore interface {
	FindUserByUsername(username string) (*model.User, error)
	InsertUser(username string, hashedPassword string) (int64, error)
}

// usernameKey is the gin context key under which the middleware stores the
// authenticated identity.
const usernameKey = "username"

// abortUnauthorized rejects the request with a challenge header so that
// standards-compliant clients know which scheme to authenticate with.
func abortUnauthorized(c *gin.Context, scheme string, detail string) {
	c.Header("WWW-Authenticate", scheme)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// usersMe responds with the identity established by the guard middleware.
func usersMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"username": c.GetString(usernameKey)})
}

// HashPassword returns the one-way bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// VerifyPassword reports whether the plain password matches the stored hash.
func VerifyPassword(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// EnsureSuperuser creates the bootstrap superuser account unless a user with
// that name already exists. It is idempotent across restarts.
func EnsureSuperuser(store UserStore, username string, password string) error {
	user, err := store.FindUserByUsername(username)
	if err != nil {
		return err
	}
	if user != nil {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = store.InsertUser(username, hash)
	return err
}
