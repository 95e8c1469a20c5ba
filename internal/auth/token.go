package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"gitlab.com/phonebookapi/phonebook-service/internal/config"
	"gitlab.com/phonebookapi/phonebook-service/internal/model"
)

// credentialsDetail is the single outward message for every token
// verification failure, so that a caller cannot tell which check failed.
const credentialsDetail = "Could not validate credentials"

// TokenGuard authenticates requests with signed, expiring bearer tokens.
// Tokens are issued against the users table and verified on every request,
// including a fresh lookup of the subject so that a deleted user's tokens
// stop working immediately.
type TokenGuard struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	users    UserStore
	logger   *zap.Logger
}

// NewTokenGuard builds the guard from the configured secret, signing
// algorithm, and token lifetime.
func NewTokenGuard(cfg config.Config, users UserStore, logger *zap.Logger) *TokenGuard {
	lifetime := cfg.TokenLifetime
	if lifetime <= 0 {
		lifetime = 15 * time.Minute
	}
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	return &TokenGuard{
		secret:   []byte(cfg.SecretKey),
		method:   method,
		lifetime: lifetime,
		users:    users,
		logger:   logger,
	}
}

// CreateAccessToken mints a signed token carrying the subject and an
// absolute expiry timestamp.
func (g *TokenGuard) CreateAccessToken(username string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(g.lifetime)),
	}
	return jwt.NewWithClaims(g.method, claims).SignedString(g.secret)
}

// Middleware extracts the bearer token, verifies its signature and expiry,
// and looks up the embedded subject on the users table. All failure branches
// collapse to the same opaque 401 response.
func (g *TokenGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			abortUnauthorized(c, "Bearer", credentialsDetail)
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return g.secret, nil
		}, jwt.WithValidMethods([]string{g.method.Alg()}))
		if err != nil || claims.Subject == "" {
			abortUnauthorized(c, "Bearer", credentialsDetail)
			return
		}
		user, err := g.users.FindUserByUsername(claims.Subject)
		if err != nil {
			g.logger.Error("user lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
			return
		}
		if user == nil {
			abortUnauthorized(c, "Bearer", credentialsDetail)
			return
		}
		c.Set(usernameKey, user.Username)
		c.Next()
	}
}

// Register adds the token issuance endpoint and the endpoint that echoes the
// authenticated identity.
func (g *TokenGuard) Register(router *gin.Engine) {
	router.POST("/auth/token", g.login)
	router.GET("/users/me", g.Middleware(), usersMe)
}

// login exchanges form-encoded username and password for an access token.
func (g *TokenGuard) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	user, err := g.users.FindUserByUsername(username)
	if err != nil {
		g.logger.Error("user lookup failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}
	if user == nil || !VerifyPassword(password, user.HashedPassword) {
		abortUnauthorized(c, "Bearer", "Incorrect username or password")
		return
	}
	token, err := g.CreateAccessToken(user.Username)
	if err != nil {
		g.logger.Error("could not sign access token", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, model.Token{AccessToken: token, TokenType: "bearer"})
}
