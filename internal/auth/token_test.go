package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"gitlab.com/phonebookapi/phonebook-service/internal/config"
	"gitlab.com/phonebookapi/phonebook-service/internal/model"
)

// fakeUserStore is an in-memory UserStore for the guard tests.
type fakeUserStore struct {
	users   map[string]*model.User
	inserts int
	err     error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) FindUserByUsername(username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[username], nil
}

func (f *fakeUserStore) InsertUser(username string, hashedPassword string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.inserts++
	id := int64(len(f.users) + 1)
	f.users[username] = &model.User{Id: id, Username: username, HashedPassword: hashedPassword}
	return id, nil
}

// addUser stores a user with a real bcrypt hash of the given password.
func (f *fakeUserStore) addUser(t *testing.T, username string, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("could not hash password: %s", err)
	}
	f.InsertUser(username, hash)
	f.inserts--
}

var tokenTestConfig = config.Config{
	SecretKey:     "unit-test-secret",
	Algorithm:     "HS256",
	TokenLifetime: 15 * time.Minute,
}

// tokenTestRouter wires the guard under test into a minimal router with one
// protected endpoint next to the endpoints the guard registers itself.
func tokenTestRouter(guard *TokenGuard) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	guard.Register(router)
	router.GET("/protected", guard.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString(usernameKey)})
	})
	return router
}

// requestToken posts form-encoded credentials to the token endpoint.
func requestToken(router *gin.Engine, username string, password string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	form := "username=" + username + "&password=" + password
	request, _ := http.NewRequest("POST", "/auth/token", strings.NewReader(form))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(recorder, request)
	return recorder
}

// requestProtected sends a bearer token to the protected endpoint.
func requestProtected(router *gin.Engine, token string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/protected", nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}

// TestTokenIssuanceAndAccess checks the full flow: exchange credentials for
// a token, then use the token on a protected endpoint. A freshly issued
// token must be accepted immediately.
func TestTokenIssuanceAndAccess(t *testing.T) {
	store := newFakeUserStore()
	store.addUser(t, "alice", "wonderland")
	guard := NewTokenGuard(tokenTestConfig, store, zap.NewNop())
	router := tokenTestRouter(guard)

	recorder := requestToken(router, "alice", "wonderland")
	assert.Equal(t, http.StatusOK, recorder.Code)
	var token model.Token
	json.Unmarshal(recorder.Body.Bytes(), &token)
	assert.Equal(t, "bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	protected := requestProtected(router, token.AccessToken)
	assert.Equal(t, http.StatusOK, protected.Code)
	var body map[string]interface{}
	json.Unmarshal(protected.Body.Bytes(), &body)
	assert.Equal(t, "alice", body["username"])
}

// TestTokenLoginRejected checks that both an unknown username and a wrong
// password are answered with the same unauthorized response and the Bearer
// challenge header.
func TestTokenLoginRejected(t *testing.T) {
	store := newFakeUserStore()
	store.addUser(t, "alice", "wonderland")
	guard := NewTokenGuard(tokenTestConfig, store, zap.NewNop())
	router := tokenTestRouter(guard)

	unknownUser := requestToken(router, "bob", "wonderland")
	wrongPassword := requestToken(router, "alice", "hunter2")

	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, "Bearer", unknownUser.Header().Get("WWW-Authenticate"))
	assert.Equal(t, unknownUser.Body.String(), wrongPassword.Body.String())
}

// TestTokenExpired checks that a token whose expiry timestamp has passed is
// rejected even though its signature is valid.
func TestTokenExpired(t *testing.T) {
	store := newFakeUserStore()
	store.addUser(t, "alice", "wonderland")
	guard := NewTokenGuard(tokenTestConfig, store, zap.NewNop())
	router := tokenTestRouter(guard)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(tokenTestConfig.SecretKey))
	assert.NoError(t, err)

	recorder := requestProtected(router, expired)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, "Could not validate credentials", body["detail"])
}

// TestTokenVerificationFailures checks that a missing header, a malformed
// token, a wrong signature, a missing subject, and a subject whose user was
// deleted after issuance all collapse to the same opaque unauthorized
// response.
func TestTokenVerificationFailures(t *testing.T) {
	store := newFakeUserStore()
	store.addUser(t, "alice", "wonderland")
	guard := NewTokenGuard(tokenTestConfig, store, zap.NewNop())
	router := tokenTestRouter(guard)

	foreignSecret, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("some-other-secret"))
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(tokenTestConfig.SecretKey))
	deletedUser, err := guard.CreateAccessToken("ghost")
	assert.NoError(t, err)

	for name, token := range map[string]string{
		"missing header":  "",
		"malformed token": "garbage",
		"wrong signature": foreignSecret,
		"missing subject": noSubject,
		"deleted user":    deletedUser,
	} {
		recorder := requestProtected(router, token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, name)
		assert.Equal(t, "Bearer", recorder.Header().Get("WWW-Authenticate"), name)
		var body map[string]interface{}
		json.Unmarshal(recorder.Body.Bytes(), &body)
		assert.Equal(t, "Could not validate credentials", body["detail"], name)
	}
}

// TestEnsureSuperuser checks that the bootstrap creates the superuser with a
// verifiable hash exactly once, no matter how often the process restarts.
func TestEnsureSuperuser(t *testing.T) {
	store := newFakeUserStore()

	assert.NoError(t, EnsureSuperuser(store, "root", "toor"))
	assert.NoError(t, EnsureSuperuser(store, "root", "toor"))
	assert.Equal(t, 1, store.inserts)

	user := store.users["root"]
	assert.NotNil(t, user)
	assert.True(t, VerifyPassword("toor", user.HashedPassword))
	assert.False(t, VerifyPassword("wrong", user.HashedPassword))
}

// TestEnsureSuperuserStorageError checks that a failing user lookup
// propagates instead of being treated as an absent user.
func TestEnsureSuperuserStorageError(t *testing.T) {
	store := newFakeUserStore()
	store.err = errors.New("connection refused")
	assert.Error(t, EnsureSuperuser(store, "root", "toor"))
	assert.Equal(t, 0, store.inserts)
}
