package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/permissions"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/utils"
)

var secret = []byte("middleware-test")

func token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, uid, uid+"@x.io", time.Hour)
	require.NoError(t, err)
	return tok
}

func setup(t *testing.T) (*gin.Engine, repository.Stores, *utils.MemoryRevocations) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	stores := repository.NewMemoryStores()
	ctx := context.Background()
	require.NoError(t, stores.Roster.Create(ctx, models.User{UID: "boss", Role: models.RoleSuperAdmin, Status: models.StatusActive, Access: models.FullAccess()}))
	require.NoError(t, stores.Roster.Create(ctx, models.User{UID: "mm", Role: models.RoleMediaManager, Status: models.StatusActive, Access: models.Access{CanUpload: true}}))
	require.NoError(t, stores.Roster.Create(ctx, models.User{UID: "gone", Role: models.RoleAdmin, Status: models.StatusInactive, Access: models.FullAccess()}))
	require.NoError(t, stores.Roster.Create(ctx, models.User{UID: "norole", Status: models.StatusActive}))

	rev := utils.NewMemoryRevocations()
	auth := NewAuthorizer(utils.NewHMACVerifier(secret, "", ""), stores.Roster, rev)

	r := gin.New()
	g := r.Group("/", Authenticate(auth))
	g.GET("/whoami", func(ctx *gin.Context) {
		u, _ := CurrentUser(ctx)
		utils.Success(ctx, gin.H{"uid": u.UID})
	})
	g.POST("/upload", Require(permissions.Upload), func(ctx *gin.Context) { utils.Success(ctx, nil) })
	g.POST("/admins", Require(permissions.ManageAdmins), func(ctx *gin.Context) { utils.Success(ctx, nil) })
	g.GET("/dashboard", RequireRole(models.RoleAdmin), func(ctx *gin.Context) { utils.Success(ctx, nil) })
	return r, stores, rev
}

func call(r http.Handler, method, path, bearer string) (int, utils.Envelope) {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env utils.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func TestAuthenticate(t *testing.T) {
	r, _, _ := setup(t)

	code, env := call(r, http.MethodGet, "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Missing or invalid authorization header", env.Error)

	code, _ = call(r, http.MethodGet, "/whoami", "garbage")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = call(r, http.MethodGet, "/whoami", token(t, "stranger"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "User record not found", env.Error)

	code, env = call(r, http.MethodGet, "/whoami", token(t, "norole"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "User has no assigned role", env.Error)

	code, env = call(r, http.MethodGet, "/whoami", token(t, "gone"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "User account is not active", env.Error)

	code, env = call(r, http.MethodGet, "/whoami", token(t, "mm"))
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]interface{}{"uid": "mm"}, env.Data)
}

func TestAuthenticateRejectsRevokedToken(t *testing.T) {
	r, _, rev := setup(t)
	tok := token(t, "boss")
	require.NoError(t, rev.Revoke(context.Background(), tok, time.Now().Add(time.Hour)))

	code, env := call(r, http.MethodGet, "/whoami", tok)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token has been revoked", env.Error)
}

func TestRequire(t *testing.T) {
	r, _, _ := setup(t)

	code, _ := call(r, http.MethodPost, "/upload", token(t, "mm"))
	assert.Equal(t, http.StatusOK, code)

	code, env := call(r, http.MethodPost, "/admins", token(t, "mm"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Only super admins can manage users", env.Error)

	code, _ = call(r, http.MethodPost, "/admins", token(t, "boss"))
	assert.Equal(t, http.StatusOK, code)
}

func TestRequireRole(t *testing.T) {
	r, _, _ := setup(t)

	code, env := call(r, http.MethodGet, "/dashboard", token(t, "mm"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied", env.Error)

	code, _ = call(r, http.MethodGet, "/dashboard", token(t, "boss"))
	assert.Equal(t, http.StatusOK, code)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "abc"} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(4)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst is half the per-minute budget")
	assert.True(t, l.Allow("b"), "buckets are per key")

	now = now.Add(15 * time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(10 * time.Minute)
	l.Allow("c")
	l.mu.Lock()
	_, kept := l.clients["a"]
	l.mu.Unlock()
	assert.False(t, kept, "idle buckets are evicted")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(2)))
	r.GET("/x", func(ctx *gin.Context) { utils.Success(ctx, nil) })

	code, _ := call(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, code)
	code, env := call(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Rate limit exceeded", env.Error)
}
