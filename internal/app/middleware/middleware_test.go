package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"
	"hoa-http-service/internal/test/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	return testutil.PerformRequest(r, http.MethodGet, path, nil, headers)
}

func getFrom(r http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIPRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(IPRateLimiter(1, 2))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, getFrom(r, "/ping", "198.51.100.7:4000").Code)
	assert.Equal(t, http.StatusOK, getFrom(r, "/ping", "198.51.100.7:4001").Code)

	w := getFrom(r, "/ping", "198.51.100.7:4002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, code.ErrTooManyRequests, testutil.Decode(t, w).Code)

	// Buckets are per client IP
	w = getFrom(r, "/ping", "203.0.113.9:4000")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCombinedRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(CombinedRateLimiter(0.001, 1))
	r.GET("/a", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/b", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/a", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/a", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/b", nil).Code)
}

func TestTokenBucketRefills(t *testing.T) {
	bucket := NewTokenBucket(1000, 1)
	assert.True(t, bucket.Allow())
	time.Sleep(5 * time.Millisecond)
	assert.True(t, bucket.Allow())
}

func TestResponseCache(t *testing.T) {
	cache := NewResponseCache()
	var hits int32

	r := gin.New()
	group := r.Group("/types", cache.PurgeOnWrite("types"))
	group.GET("", cache.Cache("types", time.Minute), func(c *gin.Context) {
		n := atomic.AddInt32(&hits, 1)
		response.Success(c, gin.H{"served": n})
	})
	group.POST("", func(c *gin.Context) { response.Created(c, nil) })
	group.PUT("/fail", func(c *gin.Context) { response.ParamError(c, "") })

	w := get(r, "/types?b=2&a=1", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = get(r, "/types?a=1&b=2", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	var data struct {
		Served int `json:"served"`
	}
	testutil.DecodeData(t, w, &data)
	assert.Equal(t, 1, data.Served)

	// Failed writes keep the cache
	testutil.PerformRequest(r, http.MethodPut, "/types/fail", nil, nil)
	assert.Equal(t, 1, cache.Len())

	w = testutil.PerformRequest(r, http.MethodPost, "/types", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, cache.Len())

	w = get(r, "/types?a=1&b=2", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestAuthenticate(t *testing.T) {
	env := testutil.NewEnv(t)
	jwtService := env.JWT()

	r := gin.New()
	whoami := func(c *gin.Context) {
		response.Success(c, gin.H{"owner_id": OwnerID(c), "board": IsBoardMember(c)})
	}
	r.GET("/me", Authenticate(jwtService, false), whoami)
	r.GET("/password", Authenticate(jwtService, true), whoami)
	r.GET("/board", Authenticate(jwtService, false), RequireBoardMember(env.Board()), whoami)

	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bea := env.CreateBoardMember(t, "Bea", "bea@example.com")
	cal := env.CreateOwner(t, "Cal", "cal@example.com")

	resident := env.Token(t, ada, services.RoleResident)
	board := env.Token(t, bea, services.RoleBoardMember)
	forged, _, err := jwtService.GenerateToken(cal.ID, services.RoleBoardMember, false)
	require.NoError(t, err)
	temporary, _, err := jwtService.GenerateToken(cal.ID, services.RoleResident, true)
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		headers  map[string]string
		wantHTTP int
		wantCode int
	}{
		{"missing header", "/me", nil, http.StatusUnauthorized, code.ErrTokenInvalid},
		{"not bearer", "/me", map[string]string{"Authorization": "Token " + resident}, http.StatusUnauthorized, code.ErrTokenInvalid},
		{"garbage token", "/me", testutil.AuthHeaders("garbage"), http.StatusUnauthorized, code.ErrTokenInvalid},
		{"resident", "/me", testutil.AuthHeaders(resident), http.StatusOK, code.ErrSuccess},
		{"temporary password", "/me", testutil.AuthHeaders(temporary), http.StatusForbidden, code.ErrTemporaryPassword},
		{"temporary password may change it", "/password", testutil.AuthHeaders(temporary), http.StatusOK, code.ErrSuccess},
		{"resident on board route", "/board", testutil.AuthHeaders(resident), http.StatusForbidden, code.ErrPermissionDenied},
		{"board member", "/board", testutil.AuthHeaders(board), http.StatusOK, code.ErrSuccess},
		{"board claim without active role", "/board", testutil.AuthHeaders(forged), http.StatusForbidden, code.ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.path, tt.headers)
			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, tt.wantCode, testutil.Decode(t, w).Code)
		})
	}

	w := get(r, "/me", testutil.AuthHeaders(resident))
	var me struct {
		OwnerID uint `json:"owner_id"`
		Board   bool `json:"board"`
	}
	testutil.DecodeData(t, w, &me)
	assert.Equal(t, ada.ID, me.OwnerID)
	assert.False(t, me.Board)

	env.Clock.Advance(24 * time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", testutil.AuthHeaders(resident)).Code)
}
