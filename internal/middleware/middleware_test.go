package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/notes-api/internal/config"
	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/utils"
)

type fakeUsers map[uint64]*model.User

func (f fakeUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func serve(t *testing.T, h echo.HandlerFunc, mws []echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/t", h, mws...)
	e.POST("/t", h, mws...)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

func TestAuthenticate(t *testing.T) {
	tokens := utils.NewTokenService("secret", time.Minute, time.Hour)
	users := fakeUsers{7: {ID: 7, Email: "ada@example.com"}}
	pair, err := tokens.Issue(7, "ada@example.com")
	require.NoError(t, err)
	ghost, err := tokens.Issue(99, "ghost@example.com")
	require.NoError(t, err)
	foreign, err := utils.NewTokenService("other", time.Minute, time.Hour).Issue(7, "ada@example.com")
	require.NoError(t, err)

	var seen *model.User
	h := func(c echo.Context) error {
		seen = CurrentUser(c)
		return c.String(http.StatusOK, currentUserID(c))
	}
	mw := []echo.MiddlewareFunc{Authenticate(tokens, users)}

	rec := serve(t, h, mw, withBearer(pair.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())
	require.NotNil(t, seen)
	assert.Equal(t, "ada@example.com", seen.Email)

	cases := map[string]*http.Request{
		"missing header": withBearer(""),
		"garbage token":  withBearer("not-a-jwt"),
		"wrong secret":   withBearer(foreign.AccessToken),
		"deleted user":   withBearer(ghost.AccessToken),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, okHandler, mw, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	basic := httptest.NewRequest(http.MethodGet, "/t", nil)
	basic.Header.Set(echo.HeaderAuthorization, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, serve(t, okHandler, mw, basic).Code)
}

func TestAuthenticate_TokenFromPreviousHolder(t *testing.T) {
	tokens := utils.NewTokenService("secret", time.Minute, time.Hour)
	before, err := tokens.Issue(5, "ada@example.com")
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	mw := []echo.MiddlewareFunc{Authenticate(tokens, fakeUsers{
		5: {ID: 5, Email: "ada@example.com", SessionsValidFrom: &future},
	})}
	rec := serve(t, okHandler, mw, withBearer(before.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")

	mw = []echo.MiddlewareFunc{Authenticate(tokens, fakeUsers{
		5: {ID: 5, Email: "ada@example.com", SessionsValidFrom: &past},
	})}
	assert.Equal(t, http.StatusOK, serve(t, okHandler, mw, withBearer(before.AccessToken)).Code)
}

func TestRefreshAuthenticate(t *testing.T) {
	tokens := utils.NewTokenService("secret", time.Minute, time.Hour)
	pair, err := tokens.Issue(12, "bob@example.com")
	require.NoError(t, err)

	var (
		gotID  uint64
		gotRaw string
	)
	h := func(c echo.Context) error {
		id, raw, ok := RefreshSubject(c)
		require.True(t, ok)
		gotID, gotRaw = id, raw
		return c.NoContent(http.StatusOK)
	}
	mw := []echo.MiddlewareFunc{RefreshAuthenticate(tokens)}

	rec := serve(t, h, mw, withBearer(pair.RefreshToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(12), gotID)
	assert.Equal(t, pair.RefreshToken, gotRaw)

	assert.Equal(t, http.StatusUnauthorized, serve(t, h, mw, withBearer("")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, mw, withBearer("x.y.z")).Code)
}

func TestRefreshSubject_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, _, ok := RefreshSubject(c)
	assert.False(t, ok)
}

func TestPolicyEvaluate(t *testing.T) {
	admin := &model.User{ID: 1, IsEmailConfirmed: true, Roles: []model.Role{{ID: 1, Name: "Administrador"}}}
	plain := &model.User{ID: 2, IsEmailConfirmed: true}
	unconfirmed := &model.User{ID: 3}

	assert.ErrorIs(t, Policy{}.Evaluate(nil), errNoUser)
	assert.NoError(t, Policy{}.Evaluate(unconfirmed))

	confirmed := Policy{RequireEmailConfirmed: true}
	assert.ErrorIs(t, confirmed.Evaluate(unconfirmed), errEmailNotConfirmed)
	assert.NoError(t, confirmed.Evaluate(plain))

	adminOnly := Policy{Roles: []string{"administrador"}}
	assert.NoError(t, adminOnly.Evaluate(admin))
	assert.ErrorIs(t, adminOnly.Evaluate(plain), errRoleDenied)

	anyOf := Policy{Roles: []string{"Editor", " ADMINISTRADOR "}}
	assert.NoError(t, anyOf.Evaluate(admin))
}

func TestAuthorize(t *testing.T) {
	setUser := func(u *model.User) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if u != nil {
					c.Set(ctxUser, u)
				}
				return next(c)
			}
		}
	}
	get := func() *http.Request { return httptest.NewRequest(http.MethodGet, "/t", nil) }

	admin := &model.User{ID: 1, IsEmailConfirmed: true, Roles: []model.Role{{Name: "Administrador"}}}
	noRoles := &model.User{ID: 2, IsEmailConfirmed: true}
	unconfirmed := &model.User{ID: 3, Roles: []model.Role{{Name: "Administrador"}}}

	rec := serve(t, okHandler, []echo.MiddlewareFunc{setUser(nil), RequireRole("Administrador")}, get())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, okHandler, []echo.MiddlewareFunc{setUser(noRoles), RequireRole("Administrador")}, get())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")

	rec = serve(t, okHandler, []echo.MiddlewareFunc{setUser(admin), RequireRole("administrador")}, get())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, okHandler, []echo.MiddlewareFunc{setUser(unconfirmed), RequireEmailConfirmed()}, get())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "email not confirmed")

	rec = serve(t, okHandler, []echo.MiddlewareFunc{setUser(admin), RequireEmailConfirmed()}, get())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	log := logrus.New()
	log.SetOutput(&strings.Builder{})

	var fromCtx logrus.FieldLogger
	h := func(c echo.Context) error {
		fromCtx = Logger(c)
		return c.NoContent(http.StatusNoContent)
	}
	mw := []echo.MiddlewareFunc{RequestLogger(log)}

	rec := serve(t, h, mw, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	entry, ok := fromCtx.(*logrus.Entry)
	require.True(t, ok)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), entry.Data["request_id"])

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec = serve(t, h, mw, req)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestLogger_HandlerError(t *testing.T) {
	log := logrus.New()
	log.SetOutput(&strings.Builder{})
	h := func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "nope") }

	rec := serve(t, h, []echo.MiddlewareFunc{RequestLogger(log)}, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

// scripter answers EvalSha from a canned sequence of results.
type scripter struct {
	redis.Scripter
	mu      sync.Mutex
	results [][]interface{}
	err     error
	keys    []string
}

func (s *scripter) EvalSha(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, keys...)
	if s.err != nil {
		return redis.NewCmdResult(nil, s.err)
	}
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return redis.NewCmdResult(r, nil)
}

func rateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestTokenBucket(t *testing.T) {
	s := &scripter{results: [][]interface{}{
		{int64(1), int64(1), int64(0)},
		{int64(0), int64(0), int64(1500)},
	}}
	mw := []echo.MiddlewareFunc{NewTokenBucket(rateConfig(), s)}

	rec := serve(t, okHandler, mw, httptest.NewRequest(http.MethodPost, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(t, okHandler, mw, httptest.NewRequest(http.MethodPost, "/t", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	require.NotEmpty(t, s.keys)
	assert.True(t, strings.HasPrefix(s.keys[0], "rl:ip:"))
	assert.True(t, strings.HasSuffix(s.keys[0], ":route:POST /t"))
}

func TestTokenBucket_FailsOpen(t *testing.T) {
	s := &scripter{err: errors.New("connection refused")}
	rec := serve(t, okHandler, []echo.MiddlewareFunc{NewTokenBucket(rateConfig(), s)}, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket_Disabled(t *testing.T) {
	cfg := rateConfig()
	cfg.Enabled = false
	s := &scripter{err: errors.New("must not be called")}
	rec := serve(t, okHandler, []echo.MiddlewareFunc{NewTokenBucket(cfg, s)}, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.keys)

	rec = serve(t, okHandler, []echo.MiddlewareFunc{NewTokenBucket(rateConfig(), nil)}, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/t")
	c.Set(ctxUserID, "42")

	cfg := rateConfig()
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(cfg, c))
	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:10.0.0.1:user:42:route:GET /t", buildRateKey(cfg, c))
}

// memRedis is the slice of redis.Cmdable the response cache touches.
type memRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMemRedis() *memRedis { return &memRedis{data: map[string]string{}} }

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) SetEx(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 10,
	}
}

func TestResponseCache_HitAndPurge(t *testing.T) {
	rdb := newMemRedis()
	rc := NewResponseCache(cacheConfig(), rdb)

	calls := 0
	h := func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, []string{"Administrador", "Editor"})
	}
	mw := []echo.MiddlewareFunc{rc.Middleware()}

	rec := serve(t, h, mw, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	first := rec.Body.String()

	rec = serve(t, h, mw, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, first, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")
	assert.Equal(t, 1, calls)

	// a different query string is a different entry
	rec = serve(t, h, mw, httptest.NewRequest(http.MethodGet, "/t?page=2", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	require.NoError(t, rc.Purge(context.Background()))
	assert.Empty(t, rdb.data)

	rec = serve(t, h, mw, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestResponseCache_SkipsNonOKAndOtherMethods(t *testing.T) {
	rdb := newMemRedis()
	rc := NewResponseCache(cacheConfig(), rdb)
	mw := []echo.MiddlewareFunc{rc.Middleware()}

	notFound := func(c echo.Context) error { return c.JSON(http.StatusNotFound, echo.Map{"error": "no"}) }
	serve(t, notFound, mw, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Zero(t, rdb.sets)

	rec := serve(t, okHandler, mw, httptest.NewRequest(http.MethodPost, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Zero(t, rdb.sets)
}

func TestResponseCache_SkipsOversizedBodies(t *testing.T) {
	rdb := newMemRedis()
	cfg := cacheConfig()
	cfg.MaxBodyBytes = 4
	rc := NewResponseCache(cfg, rdb)

	serve(t, okHandler, []echo.MiddlewareFunc{rc.Middleware()}, httptest.NewRequest(http.MethodGet, "/t", nil))
	rec := serve(t, func(c echo.Context) error { return c.String(http.StatusOK, "a longer body") },
		[]echo.MiddlewareFunc{rc.Middleware()}, httptest.NewRequest(http.MethodGet, "/t?x=1", nil))
	assert.Equal(t, "a longer body", rec.Body.String())
	assert.Equal(t, 1, rdb.sets)
}

func TestResponseCache_Disabled(t *testing.T) {
	rc := NewResponseCache(cacheConfig(), nil)
	rec := serve(t, okHandler, []echo.MiddlewareFunc{rc.Middleware()}, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, rc.Purge(context.Background()))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}
