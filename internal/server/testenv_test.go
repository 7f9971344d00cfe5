package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"quorum/internal/config"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/seed"
	"quorum/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// testEnv is a full server over an in-memory database loaded with the seed fixtures.
type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	fx     *seed.Fixtures
	mr     *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	fx, err := seed.LoadFixtures(db)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: testSecret, Env: "test", AllowedOrigins: "*"}
	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{server: s, app: s.NewApp(), db: db, fx: fx, mr: mr}
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, _, err := middleware.IssueToken(testSecret, user.ID, time.Now())
	require.NoError(t, err)
	return tok
}

// doJSON sends body as JSON, authenticated as user when user is non-nil.
func (e *testEnv) doJSON(t *testing.T, method, path string, body any, user *models.User) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, user))
	}
	return e.send(t, req)
}

// doForm sends form-encoded params, the way browser forms post.
func (e *testEnv) doForm(t *testing.T, method, path string, form url.Values, user *models.User) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, user))
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func flashFrom(resp *http.Response) (string, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == flashCookie {
			v, err := url.QueryUnescape(c.Value)
			if err != nil {
				return c.Value, true
			}
			return v, true
		}
	}
	return "", false
}
