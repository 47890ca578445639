package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shapediary/internal/config"
	"shapediary/internal/models"
	"shapediary/internal/sentiment"
)

type stubGenerator struct {
	generateFn func(context.Context, string) ([]byte, error)
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if s.generateFn != nil {
		return s.generateFn(ctx, prompt)
	}
	return []byte("png-bytes"), nil
}

type testHarness struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	gen    *stubGenerator
}

func newTestHarness(t *testing.T) *testHarness {
	return newTestHarnessWithFlags(t, "image_generation=on")
}

func newTestHarnessWithFlags(t *testing.T, flags string) *testHarness {
	t.Helper()
	os.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env:             "test",
		SessionSecret:   "test-secret",
		StaticDir:       t.TempDir(),
		StaticURL:       "static",
		DisplayTimezone: "Asia/Tokyo",
		FeatureFlags:    flags,
	}

	lexicon := sentiment.NewLexicon(map[string]sentiment.Polarity{
		"happy": sentiment.Positive,
		"sad":   sentiment.Negative,
	})

	gen := &stubGenerator{}
	srv, err := NewServerWithDeps(cfg, db, rdb, lexicon, gen)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)

	return &testHarness{server: srv, app: app, db: db, gen: gen}
}

// register creates an account through the handler so passwords are hashed the
// same way production does it.
func (h *testHarness) register(t *testing.T, username, password string) *models.User {
	t.Helper()
	resp := h.postForm(t, "/newuser", "", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, h.db.Where("username = ?", username).First(&user).Error)
	return &user
}

// login returns the session cookie value for the user.
func (h *testHarness) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := h.postForm(t, "/login", "", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == "shapediary_session" && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("no session cookie in login response")
	return ""
}

func (h *testHarness) get(t *testing.T, path, cookie string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "shapediary_session", Value: cookie})
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (h *testHarness) postForm(t *testing.T, path, cookie string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "shapediary_session", Value: cookie})
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
