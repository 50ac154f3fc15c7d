package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"go-hospital/internal/auth"
	"go-hospital/internal/config"
	"go-hospital/internal/db"
	"go-hospital/internal/patient"
	"go-hospital/internal/seed"
	"go-hospital/internal/user"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testApp struct {
	r        *gin.Engine
	db       *gorm.DB
	patients *patient.GormRepository
	users    *user.Store
}

// setupApp builds the full router over a seeded in-memory database.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := db.Open("sqlite", dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	_, err = seed.Run(context.Background(), conn, "1234", zap.NewNop())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.JWTSecret = "test-secret"
	users := user.NewStore(conn)
	repo := patient.NewGormRepository(conn)
	a := auth.NewAuthenticator(users, auth.NewMemorySessionStore(), cfg.Server.JWTSecret, 30*time.Minute)

	r := SetupRouter(cfg, Deps{Patients: repo, Auth: a, Log: zap.NewNop()})
	return &testApp{r: r, db: conn, patients: repo, users: users}
}

func (app *testApp) do(req *http.Request, session string) *httptest.ResponseRecorder {
	if session != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: session})
	}
	w := httptest.NewRecorder()
	app.r.ServeHTTP(w, req)
	return w
}

func (app *testApp) get(path, session string) *httptest.ResponseRecorder {
	return app.do(httptest.NewRequest(http.MethodGet, path, nil), session)
}

func (app *testApp) postForm(path string, form url.Values, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return app.do(req, session)
}

// login signs in through the form and returns the session cookie value.
func (app *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	w := app.postForm("/login", url.Values{"username": {username}, "password": {password}}, "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/user/index", w.Header().Get("Location"), "login for %s should succeed", username)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == auth.SessionCookie {
			return ck.Value
		}
	}
	t.Fatalf("no session cookie set for %s", username)
	return ""
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func TestSetupRouter_PublicRoutes(t *testing.T) {
	app := setupApp(t)

	w := app.get("/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	w = app.get("/", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/user/index", w.Header().Get("Location"))

	w = app.get("/static/app.css", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.get("/notAuthorized", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1, parseHTML(t, w).Find(".not-authorized").Length())
}

func TestSetupRouter_MetricsAdminOnly(t *testing.T) {
	app := setupApp(t)

	w := app.get("/metrics", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = app.get("/metrics", app.login(t, "user2", "1234"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.get("/metrics", app.login(t, "admin", "1234"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestSetupRouter_ProtectedRoutesRedirectToLogin(t *testing.T) {
	app := setupApp(t)
	for _, p := range []string{"/user/index", "/admin/delete?id=1", "/admin/formPatients", "/admin/editPatient?id=1", "/nowhere"} {
		w := app.get(p, "")
		assert.Equal(t, http.StatusFound, w.Code, p)
		assert.Equal(t, "/login", w.Header().Get("Location"), p)
	}
	w := app.postForm("/admin/save", url.Values{"name": {"Mallory"}}, "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSetupRouter_UnknownPathForSignedInUser(t *testing.T) {
	app := setupApp(t)
	w := app.get("/nowhere", app.login(t, "user2", "1234"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth_ReportsStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", healthHandler(func(context.Context) error { return fmt.Errorf("down") }))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
