package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newMiddlewareRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/whoami", func(c *gin.Context) {
		id, _ := IDFromContext(c)
		c.String(http.StatusOK, id)
	})
	router.POST("/bind", func(c *gin.Context) {
		id, ok := IDFromContext(c)
		if !ok {
			id = NewID()
		}
		m.Bind(c, id)
		c.String(http.StatusOK, id)
	})
	return router
}

func TestMiddlewareIgnoresUnknownSession(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute), Options{TTL: time.Minute}, nil)
	router := newMiddlewareRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: NewID()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Empty(t, rec.Result().Cookies())
}

func TestMiddlewareRejectsMalformedID(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	require.NoError(t, store.Set(context.Background(), "not-a-uuid", KeyPDFContent, "x"))
	router := newMiddlewareRouter(NewManager(store, Options{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Empty(t, rec.Body.String())
}

func TestMiddlewareRefreshesLiveSession(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	m := NewManager(store, Options{TTL: 30 * time.Minute, Secure: true}, nil)
	router := newMiddlewareRouter(m)

	id := NewID()
	require.NoError(t, store.Set(context.Background(), id, KeyPDFContent, "text"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: id})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, id, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "session", cookies[0].Name)
	require.Equal(t, id, cookies[0].Value)
	require.Equal(t, 1800, cookies[0].MaxAge)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Secure)
	require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	require.Equal(t, "/", cookies[0].Path)
}

func TestBindMintsCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute), Options{CookieName: "pdfq", TTL: time.Minute}, nil)
	router := newMiddlewareRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bind", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "pdfq", cookies[0].Name)
	require.Equal(t, rec.Body.String(), cookies[0].Value)
	require.True(t, validID(cookies[0].Value))
	require.False(t, cookies[0].Secure)
}

func TestBindKeepsResolvedSession(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	m := NewManager(store, Options{TTL: time.Minute}, nil)
	router := newMiddlewareRouter(m)

	id := NewID()
	require.NoError(t, store.Set(context.Background(), id, KeyPDFContent, "text"))

	req := httptest.NewRequest(http.MethodPost, "/bind", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: id})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, id, rec.Body.String())
	require.Len(t, rec.Result().Cookies(), 1)
}
