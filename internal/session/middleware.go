package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const sessionIDContextKey = "session_id"

// Manager binds the session cookie to a Store.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *logrus.Logger
}

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func NewManager(store Store, opts Options, logger *logrus.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		store:      store,
		cookieName: opts.CookieName,
		ttl:        opts.TTL,
		secure:     opts.Secure,
		logger:     logger,
	}
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// Middleware resolves the session cookie. A cookie naming a live session is
// re-issued so the browser expiry slides with the server side one; unknown or
// expired ids are ignored and no session is created.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(m.cookieName)
		if err == nil && validID(id) {
			live, err := m.store.Touch(c.Request.Context(), id)
			if err != nil {
				m.logger.WithError(err).Warn("session lookup failed")
			}
			if live {
				c.Set(sessionIDContextKey, id)
				m.writeCookie(c, id)
			}
		}
		c.Next()
	}
}

// NewID mints a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Bind attaches id to the request and writes the session cookie. Call it
// before the response body is written.
func (m *Manager) Bind(c *gin.Context, id string) {
	if current, ok := IDFromContext(c); ok && current == id {
		return
	}
	c.Set(sessionIDContextKey, id)
	m.writeCookie(c, id)
}

// IDFromContext retrieves the session id resolved by the middleware.
func IDFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(sessionIDContextKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

func (m *Manager) writeCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, id, int(m.ttl/time.Second), "/", "", m.secure, true)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
