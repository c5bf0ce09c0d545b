// Package session carries the login token between the browser and the
// account service. Token validation lives in the account service; this
// package only reads and writes the cookie.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/smallbiznis/sensorlog/internal/clock"
	"github.com/smallbiznis/sensorlog/internal/config"
	"go.uber.org/fx"
)

const (
	DefaultCookieName = "_sid"
	cookiePath        = "/"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Clock clockwork.Clock `optional:"true"`
}

// Manager writes the session cookie for the form page and the JSON API.
type Manager struct {
	name   string
	secure bool
	clock  clockwork.Clock
}

func NewManager(p Params) *Manager {
	return &Manager{
		name:   DefaultCookieName,
		secure: p.Cfg.AuthCookieSecure,
		clock:  clock.OrReal(p.Clock),
	}
}

func (m *Manager) CookieName() string {
	return m.name
}

// ReadToken returns the raw session token, if the request carries one.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.name)
	if err != nil {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// Set stores token until expiresAt. An expiry in the past writes a cookie
// the browser drops immediately.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	m.write(c, token, maxAgeUntil(m.clock.Now(), expiresAt))
}

func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, value, maxAge, cookiePath, "", m.secure, true)
}

func maxAgeUntil(now, expiresAt time.Time) int {
	secs := int(expiresAt.Sub(now) / time.Second)
	if secs <= 0 {
		return -1
	}
	return secs
}
