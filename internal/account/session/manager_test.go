package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/smallbiznis/sensorlog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestManagerSetAndClear(t *testing.T) {
	m := NewManager(Params{
		Cfg:   config.Config{AuthCookieSecure: true},
		Clock: clockwork.NewFakeClockAt(sessionNow),
	})

	c, rec := newContext()
	m.Set(c, "tok", sessionNow.Add(7*24*time.Hour))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 7*24*3600, cookies[0].MaxAge)

	c, rec = newContext()
	m.Clear(c)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestManagerSetExpiredToken(t *testing.T) {
	m := NewManager(Params{Clock: clockwork.NewFakeClockAt(sessionNow)})

	c, rec := newContext()
	m.Set(c, "tok", sessionNow.Add(-time.Minute))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.False(t, cookies[0].Secure)
}

func TestManagerReadToken(t *testing.T) {
	m := NewManager(Params{})

	c, _ := newContext()
	_, ok := m.ReadToken(c)
	assert.False(t, ok)

	c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "abc"})
	token, ok := m.ReadToken(c)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestManagerReadTokenIgnoresBlankCookie(t *testing.T) {
	m := NewManager(Params{})

	c, _ := newContext()
	c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "  "})
	_, ok := m.ReadToken(c)
	assert.False(t, ok)
}
