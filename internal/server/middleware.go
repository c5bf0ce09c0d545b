package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/sensorlog/internal/identity"
	obscontext "github.com/smallbiznis/sensorlog/internal/observability/context"
	"github.com/smallbiznis/sensorlog/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextIdentityKey = "identity"

	rateLimitReasonClientRate = "client-rate"
)

// SessionIdentity resolves the session cookie, when present, into the
// request identity. Invalid or expired cookies are cleared and the request
// continues anonymously.
func (s *Server) SessionIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		id, err := s.accountSvc.ResolveSession(ctx, token)
		if err != nil {
			logger.FromContext(ctx).Debug("session rejected", zap.Error(err))
			s.sessions.Clear(c)
			c.Next()
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// PageAuthRequired renders the page with an error message for anonymous
// visitors instead of running the action.
func (s *Server) PageAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); ok {
			c.Next()
			return
		}
		s.renderPageStatus(c, http.StatusUnauthorized, flashError(msgLoginRequired))
		c.Abort()
	}
}

func (s *Server) APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// IngestToken checks the shared device token when one is configured.
func (s *Server) IngestToken() gin.HandlerFunc {
	expected := strings.TrimSpace(s.cfg.Ingest.Token)
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		provided := bearerToken(c.GetHeader("Authorization"))
		if provided == "" {
			provided = strings.TrimSpace(c.PostForm("token"))
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) IngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ingestLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.ingestLimiter.AllowClient(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("ingest rate limit check failed", zap.Error(err))
			c.String(http.StatusServiceUnavailable, "Service Unavailable")
			c.Abort()
			return
		}
		if !result.Allowed {
			logger.FromContext(ctx).Warn("ingest rate limit exceeded",
				zap.String("reason", rateLimitReasonClientRate),
				zap.String("client_ip", c.ClientIP()),
			)
			s.obsMetrics.RecordIngestRateLimited(ctx, rateLimitReasonClientRate)

			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-Rate-Limited-Reason", rateLimitReasonClientRate)
			c.String(http.StatusTooManyRequests, "Too Many Requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, id identity.Identity) {
	c.Set(contextIdentityKey, id)
	ctx := identity.WithIdentity(c.Request.Context(), id)
	ctx = obscontext.WithActor(ctx, id.Username)
	c.Request = c.Request.WithContext(ctx)
}

// clearIdentity hides the identity from the rest of the request, e.g.
// right after logout. The request context keeps its actor for auditing.
func clearIdentity(c *gin.Context) {
	c.Set(contextIdentityKey, identity.Identity{})
}

func currentIdentity(c *gin.Context) (identity.Identity, bool) {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := value.(identity.Identity)
	if !ok || strings.TrimSpace(id.Username) == "" {
		return identity.Identity{}, false
	}
	return id, true
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
