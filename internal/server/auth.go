package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/sensorlog/internal/account/domain"
	"github.com/smallbiznis/sensorlog/internal/identity"
	"github.com/smallbiznis/sensorlog/internal/observability/logger"
	"go.uber.org/zap"
)

func (s *Server) RegisterPage(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	_, err := s.accountSvc.Register(c.Request.Context(), accountdomain.RegisterRequest{
		Username: username,
		Password: c.PostForm("password"),
	})
	switch {
	case err == nil:
		s.renderPage(c, flashSuccess(fmt.Sprintf(msgRegistered, username)))
	case errors.Is(err, accountdomain.ErrValidation):
		s.renderPage(c, flashError(msgRegisterInvalid))
	case errors.Is(err, accountdomain.ErrDuplicateUsername):
		s.renderPage(c, flashError(msgRegisterFailed))
	default:
		logger.FromContext(c.Request.Context()).Error("register failed", zap.Error(err))
		s.renderPage(c, flashError(msgRegisterFailed))
	}
}

func (s *Server) LoginPage(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	result, err := s.accountSvc.Authenticate(c.Request.Context(), accountdomain.LoginRequest{
		Username:  username,
		Password:  c.PostForm("password"),
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		if !errors.Is(err, accountdomain.ErrInvalidCredentials) && !errors.Is(err, accountdomain.ErrValidation) {
			logger.FromContext(c.Request.Context()).Error("login failed", zap.Error(err))
		}
		s.renderPage(c, flashError(msgLoginFailed))
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	accountID, _ := snowflake.ParseString(result.Account.ID)
	setIdentity(c, identity.Identity{
		AccountID: accountID,
		Username:  result.Account.Username,
		SessionID: result.SessionID,
	})
	s.renderPage(c, flashSuccess(fmt.Sprintf(msgLoggedIn, result.Account.Username)))
}

func (s *Server) LogoutPage(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.accountSvc.Logout(c.Request.Context(), token); err != nil {
			logger.FromContext(c.Request.Context()).Warn("logout failed", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	clearIdentity(c)
	s.renderPage(c, flashInfo(msgLoggedOut))
}

// DeleteAccountPage deletes the account named in the form when the
// password matches. Deleting the logged-in account also ends the session.
func (s *Server) DeleteAccountPage(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	err := s.accountSvc.Delete(c.Request.Context(), accountdomain.DeleteRequest{
		Username: username,
		Password: c.PostForm("password"),
	})
	if err != nil {
		if !errors.Is(err, accountdomain.ErrInvalidCredentials) &&
			!errors.Is(err, accountdomain.ErrAccountNotFound) &&
			!errors.Is(err, accountdomain.ErrValidation) {
			logger.FromContext(c.Request.Context()).Error("delete account failed", zap.Error(err))
		}
		s.renderPage(c, flashError(msgAccountDeleteFails))
		return
	}

	if current, ok := currentIdentity(c); ok && current.Username == username {
		s.sessions.Clear(c)
		clearIdentity(c)
	}
	s.renderPage(c, flashSuccess(fmt.Sprintf(msgAccountDeleted, username)))
}
