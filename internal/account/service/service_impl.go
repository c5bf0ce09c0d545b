package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/jonboulle/clockwork"
	"github.com/smallbiznis/sensorlog/internal/account/domain"
	"github.com/smallbiznis/sensorlog/internal/account/password"
	auditdomain "github.com/smallbiznis/sensorlog/internal/audit/domain"
	"github.com/smallbiznis/sensorlog/internal/clock"
	"github.com/smallbiznis/sensorlog/internal/config"
	"github.com/smallbiznis/sensorlog/internal/identity"
	"github.com/smallbiznis/sensorlog/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 7 * 24 * time.Hour

	maxUsernameLength = 50
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	GenID       *snowflake.Node
	Clock       clockwork.Clock     `optional:"true"`
	AuditSvc    auditdomain.Service `optional:"true"`
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
}

type Service struct {
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clockwork.Clock
	auditSvc    auditdomain.Service
	sessionTTL  time.Duration
}

func New(p Params) domain.Service {
	ttl := p.Config.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{
		log:         p.Log.Named("account.service"),
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		genID:       p.GenID,
		clock:       clock.OrReal(p.Clock),
		auditSvc:    p.AuditSvc,
		sessionTTL:  ttl,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AccountView, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, domain.ErrInvalidUsername
	}
	if req.Password == "" {
		return nil, domain.ErrInvalidPassword
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:           s.genID.Generate(),
		Username:     username,
		PasswordHash: hashed,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, err
	}

	s.audit(ctx, "account.register", account)
	view := toView(account)
	return &view, nil
}

func (s *Service) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	account, err := s.verifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	if password.NeedsRehash(account.PasswordHash) {
		s.upgradeHash(ctx, account, req.Password)
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		AccountID:        account.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(s.sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		Account:   toView(account),
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) ResolveSession(ctx context.Context, rawToken string) (identity.Identity, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return identity.Identity{}, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return identity.Identity{}, domain.ErrInvalidSession
		}
		return identity.Identity{}, err
	}

	now := s.clock.Now().UTC()
	if session.RevokedAt != nil {
		return identity.Identity{}, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return identity.Identity{}, domain.ErrSessionExpired
	}

	account, err := s.repo.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return identity.Identity{}, domain.ErrInvalidSession
		}
		return identity.Identity{}, err
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		s.log.Debug("failed to touch session", zap.String("session_id", session.ID.String()), zap.Error(err))
	}

	return identity.Identity{
		AccountID: account.ID,
		Username:  account.Username,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}
	if session.RevokedAt != nil {
		return nil
	}

	return s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now().UTC())
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteRequest) error {
	account, err := s.verifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, account.ID, s.clock.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	}

	s.audit(ctx, "account.delete", account)
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.AccountView, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, toView(&accounts[i]))
	}
	return views, nil
}

func (s *Service) verifyCredentials(ctx context.Context, username, plain string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(plain, account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return account, nil
}

// upgradeHash replaces a legacy digest after a successful login. Failure
// leaves the old digest in place.
func (s *Service) upgradeHash(ctx context.Context, account *domain.Account, plain string) {
	hashed, err := password.Hash(plain)
	if err != nil {
		s.log.Warn("failed to rehash password", zap.Error(err))
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, account.ID, hashed); err != nil {
		s.log.Warn("failed to store upgraded password hash",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
		return
	}
	account.PasswordHash = hashed
}

func (s *Service) audit(ctx context.Context, action string, account *domain.Account) {
	if s.auditSvc == nil {
		return
	}
	targetID := account.ID.String()
	_ = s.auditSvc.AuditLog(ctx, action, auditdomain.TargetAccount, &targetID, map[string]any{
		"username": account.Username,
	})
}

func toView(account *domain.Account) domain.AccountView {
	return domain.AccountView{
		ID:        account.ID.String(),
		Username:  account.Username,
		CreatedAt: account.CreatedAt,
	}
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
