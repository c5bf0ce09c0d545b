package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, account *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id snowflake.ID, hash string) error
	// Delete removes the account and revokes its open sessions atomically.
	Delete(ctx context.Context, id snowflake.ID, revokedAt time.Time) error
	List(ctx context.Context) ([]Account, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error
	RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error
}
