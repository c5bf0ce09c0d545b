package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/sensorlog/internal/identity"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AccountView, error)
	Authenticate(ctx context.Context, req LoginRequest) (*LoginResult, error)
	ResolveSession(ctx context.Context, rawToken string) (identity.Identity, error)
	Logout(ctx context.Context, rawToken string) error
	// Delete removes the account matching the credential pair. The caller
	// does not have to be logged in as that account.
	Delete(ctx context.Context, req DeleteRequest) error
	List(ctx context.Context) ([]AccountView, error)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type DeleteRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Account   AccountView
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
