package repository

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/sensorlog/internal/account/domain"
	"github.com/smallbiznis/sensorlog/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Account{}, &domain.Session{}))
	return conn
}

func TestCreateDuplicateUsernameIsDuplicateKey(t *testing.T) {
	repo, _ := New(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &domain.Account{ID: 1, Username: "alice", PasswordHash: "x", CreatedAt: now}))
	err := repo.Create(ctx, &domain.Account{ID: 2, Username: "alice", PasswordHash: "y", CreatedAt: now})
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))
}

func TestDeleteMissingAccount(t *testing.T) {
	repo, sessions := New(newTestDB(t))
	ctx := context.Background()

	assert.ErrorIs(t, repo.Delete(ctx, 99, time.Now()), domain.ErrAccountNotFound)

	_, err := sessions.GetSessionByTokenHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestListOrdersByUsernameWithoutHash(t *testing.T) {
	repo, _ := New(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	require.NoError(t, repo.Create(ctx, &domain.Account{ID: 1, Username: "zoe", PasswordHash: "x", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &domain.Account{ID: 2, Username: "bob", PasswordHash: "y", CreatedAt: now}))

	items, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "bob", items[0].Username)
	assert.Equal(t, "zoe", items[1].Username)
	assert.Empty(t, items[0].PasswordHash)
}

func TestDeleteRevokesOpenSessions(t *testing.T) {
	conn := newTestDB(t)
	repo, sessions := New(conn)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &domain.Account{ID: 1, Username: "alice", PasswordHash: "x", CreatedAt: now}))
	require.NoError(t, sessions.CreateSession(ctx, &domain.Session{
		ID:               10,
		AccountID:        1,
		SessionTokenHash: "hash-1",
		ExpiresAt:        now.Add(time.Hour),
		CreatedAt:        now,
		LastSeenAt:       now,
	}))

	require.NoError(t, repo.Delete(ctx, 1, now))

	_, err := repo.FindByUsername(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	sess, err := sessions.GetSessionByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, sess.RevokedAt)
	assert.True(t, sess.RevokedAt.Equal(now))
}

func TestUpdatePasswordHashAndLastSeen(t *testing.T) {
	repo, sessions := New(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &domain.Account{ID: 1, Username: "alice", PasswordHash: "old", CreatedAt: now}))
	require.NoError(t, repo.UpdatePasswordHash(ctx, 1, "new"))

	account, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", account.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, 2, "x"), domain.ErrAccountNotFound)
	assert.ErrorIs(t, sessions.UpdateLastSeen(ctx, 5, now), domain.ErrSessionNotFound)
	assert.ErrorIs(t, sessions.RevokeSession(ctx, 5, now), domain.ErrSessionNotFound)
}
