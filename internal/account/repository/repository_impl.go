package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/sensorlog/internal/account/domain"
	"gorm.io/gorm"
)

// repo stores accounts and their login sessions in one database.
type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) (domain.Repository, domain.SessionRepository) {
	r := &repo{db: db}
	return r, r
}

// findOne loads the first row matching query, translating a missing row
// into notFound.
func findOne[T any](q *gorm.DB, notFound error, query string, args ...any) (*T, error) {
	var row T
	err := q.Where(query, args...).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, notFound
	case err != nil:
		return nil, err
	}
	return &row, nil
}

// setColumn updates one column of the row with the given id.
func setColumn(q *gorm.DB, model any, id snowflake.ID, column string, value any, notFound error) error {
	res := q.Model(model).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}

func (r *repo) Create(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repo) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return findOne[domain.Account](r.db.WithContext(ctx), domain.ErrAccountNotFound, "username = ?", username)
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	return findOne[domain.Account](r.db.WithContext(ctx), domain.ErrAccountNotFound, "id = ?", id)
}

func (r *repo) UpdatePasswordHash(ctx context.Context, id snowflake.ID, hash string) error {
	return setColumn(r.db.WithContext(ctx), &domain.Account{}, id, "password_hash", hash, domain.ErrAccountNotFound)
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID, revokedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		revoke := tx.Model(&domain.Session{}).
			Where("account_id = ? AND revoked_at IS NULL", id).
			Update("revoked_at", revokedAt)
		if revoke.Error != nil {
			return revoke.Error
		}

		res := tx.Where("id = ?", id).Delete(&domain.Account{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAccountNotFound
		}
		return nil
	})
}

// List returns the public account columns ordered by username.
func (r *repo) List(ctx context.Context) ([]domain.Account, error) {
	accounts := []domain.Account{}
	err := r.db.WithContext(ctx).
		Select("id", "username", "created_at").
		Order("username ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) CreateSession(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repo) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	return findOne[domain.Session](r.db.WithContext(ctx), domain.ErrSessionNotFound, "session_token_hash = ?", tokenHash)
}

func (r *repo) UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error {
	return setColumn(r.db.WithContext(ctx), &domain.Session{}, sessionID, "last_seen_at", lastSeen, domain.ErrSessionNotFound)
}

func (r *repo) RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error {
	return setColumn(r.db.WithContext(ctx), &domain.Session{}, sessionID, "revoked_at", revokedAt, domain.ErrSessionNotFound)
}
