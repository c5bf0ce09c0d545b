package repository

import (
	"context"

	"github.com/smallbiznis/sensorlog/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

// List returns the newest entries first. Empty filter fields match all.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.AuditLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})
	for column, value := range map[string]string{
		"action":      filter.Action,
		"target_type": filter.TargetType,
		"target_id":   filter.TargetID,
		"actor":       filter.Actor,
	} {
		if value != "" {
			stmt = stmt.Where(column+" = ?", value)
		}
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	logs := []domain.AuditLog{}
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
