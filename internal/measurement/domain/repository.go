package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, m *Measurement) error
	InsertBatch(ctx context.Context, db *gorm.DB, items []Measurement) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Measurement, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Measurement, error)
	Update(ctx context.Context, db *gorm.DB, m *Measurement) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
