package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() measurementdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *measurementdomain.Measurement) error {
	m.RefreshSearchKeys()
	return db.WithContext(ctx).Exec(
		`INSERT INTO measurements (id, sensor_name, value, unit, timestamp, location, description, created_by, sensor_name_lc, location_lc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.SensorName,
		m.Value,
		m.Unit,
		m.Timestamp,
		m.Location,
		m.Description,
		m.CreatedBy,
		m.SensorNameKey,
		m.LocationKey,
	).Error
}

// InsertBatch writes all items in a single transaction. When db already
// is a transaction the rows join it.
func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, items []measurementdomain.Measurement) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := r.Insert(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*measurementdomain.Measurement, error) {
	var m measurementdomain.Measurement
	err := db.WithContext(ctx).Raw(
		`SELECT id, sensor_name, value, unit, timestamp, location, description, created_by
		 FROM measurements WHERE id = ?`,
		id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter measurementdomain.ListFilter) ([]measurementdomain.Measurement, error) {
	var items []measurementdomain.Measurement
	err := db.WithContext(ctx).
		Model(&measurementdomain.Measurement{}).
		Scopes(filterScopes(filter)...).
		Order("timestamp desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, m *measurementdomain.Measurement) error {
	m.RefreshSearchKeys()
	return db.WithContext(ctx).Exec(
		`UPDATE measurements
		 SET sensor_name = ?, value = ?, unit = ?, location = ?, description = ?, sensor_name_lc = ?, location_lc = ?
		 WHERE id = ?`,
		m.SensorName,
		m.Value,
		m.Unit,
		m.Location,
		m.Description,
		m.SensorNameKey,
		m.LocationKey,
		m.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM measurements WHERE id = ?`, id)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
