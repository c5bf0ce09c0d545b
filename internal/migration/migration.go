package migration

import (
	"errors"
	"fmt"

	accountdomain "github.com/smallbiznis/sensorlog/internal/account/domain"
	auditdomain "github.com/smallbiznis/sensorlog/internal/audit/domain"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"gorm.io/gorm"
)

// Models lists every table the application owns, in creation order.
func Models() []any {
	return []any{
		&accountdomain.Account{},
		&accountdomain.Session{},
		&measurementdomain.Measurement{},
		&auditdomain.AuditLog{},
	}
}

// RunMigrations creates or extends the schema for the connected dialect.
// Existing rows and columns are never dropped.
func RunMigrations(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := backfillSearchKeys(conn); err != nil {
		return fmt.Errorf("backfill measurement search keys: %w", err)
	}
	return nil
}

const backfillBatchSize = 500

// backfillSearchKeys fills sensor_name_lc and location_lc for rows written
// before those columns existed.
func backfillSearchKeys(conn *gorm.DB) error {
	var batch []measurementdomain.Measurement
	return conn.Model(&measurementdomain.Measurement{}).
		Select("id", "sensor_name", "location").
		Where("sensor_name_lc = ? AND sensor_name <> ?", "", "").
		FindInBatches(&batch, backfillBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				m := &batch[i]
				m.RefreshSearchKeys()
				err := conn.Exec(
					"UPDATE measurements SET sensor_name_lc = ?, location_lc = ? WHERE id = ?",
					m.SensorNameKey, m.LocationKey, m.ID,
				).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}
