package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Measurement is a single recorded sensor reading. Timestamp keeps the
// precision it was recorded with; exports format it to whole seconds.
type Measurement struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	SensorName  string       `json:"sensor_name" gorm:"size:100;not null;index:idx_measurements_sensor_name"`
	Value       float64      `json:"value" gorm:"type:decimal(10,4);not null"`
	Unit        string       `json:"unit" gorm:"size:20;not null"`
	Timestamp   time.Time    `json:"timestamp" gorm:"column:timestamp;not null;index:idx_measurements_timestamp"`
	Location    string       `json:"location" gorm:"size:100"`
	Description string       `json:"description" gorm:"type:text"`
	CreatedBy   string       `json:"created_by" gorm:"size:50"`

	// Lower-cased copies of SensorName and Location for substring filters.
	SensorNameKey string `json:"-" gorm:"column:sensor_name_lc;size:200;not null;default:'';index:idx_measurements_sensor_name_lc"`
	LocationKey   string `json:"-" gorm:"column:location_lc;size:200;not null;default:'';index:idx_measurements_location_lc"`
}

// SearchKey folds s the way filter terms are folded before matching.
func SearchKey(s string) string {
	return strings.ToLower(s)
}

// RefreshSearchKeys derives the filter columns from SensorName and Location.
func (m *Measurement) RefreshSearchKeys() {
	m.SensorNameKey = SearchKey(m.SensorName)
	m.LocationKey = SearchKey(m.Location)
}

// TableName sets the database table name.
func (Measurement) TableName() string { return "measurements" }

// ListFilter is the resolved form of Filter handed to the repository.
// Zero values mean "no constraint".
type ListFilter struct {
	SensorName string
	Location   string
	From       *time.Time
	Until      *time.Time
}
