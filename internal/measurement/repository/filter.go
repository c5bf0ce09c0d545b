package repository

import (
	"strings"

	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"gorm.io/gorm"
)

// likeEscape is understood by sqlite, postgres and mysql alike.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// containsPattern builds a substring pattern for LIKE against a column
// holding SearchKey values.
func containsPattern(term string) string {
	return "%" + likeReplacer.Replace(measurementdomain.SearchKey(term)) + "%"
}

func filterScopes(filter measurementdomain.ListFilter) []func(*gorm.DB) *gorm.DB {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, 4)
	if term := strings.TrimSpace(filter.SensorName); term != "" {
		scopes = append(scopes, containsScope("sensor_name_lc", term))
	}
	if term := strings.TrimSpace(filter.Location); term != "" {
		scopes = append(scopes, containsScope("location_lc", term))
	}
	if filter.From != nil {
		from := filter.From.UTC()
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("timestamp >= ?", from)
		})
	}
	if filter.Until != nil {
		until := filter.Until.UTC()
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("timestamp < ?", until)
		})
	}
	return scopes
}

// containsScope matches a search column against term; both sides are folded
// by SearchKey. column is never user input.
func containsScope(column, term string) func(*gorm.DB) *gorm.DB {
	pattern := containsPattern(term)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" LIKE ? ESCAPE '"+likeEscape+"'", pattern)
	}
}
