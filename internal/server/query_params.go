package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
)

// legacyFilterParams maps the query names of older bookmarks and export
// links onto the current filter fields.
var legacyFilterParams = map[string]string{
	"sensor_name": "filter_sensor",
	"date_from":   "filter_datum_von",
	"date_to":     "filter_datum_bis",
	"location":    "filter_standort",
}

func filterFromQuery(c *gin.Context) measurementdomain.Filter {
	return measurementdomain.Filter{
		SensorName: queryWithLegacy(c, "sensor_name"),
		DateFrom:   queryWithLegacy(c, "date_from"),
		DateTo:     queryWithLegacy(c, "date_to"),
		Location:   queryWithLegacy(c, "location"),
	}
}

func queryWithLegacy(c *gin.Context, name string) string {
	if value := strings.TrimSpace(c.Query(name)); value != "" {
		return value
	}
	return strings.TrimSpace(c.Query(legacyFilterParams[name]))
}

// filterQuery encodes a filter for export links.
func filterQuery(f measurementdomain.Filter) string {
	values := url.Values{}
	if f.SensorName != "" {
		values.Set("sensor_name", f.SensorName)
	}
	if f.DateFrom != "" {
		values.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		values.Set("date_to", f.DateTo)
	}
	if f.Location != "" {
		values.Set("location", f.Location)
	}
	return values.Encode()
}

// parseFormValue accepts both "." and "," as decimal separator.
func parseFormValue(value string) (*float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, false
	}
	parsed, err := strconv.ParseFloat(strings.Replace(trimmed, ",", ".", 1), 64)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

// formWithLegacy reads a form field, falling back to its older name.
func formWithLegacy(c *gin.Context, name, legacy string) string {
	if value, ok := c.GetPostForm(name); ok {
		return value
	}
	return c.PostForm(legacy)
}
