package codec

import (
	"encoding/json"
	"io"
	"time"

	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
)

// exportRecord keeps the German export keys stable regardless of the API
// representation.
type exportRecord struct {
	ID          string  `json:"id"`
	SensorName  string  `json:"sensor_name"`
	Value       float64 `json:"messwert"`
	Unit        string  `json:"einheit"`
	Timestamp   string  `json:"zeitstempel"`
	Location    string  `json:"standort"`
	Description string  `json:"beschreibung"`
	CreatedBy   string  `json:"erstellt_von"`
}

// WriteJSON writes items as a pretty-printed array. Non-ASCII and HTML
// characters are written as-is.
func WriteJSON(w io.Writer, items []measurementdomain.Response, loc *time.Location) error {
	records := make([]exportRecord, 0, len(items))
	for _, item := range items {
		records = append(records, exportRecord{
			ID:          item.ID,
			SensorName:  item.SensorName,
			Value:       item.Value,
			Unit:        item.Unit,
			Timestamp:   formatTimestamp(item.Timestamp, loc),
			Location:    item.Location,
			Description: item.Description,
			CreatedBy:   item.CreatedBy,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}
