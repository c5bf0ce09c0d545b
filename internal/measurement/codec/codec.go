// Package codec converts measurements to and from the CSV, JSON and PDF
// exchange formats.
package codec

import (
	"fmt"
	"time"

	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
)

const (
	// TimestampLayout is used by every export format.
	TimestampLayout = "2006-01-02 15:04:05"

	filenameLayout = "2006-01-02_15-04-05"
	filenamePrefix = "messdaten_export_"
)

// Filename names an export file after the moment it was produced.
func Filename(format measurementdomain.Format, at time.Time) string {
	return fmt.Sprintf("%s%s.%s", filenamePrefix, at.Format(filenameLayout), format)
}

// ContentType returns the MIME type served for format.
func ContentType(format measurementdomain.Format) string {
	switch format {
	case measurementdomain.FormatJSON:
		return "application/json; charset=utf-8"
	case measurementdomain.FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}
