package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	CreateBatch(ctx context.Context, req BatchRequest) ([]Response, error)
	List(ctx context.Context, filter Filter) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	// Delete reports whether a row was actually removed.
	Delete(ctx context.Context, id string) (bool, error)
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
	Export(ctx context.Context, filter Filter, format Format, w io.Writer) error
}

// Filter holds the optional list criteria as submitted by a client.
// Dates use the YYYY-MM-DD layout and are inclusive.
type Filter struct {
	SensorName string `form:"sensor_name" json:"sensor_name"`
	DateFrom   string `form:"date_from" json:"date_from"`
	DateTo     string `form:"date_to" json:"date_to"`
	Location   string `form:"location" json:"location"`
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.SensorName) == "" &&
		strings.TrimSpace(f.DateFrom) == "" &&
		strings.TrimSpace(f.DateTo) == "" &&
		strings.TrimSpace(f.Location) == ""
}

type CreateRequest struct {
	SensorName  string     `json:"sensor_name"`
	Value       *float64   `json:"value"`
	Unit        string     `json:"unit"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	// CreatedBy overrides the creator derived from the request identity.
	CreatedBy string `json:"-"`
}

// BatchRequest stores all readings in one transaction under a shared
// timestamp and creator. Per-item Timestamp and CreatedBy are ignored.
type BatchRequest struct {
	Items     []CreateRequest
	Timestamp *time.Time
	CreatedBy string
}

// UpdateRequest fully replaces the editable fields of a measurement.
type UpdateRequest struct {
	ID          string   `json:"-"`
	SensorName  string   `json:"sensor_name"`
	Value       *float64 `json:"value"`
	Unit        string   `json:"unit"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
}

type Response struct {
	ID          string    `json:"id"`
	SensorName  string    `json:"sensor_name"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit"`
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
}

// ImportResult summarizes a CSV import. Errors are human readable and
// carry the 1-indexed data row they refer to.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a query value onto a Format.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}
}

var (
	ErrValidation        = errors.New("validation_error")
	ErrInvalidSensorName = fmt.Errorf("%w: invalid_sensor_name", ErrValidation)
	ErrInvalidValue      = fmt.Errorf("%w: invalid_value", ErrValidation)
	ErrInvalidUnit       = fmt.Errorf("%w: invalid_unit", ErrValidation)
	ErrInvalidLocation   = fmt.Errorf("%w: invalid_location", ErrValidation)
	ErrInvalidFilter     = fmt.Errorf("%w: invalid_filter", ErrValidation)
	ErrInvalidFormat     = fmt.Errorf("%w: invalid_format", ErrValidation)
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
