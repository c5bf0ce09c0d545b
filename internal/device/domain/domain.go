package domain

import (
	"context"
	"errors"
	"fmt"

	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
)

// Snapshot holds the numeric readings of one sensor block reported by
// the device, keyed by field name (e.g. "Temperature").
type Snapshot struct {
	Sensor     string
	Values     map[string]float64
	ReportedAt string
}

// StatusReader fetches the current sensor readings of a device.
type StatusReader interface {
	// Name identifies the device, e.g. its base URL.
	Name() string
	Status(ctx context.Context) (Snapshot, error)
}

// PollGuard serializes polls of the same device across replicas.
type PollGuard interface {
	AcquireDevicePoll(ctx context.Context, device string) (release func(), ok bool)
}

type Service interface {
	// Import polls the device and stores one measurement per mapped reading.
	Import(ctx context.Context) ([]measurementdomain.Response, error)
}

var (
	ErrConnectivity      = errors.New("device_unreachable")
	ErrSensorDataMissing = fmt.Errorf("%w: sensor_data_missing", ErrConnectivity)
	ErrPollInProgress    = errors.New("device_poll_in_progress")
)
