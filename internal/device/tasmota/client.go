// Package tasmota reads sensor values from a Tasmota firmware device over
// its HTTP command interface.
package tasmota

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/sensorlog/internal/config"
	devicedomain "github.com/smallbiznis/sensorlog/internal/device/domain"
	"go.uber.org/zap"
)

const (
	statusCommand = "STATUS 8"
	maxErrorBody  = 512
)

// Client implements domain.StatusReader.
type Client struct {
	baseURL    string
	sensor     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) devicedomain.StatusReader {
	return newClient(cfg.Device.URL, cfg.Device.Sensor, cfg.Device.Timeout, log)
}

func newClient(baseURL, sensor string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if strings.TrimSpace(sensor) == "" {
		sensor = "BME280"
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		sensor:  strings.TrimSpace(sensor),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.Named("device.tasmota"),
	}
}

func (c *Client) Name() string {
	return c.baseURL
}

// Status issues "STATUS 8" and returns the configured sensor block.
func (c *Client) Status(ctx context.Context) (devicedomain.Snapshot, error) {
	u := c.baseURL + "/cm?cmnd=" + url.PathEscape(statusCommand)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return devicedomain.Snapshot{}, fmt.Errorf("%w: create request: %v", devicedomain.ErrConnectivity, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return devicedomain.Snapshot{}, fmt.Errorf("%w: status request: %v", devicedomain.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return devicedomain.Snapshot{}, fmt.Errorf("%w: status %d: %s", devicedomain.ErrConnectivity, resp.StatusCode, body)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return devicedomain.Snapshot{}, fmt.Errorf("%w: decode response: %v", devicedomain.ErrConnectivity, err)
	}

	block, ok := status.StatusSNS[c.sensor]
	if !ok {
		return devicedomain.Snapshot{}, fmt.Errorf("%w: no %s block", devicedomain.ErrSensorDataMissing, c.sensor)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(block, &fields); err != nil {
		return devicedomain.Snapshot{}, fmt.Errorf("%w: %s block: %v", devicedomain.ErrSensorDataMissing, c.sensor, err)
	}

	snapshot := devicedomain.Snapshot{
		Sensor: c.sensor,
		Values: make(map[string]float64, len(fields)),
	}
	for name, raw := range fields {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		snapshot.Values[name] = v
	}
	if rawTime, ok := status.StatusSNS["Time"]; ok {
		_ = json.Unmarshal(rawTime, &snapshot.ReportedAt)
	}

	c.log.Debug("device status received",
		zap.String("sensor", c.sensor),
		zap.Int("fields", len(snapshot.Values)),
	)
	return snapshot, nil
}

// Tasmota STATUS 8 response, e.g.
// {"StatusSNS":{"Time":"...","BME280":{"Temperature":21.3,"Humidity":40.1,"Pressure":1013.2}}}
type statusResponse struct {
	StatusSNS map[string]json.RawMessage `json:"StatusSNS"`
}
