package observability

import (
	"testing"

	"github.com/smallbiznis/sensorlog/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(config.Config{AppName: "  ", Environment: "production", AppVersion: "1.2.3"})

	assert.Equal(t, "sensorlog", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.False(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigDisablesOtelWithoutEndpoint(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Observability: config.ObservabilityConfig{OtelEnabled: true, SamplingRatio: 0.25, OtelProtocol: "HTTP"},
	})
	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.Equal(t, 0.25, cfg.OtelSamplingRatio)

	cfg = LoadConfig(config.Config{
		OTLPEndpoint:  "collector:4317",
		Observability: config.ObservabilityConfig{OtelEnabled: true},
	})
	assert.True(t, cfg.OtelEnabled)
}

func TestDebug(t *testing.T) {
	assert.True(t, Config{Environment: "development", LogLevel: "info"}.Debug())
	assert.True(t, Config{Environment: "production", LogLevel: "DEBUG"}.Debug())
	assert.False(t, Config{Environment: "production", LogLevel: "warn"}.Debug())
}
