package observability

import (
	"strings"

	"github.com/smallbiznis/sensorlog/internal/config"
)

const defaultServiceName = "sensorlog"

// Config is the normalized view of the logging and OTLP settings.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	obs := cfg.Observability

	out := Config{
		ServiceName:          firstNonEmpty(cfg.AppName, defaultServiceName),
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             firstNonEmpty(strings.ToLower(obs.LogLevel), "info"),
		LogFormat:            firstNonEmpty(strings.ToLower(obs.LogFormat), "json"),
		OtelEnabled:          obs.OtelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: firstNonEmpty(strings.ToLower(obs.OtelProtocol), "grpc"),
		OtelSamplingRatio:    obs.SamplingRatio,
	}
	if out.OtelSamplingRatio <= 0 || out.OtelSamplingRatio > 1 {
		out.OtelSamplingRatio = 1
	}
	if out.OtelExporterEndpoint == "" {
		out.OtelEnabled = false
	}
	return out
}

// Debug reports whether verbose request logging is on.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
