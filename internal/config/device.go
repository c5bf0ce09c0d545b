package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ReadingMapping maps one field of the device status payload onto a measurement.
type ReadingMapping struct {
	Field      string `mapstructure:"field"`
	SensorName string `mapstructure:"sensorName"`
	Unit       string `mapstructure:"unit"`
}

// DeviceMapping describes how a device status snapshot becomes measurements.
type DeviceMapping struct {
	Location    string           `mapstructure:"location"`
	Description string           `mapstructure:"description"`
	Readings    []ReadingMapping `mapstructure:"readings"`
}

func DefaultDeviceMapping() DeviceMapping {
	return DeviceMapping{
		Location:    "Tasmota",
		Description: "Importiert von ESP32",
		Readings: []ReadingMapping{
			{Field: "Temperature", SensorName: "Temperatur", Unit: "°C"},
			{Field: "Humidity", SensorName: "Luftfeuchtigkeit", Unit: "%"},
			{Field: "Pressure", SensorName: "Luftdruck", Unit: "hPa"},
		},
	}
}

var defaultDeviceConfigPaths = []string{
	"/var/lib/sensorlog/config",
	"/etc/sensorlog",
	".",
}

type DeviceMappingHolder struct {
	current atomic.Value // holds DeviceMapping
}

func NewDeviceMappingHolder() (*DeviceMappingHolder, error) {
	return LoadDeviceMapping(defaultDeviceConfigPaths...)
}

// LoadDeviceMapping reads device.yml from the first matching path and keeps
// watching it. Missing files fall back to DefaultDeviceMapping.
func LoadDeviceMapping(paths ...string) (*DeviceMappingHolder, error) {
	v := viper.New()

	v.SetConfigName("device")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SENSORLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultDeviceMapping()
	v.SetDefault("device.location", defaults.Location)
	v.SetDefault("device.description", defaults.Description)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
		v.SetDefault("device.readings", defaults.Readings)
	}

	var cfg DeviceMapping
	if err := v.UnmarshalKey("device", &cfg); err != nil {
		return nil, err
	}
	if err := validateDeviceMapping(cfg); err != nil {
		return nil, err
	}

	holder := &DeviceMappingHolder{}
	holder.current.Store(cfg)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log := zap.L().Named("config.device")
			var updated DeviceMapping
			if err := v.UnmarshalKey("device", &updated); err != nil {
				log.Warn("device mapping reload failed", zap.Error(err))
				return
			}
			if err := validateDeviceMapping(updated); err != nil {
				log.Warn("invalid device mapping ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("device mapping reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// NewStaticDeviceMapping wraps a fixed mapping, used by tests and tools.
func NewStaticDeviceMapping(cfg DeviceMapping) *DeviceMappingHolder {
	holder := &DeviceMappingHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *DeviceMappingHolder) Get() DeviceMapping {
	return h.current.Load().(DeviceMapping)
}

func validateDeviceMapping(cfg DeviceMapping) error {
	if len(cfg.Readings) == 0 {
		return errors.New("device.readings cannot be empty")
	}
	for i, r := range cfg.Readings {
		if strings.TrimSpace(r.Field) == "" || strings.TrimSpace(r.SensorName) == "" || strings.TrimSpace(r.Unit) == "" {
			return fmt.Errorf("device.readings[%d] requires field, sensorName and unit", i)
		}
	}
	return nil
}
