package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDeviceMappingDefaults(t *testing.T) {
	holder, err := LoadDeviceMapping(t.TempDir())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "Tasmota", cfg.Location)
	assert.Equal(t, "Importiert von ESP32", cfg.Description)
	require.Len(t, cfg.Readings, 3)
	assert.Equal(t, "Temperatur", cfg.Readings[0].SensorName)
	assert.Equal(t, "°C", cfg.Readings[0].Unit)
	assert.Equal(t, "Pressure", cfg.Readings[2].Field)
}

func TestLoadDeviceMappingFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `device:
  location: Keller
  description: ESP32 Keller
  readings:
    - field: Temperature
      sensorName: Kellertemperatur
      unit: "°C"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "device.yml"), []byte(content), 0o600))

	holder, err := LoadDeviceMapping(dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "Keller", cfg.Location)
	require.Len(t, cfg.Readings, 1)
	assert.Equal(t, "Kellertemperatur", cfg.Readings[0].SensorName)
}

func TestLoadDeviceMappingRejectsIncompleteReading(t *testing.T) {
	dir := t.TempDir()
	content := `device:
  readings:
    - field: Temperature
      unit: "°C"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "device.yml"), []byte(content), 0o600))

	_, err := LoadDeviceMapping(dir)
	assert.Error(t, err)
}

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("SENSORLOG_TEST_BOOL", "yes")
	t.Setenv("SENSORLOG_TEST_INT", "not-a-number")
	t.Setenv("SENSORLOG_TEST_FLOAT", "2.5")

	assert.True(t, getenvBool("SENSORLOG_TEST_BOOL", false))
	assert.Equal(t, 7, getenvInt("SENSORLOG_TEST_INT", 7))
	assert.Equal(t, 2.5, getenvFloat("SENSORLOG_TEST_FLOAT", 0))
	assert.Equal(t, "fallback", getenv("SENSORLOG_TEST_MISSING", "fallback"))
}

func TestLoadDisablesRateLimitWithoutRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("TIMEZONE", "Not/AZone")
	t.Setenv("DATABASE_TYPE", "")

	cfg := Load()
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "UTC", cfg.Location().String())
}
