package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/sensorlog/internal/identity"
	"github.com/smallbiznis/sensorlog/internal/measurement/codec"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"github.com/smallbiznis/sensorlog/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	ingestMissingParams = "Fehlende Parameter"
	ingestOK            = "OK"
)

// FetchDevicePage polls the configured device and stores its readings.
func (s *Server) FetchDevicePage(c *gin.Context) {
	if _, err := s.deviceSvc.Import(c.Request.Context()); err != nil {
		s.renderPage(c, s.flashForDeviceError(c, err))
		return
	}
	s.renderPage(c, flashSuccess(msgDeviceImported))
}

// Ingest stores one reading pushed by a device. Responses are plain text
// for the device firmware.
func (s *Server) Ingest(c *gin.Context) {
	sensor := strings.TrimSpace(c.PostForm("sensor"))
	rawValue := strings.TrimSpace(c.PostForm("value"))
	unit := strings.TrimSpace(c.PostForm("unit"))
	if sensor == "" || rawValue == "" || unit == "" {
		c.String(http.StatusBadRequest, ingestMissingParams)
		return
	}
	c.Set("sensor_name", sensor)

	// Values are read the way CSV import reads them; a non-numeric value
	// stores 0.
	value := codec.ParseValue(rawValue)

	_, err := s.measurementSvc.Create(c.Request.Context(), measurementdomain.CreateRequest{
		SensorName:  sensor,
		Value:       &value,
		Unit:        unit,
		Location:    c.PostForm("location"),
		Description: c.PostForm("description"),
		CreatedBy:   identity.CreatorDevice,
	})
	if err != nil {
		status, _ := mapError(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("ingest failed", zap.Error(err))
		}
		c.String(status, http.StatusText(status))
		return
	}
	c.String(http.StatusOK, ingestOK)
}
