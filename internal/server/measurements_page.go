package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/sensorlog/internal/measurement/codec"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"github.com/smallbiznis/sensorlog/internal/observability/logger"
	"go.uber.org/zap"
)

// Index renders the measurement page, or streams an export file when the
// export query parameter is present.
func (s *Server) Index(c *gin.Context) {
	format := strings.TrimSpace(c.Query("export"))
	if format == "" {
		s.renderPage(c, nil)
		return
	}
	s.export(c, format)
}

func (s *Server) export(c *gin.Context, rawFormat string) {
	format, err := measurementdomain.ParseFormat(rawFormat)
	if err != nil {
		s.renderPage(c, flashError(msgInvalidExport))
		return
	}

	ctx := c.Request.Context()
	var buf bytes.Buffer
	if err := s.measurementSvc.Export(ctx, filterFromQuery(c), format, &buf); err != nil {
		if errors.Is(err, measurementdomain.ErrInvalidFilter) {
			s.renderPage(c, flashError(msgInvalidFilter))
			return
		}
		logger.FromContext(ctx).Error("export failed", zap.String("format", string(format)), zap.Error(err))
		s.renderPage(c, flashError(msgExportFailed))
		return
	}

	filename := codec.Filename(format, s.clock.Now().In(s.loc))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, codec.ContentType(format), buf.Bytes())
}

func (s *Server) CreateMeasurementPage(c *gin.Context) {
	value, ok := parseFormValue(formWithLegacy(c, "value", "messwert"))
	if !ok {
		s.renderPage(c, flashError("Messwert ist ungültig."))
		return
	}

	_, err := s.measurementSvc.Create(c.Request.Context(), measurementdomain.CreateRequest{
		SensorName:  c.PostForm("sensor_name"),
		Value:       value,
		Unit:        formWithLegacy(c, "unit", "einheit"),
		Location:    formWithLegacy(c, "location", "standort"),
		Description: formWithLegacy(c, "description", "beschreibung"),
	})
	if err != nil {
		s.renderPage(c, flashForMeasurementError(c, err))
		return
	}
	s.renderPage(c, flashSuccess(msgCreated))
}

func (s *Server) UpdateMeasurementPage(c *gin.Context) {
	value, ok := parseFormValue(formWithLegacy(c, "value", "messwert"))
	if !ok {
		s.renderPage(c, flashError("Messwert ist ungültig."))
		return
	}

	_, err := s.measurementSvc.Update(c.Request.Context(), measurementdomain.UpdateRequest{
		ID:          c.Param("id"),
		SensorName:  c.PostForm("sensor_name"),
		Value:       value,
		Unit:        formWithLegacy(c, "unit", "einheit"),
		Location:    formWithLegacy(c, "location", "standort"),
		Description: formWithLegacy(c, "description", "beschreibung"),
	})
	if err != nil {
		s.renderPage(c, flashForMeasurementError(c, err))
		return
	}
	s.renderPage(c, flashSuccess(msgUpdated))
}

func (s *Server) DeleteMeasurementPage(c *gin.Context) {
	removed, err := s.measurementSvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, measurementdomain.ErrInvalidID) {
		logger.FromContext(c.Request.Context()).Error("delete measurement failed", zap.Error(err))
	}
	if err != nil || !removed {
		s.renderPage(c, flashError(msgDeleteFailed))
		return
	}
	s.renderPage(c, flashSuccess(msgDeleted))
}

// ImportMeasurementsPage imports an uploaded CSV file. Anonymous uploads
// are stored as created by System.
func (s *Server) ImportMeasurementsPage(c *gin.Context) {
	header, err := c.FormFile("csv_file")
	if err != nil {
		s.renderPage(c, flashError(msgNoFile))
		return
	}
	file, err := header.Open()
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("open upload failed", zap.Error(err))
		s.renderPage(c, flashError(msgNoFile))
		return
	}
	defer file.Close()

	result, err := s.measurementSvc.Import(c.Request.Context(), file)
	if err != nil {
		s.renderPage(c, flashForMeasurementError(c, err))
		return
	}
	s.renderPage(c, importFlash(result))
}

func importFlash(result *measurementdomain.ImportResult) *Flash {
	text := fmt.Sprintf("CSV Import: %d Datensätze importiert.", result.Imported)
	if len(result.Errors) > 0 {
		return flashWarning(text + " Fehler: " + strings.Join(result.Errors, ", "))
	}
	return flashSuccess(text)
}
