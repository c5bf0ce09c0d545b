package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/sensorlog/internal/account/domain"
	devicedomain "github.com/smallbiznis/sensorlog/internal/device/domain"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"github.com/smallbiznis/sensorlog/internal/observability/logger"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// FlashType is the CSS class of a status message.
type FlashType string

const (
	FlashSuccess FlashType = "success"
	FlashError   FlashType = "error"
	FlashWarning FlashType = "warning"
	FlashInfo    FlashType = "info"
)

// Flash is the status message shown above the page content.
type Flash struct {
	Type FlashType
	Text string
}

const (
	msgLoginRequired      = "Bitte zuerst anmelden."
	msgInternal           = "Interner Fehler. Bitte später erneut versuchen."
	msgLoadFailed         = "Fehler beim Laden der Messdaten."
	msgInvalidFilter      = "Ungültiger Filter. Datum im Format JJJJ-MM-TT angeben."
	msgInvalidExport      = "Unbekanntes Exportformat."
	msgExportFailed       = "Fehler beim Export der Messdaten."
	msgCreated            = "Messdaten erfolgreich gespeichert."
	msgUpdated            = "Messdaten erfolgreich aktualisiert."
	msgDeleted            = "Messdaten erfolgreich gelöscht."
	msgDeleteFailed       = "Fehler beim Löschen der Messdaten."
	msgNotFound           = "Messdaten nicht gefunden."
	msgNoFile             = "Keine CSV-Datei hochgeladen."
	msgDeviceImported     = "✅ Tasmota-Daten importiert."
	msgDeviceNoData       = "❌ Keine %s-Daten gefunden."
	msgDeviceUnreachable  = "❌ Verbindung zum ESP32 fehlgeschlagen."
	msgDeviceBusy         = "Tasmota-Abruf läuft bereits."
	msgRegistered         = "Benutzer '%s' erfolgreich registriert."
	msgRegisterFailed     = "Fehler beim Registrieren. Benutzername bereits vorhanden?"
	msgRegisterInvalid    = "Benutzername und Passwort dürfen nicht leer sein."
	msgLoggedIn           = "Erfolgreich angemeldet als '%s'."
	msgLoginFailed        = "Anmeldung fehlgeschlagen. Benutzername oder Passwort falsch."
	msgLoggedOut          = "Erfolgreich abgemeldet."
	msgAccountDeleted     = "Benutzer '%s' erfolgreich gelöscht."
	msgAccountDeleteFails = "Fehler beim Löschen. Benutzername oder Passwort falsch."
)

func flashSuccess(text string) *Flash { return &Flash{Type: FlashSuccess, Text: text} }
func flashError(text string) *Flash   { return &Flash{Type: FlashError, Text: text} }
func flashWarning(text string) *Flash { return &Flash{Type: FlashWarning, Text: text} }
func flashInfo(text string) *Flash    { return &Flash{Type: FlashInfo, Text: text} }

type pageData struct {
	Flash        *Flash
	Username     string
	Filter       measurementdomain.Filter
	FilterQuery  template.URL
	Measurements []measurementdomain.Response
	SensorCount  int
	Accounts     []accountdomain.AccountView
	Edit         *measurementdomain.Response
}

func parsePages() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

func (s *Server) renderPage(c *gin.Context, flash *Flash) {
	s.renderPageStatus(c, http.StatusOK, flash)
}

// renderPageStatus renders the main page for the filter in the query string.
func (s *Server) renderPageStatus(c *gin.Context, status int, flash *Flash) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	filter := filterFromQuery(c)
	data := pageData{
		Flash:       flash,
		Filter:      filter,
		FilterQuery: template.URL(filterQuery(filter)),
	}
	if id, ok := currentIdentity(c); ok {
		data.Username = id.Username
	}

	items, err := s.measurementSvc.List(ctx, filter)
	switch {
	case err == nil:
		data.Measurements = items
	case errors.Is(err, measurementdomain.ErrInvalidFilter):
		if data.Flash == nil {
			data.Flash = flashError(msgInvalidFilter)
		}
	default:
		log.Error("list measurements failed", zap.Error(err))
		if data.Flash == nil {
			data.Flash = flashError(msgLoadFailed)
		}
	}
	data.SensorCount = countSensors(data.Measurements)

	accounts, err := s.accountSvc.List(ctx)
	if err != nil {
		log.Error("list accounts failed", zap.Error(err))
	}
	data.Accounts = accounts

	if data.Username != "" {
		if editID := strings.TrimSpace(c.Query("edit")); editID != "" {
			if m, err := s.measurementSvc.Get(ctx, editID); err == nil {
				data.Edit = m
			}
		}
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(c.Writer, "index.html", s.viewModel(data)); err != nil {
		log.Error("render page failed", zap.Error(err))
	}
}

// pageView is pageData with display-ready values.
type pageView struct {
	pageData
	Rows        []rowView
	AccountRows []accountRow
}

type accountRow struct {
	Username  string
	CreatedAt string
}

type rowView struct {
	ID          string
	SensorName  string
	Value       string
	RawValue    string
	Unit        string
	Timestamp   string
	Location    string
	Description string
	CreatedBy   string
}

func (s *Server) viewModel(data pageData) pageView {
	rows := make([]rowView, 0, len(data.Measurements))
	for _, m := range data.Measurements {
		rows = append(rows, rowView{
			ID:          m.ID,
			SensorName:  m.SensorName,
			Value:       fmt.Sprintf("%.2f", m.Value),
			RawValue:    fmt.Sprintf("%g", m.Value),
			Unit:        m.Unit,
			Timestamp:   s.displayTime(m.Timestamp),
			Location:    m.Location,
			Description: m.Description,
			CreatedBy:   m.CreatedBy,
		})
	}
	accounts := make([]accountRow, 0, len(data.Accounts))
	for _, a := range data.Accounts {
		accounts = append(accounts, accountRow{
			Username:  a.Username,
			CreatedAt: s.displayTime(a.CreatedAt),
		})
	}
	return pageView{pageData: data, Rows: rows, AccountRows: accounts}
}

func (s *Server) displayTime(t time.Time) string {
	return t.In(s.loc).Format("02.01.2006 15:04")
}

func countSensors(items []measurementdomain.Response) int {
	seen := make(map[string]struct{}, len(items))
	for _, m := range items {
		seen[m.SensorName] = struct{}{}
	}
	return len(seen)
}

// flashForMeasurementError turns a measurement service error into a page
// message. Storage failures are logged and reported generically.
func flashForMeasurementError(c *gin.Context, err error) *Flash {
	switch {
	case errors.Is(err, measurementdomain.ErrNotFound),
		errors.Is(err, measurementdomain.ErrInvalidID):
		return flashError(msgNotFound)
	case errors.Is(err, measurementdomain.ErrInvalidSensorName):
		return flashError("Sensor Name fehlt oder ist zu lang.")
	case errors.Is(err, measurementdomain.ErrInvalidValue):
		return flashError("Messwert ist ungültig.")
	case errors.Is(err, measurementdomain.ErrInvalidUnit):
		return flashError("Einheit fehlt oder ist zu lang.")
	case errors.Is(err, measurementdomain.ErrInvalidLocation):
		return flashError("Standort ist zu lang.")
	case errors.Is(err, measurementdomain.ErrValidation):
		return flashError("Ungültige Eingabe.")
	default:
		logger.FromContext(c.Request.Context()).Error("measurement operation failed", zap.Error(err))
		return flashError(msgInternal)
	}
}

func (s *Server) flashForDeviceError(c *gin.Context, err error) *Flash {
	switch {
	case errors.Is(err, devicedomain.ErrPollInProgress):
		return flashWarning(msgDeviceBusy)
	case errors.Is(err, devicedomain.ErrSensorDataMissing):
		sensor := strings.TrimSpace(s.cfg.Device.Sensor)
		if sensor == "" {
			sensor = "BME280"
		}
		return flashError(fmt.Sprintf(msgDeviceNoData, sensor))
	case errors.Is(err, devicedomain.ErrConnectivity):
		return flashError(msgDeviceUnreachable)
	default:
		return flashForMeasurementError(c, err)
	}
}
