package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jonboulle/clockwork"
	auditdomain "github.com/smallbiznis/sensorlog/internal/audit/domain"
	"github.com/smallbiznis/sensorlog/internal/clock"
	"github.com/smallbiznis/sensorlog/internal/config"
	"github.com/smallbiznis/sensorlog/internal/identity"
	"github.com/smallbiznis/sensorlog/internal/measurement/codec"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"github.com/smallbiznis/sensorlog/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout = "2006-01-02"

	sourceManual = "manual"
	sourceBatch  = "batch"
	sourceImport = "import"

	maxSensorNameLen = 100
	maxUnitLen       = 20
	maxLocationLen   = 100
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Config   config.Config
	Clock    clockwork.Clock     `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
	AuditSvc auditdomain.Service `optional:"true"`
	Repo     measurementdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	loc      *time.Location
	clock    clockwork.Clock
	metrics  *metrics.Metrics
	auditSvc auditdomain.Service
	repo     measurementdomain.Repository
}

func New(p Params) measurementdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("measurement.service"),
		genID:    p.GenID,
		loc:      p.Config.Location(),
		clock:    clock.OrReal(p.Clock),
		metrics:  p.Metrics,
		auditSvc: p.AuditSvc,
		repo:     p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req measurementdomain.CreateRequest) (*measurementdomain.Response, error) {
	now := s.now()
	m, err := s.newMeasurement(req, now, creatorFor(ctx, req.CreatedBy))
	if err != nil {
		return nil, err
	}
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		m.Timestamp = normalizeTimestamp(*req.Timestamp)
	}

	if err := s.repo.Insert(ctx, s.db, m); err != nil {
		return nil, err
	}

	s.metrics.RecordMeasurementsCreated(ctx, sourceManual, m.SensorName, 1)
	return toResponse(m), nil
}

func (s *Service) CreateBatch(ctx context.Context, req measurementdomain.BatchRequest) ([]measurementdomain.Response, error) {
	if len(req.Items) == 0 {
		return []measurementdomain.Response{}, nil
	}

	ts := s.now()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		ts = normalizeTimestamp(*req.Timestamp)
	}
	creator := creatorFor(ctx, req.CreatedBy)

	items := make([]measurementdomain.Measurement, 0, len(req.Items))
	for i, item := range req.Items {
		m, err := s.newMeasurement(item, ts, creator)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, *m)
	}

	if err := s.repo.InsertBatch(ctx, s.db, items); err != nil {
		return nil, err
	}

	resp := make([]measurementdomain.Response, 0, len(items))
	for i := range items {
		s.metrics.RecordMeasurementsCreated(ctx, sourceBatch, items[i].SensorName, 1)
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context, filter measurementdomain.Filter) ([]measurementdomain.Response, error) {
	listFilter, empty, err := s.resolveFilter(filter)
	if err != nil {
		return nil, err
	}
	if empty {
		return []measurementdomain.Response{}, nil
	}

	items, err := s.repo.List(ctx, s.db, listFilter)
	if err != nil {
		return nil, err
	}

	resp := make([]measurementdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*measurementdomain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, req measurementdomain.UpdateRequest) (*measurementdomain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	fields, err := validateFields(req.SensorName, req.Value, req.Unit, req.Location)
	if err != nil {
		return nil, err
	}
	item.SensorName = fields.sensorName
	item.Value = fields.value
	item.Unit = fields.unit
	item.Location = fields.location
	item.Description = strings.TrimSpace(req.Description)

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.audit(ctx, "measurement.update", item.ID, map[string]any{
		"sensor_name": item.SensorName,
		"value":       item.Value,
		"unit":        item.Unit,
	})
	return toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	measurementID, err := parseID(id)
	if err != nil {
		return false, err
	}

	removed, err := s.repo.Delete(ctx, s.db, measurementID)
	if err != nil {
		return false, err
	}
	if removed {
		s.audit(ctx, "measurement.delete", measurementID, nil)
	}
	return removed, nil
}

// Import stores every readable CSV row on its own. A failing row is
// reported and does not stop the import.
func (s *Service) Import(ctx context.Context, r io.Reader) (*measurementdomain.ImportResult, error) {
	result := &measurementdomain.ImportResult{Errors: []string{}}
	creator := identity.Creator(ctx, identity.CreatorSystem)
	now := s.now()

	stats, err := codec.ReadCSV(r, s.loc, func(row codec.Row) error {
		if row.Err != nil {
			result.Errors = append(result.Errors, importError(row.Line, "ungültiges CSV-Format"))
			return nil
		}

		m, err := s.newMeasurement(row.Request, now, creator)
		if err != nil {
			result.Errors = append(result.Errors, importError(row.Line, importReason(err)))
			return nil
		}
		if row.Request.Timestamp != nil {
			m.Timestamp = normalizeTimestamp(*row.Request.Timestamp)
		}

		if err := s.repo.Insert(ctx, s.db, m); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.log.Warn("import row failed", zap.Int("row", row.Line), zap.Error(err))
			result.Errors = append(result.Errors, importError(row.Line, importReason(err)))
			return nil
		}
		result.Imported++
		return nil
	})
	result.Skipped = stats.Skipped

	s.metrics.RecordImportRows(ctx, "imported", result.Imported)
	s.metrics.RecordImportRows(ctx, "failed", len(result.Errors))
	s.metrics.RecordImportRows(ctx, "skipped", result.Skipped)
	s.metrics.RecordMeasurementsCreated(ctx, sourceImport, "", result.Imported)

	if err != nil {
		return result, err
	}

	s.log.Info("csv import finished",
		zap.Int("imported", result.Imported),
		zap.Int("failed", len(result.Errors)),
		zap.Int("skipped", result.Skipped),
	)
	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, "measurement.import", auditdomain.TargetImport, nil, map[string]any{
			"imported": result.Imported,
			"failed":   len(result.Errors),
			"skipped":  result.Skipped,
		})
	}
	return result, nil
}

func (s *Service) Export(ctx context.Context, filter measurementdomain.Filter, format measurementdomain.Format, w io.Writer) error {
	items, err := s.List(ctx, filter)
	if err != nil {
		return err
	}

	switch format {
	case measurementdomain.FormatCSV:
		return codec.WriteCSV(w, items, s.loc)
	case measurementdomain.FormatJSON:
		return codec.WriteJSON(w, items, s.loc)
	case measurementdomain.FormatPDF:
		return codec.WritePDF(w, codec.PDFReport{
			Title:       "Messdaten",
			GeneratedAt: s.clock.Now(),
			Filter:      describeFilter(filter),
		}, items, s.loc)
	default:
		return measurementdomain.ErrInvalidFormat
	}
}

// resolveFilter turns the submitted criteria into repository bounds.
// empty is true when the date range cannot match anything.
func (s *Service) resolveFilter(filter measurementdomain.Filter) (measurementdomain.ListFilter, bool, error) {
	out := measurementdomain.ListFilter{
		SensorName: strings.TrimSpace(filter.SensorName),
		Location:   strings.TrimSpace(filter.Location),
	}

	from, err := parseDate(filter.DateFrom, s.loc)
	if err != nil {
		return out, false, err
	}
	to, err := parseDate(filter.DateTo, s.loc)
	if err != nil {
		return out, false, err
	}

	if from != nil {
		out.From = from
	}
	if to != nil {
		until := to.AddDate(0, 0, 1)
		out.Until = &until
	}
	if from != nil && to != nil && from.After(*to) {
		return out, true, nil
	}
	return out, false, nil
}

func parseDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", measurementdomain.ErrInvalidFilter, value)
	}
	return &parsed, nil
}

func (s *Service) find(ctx context.Context, id string) (*measurementdomain.Measurement, error) {
	measurementID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, measurementID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, measurementdomain.ErrNotFound
	}
	return item, nil
}

type validFields struct {
	sensorName string
	value      float64
	unit       string
	location   string
}

func validateFields(sensorName string, value *float64, unit, location string) (validFields, error) {
	out := validFields{
		sensorName: strings.TrimSpace(sensorName),
		unit:       strings.TrimSpace(unit),
		location:   strings.TrimSpace(location),
	}
	if out.sensorName == "" || len([]rune(out.sensorName)) > maxSensorNameLen {
		return out, measurementdomain.ErrInvalidSensorName
	}
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return out, measurementdomain.ErrInvalidValue
	}
	out.value = roundValue(*value)
	if math.Abs(out.value) >= 1e6 {
		return out, measurementdomain.ErrInvalidValue
	}
	if out.unit == "" || len([]rune(out.unit)) > maxUnitLen {
		return out, measurementdomain.ErrInvalidUnit
	}
	if len([]rune(out.location)) > maxLocationLen {
		return out, measurementdomain.ErrInvalidLocation
	}
	return out, nil
}

func (s *Service) newMeasurement(req measurementdomain.CreateRequest, ts time.Time, creator string) (*measurementdomain.Measurement, error) {
	fields, err := validateFields(req.SensorName, req.Value, req.Unit, req.Location)
	if err != nil {
		return nil, err
	}
	return &measurementdomain.Measurement{
		ID:          s.genID.Generate(),
		SensorName:  fields.sensorName,
		Value:       fields.value,
		Unit:        fields.unit,
		Timestamp:   ts,
		Location:    fields.location,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   creator,
	}, nil
}

// creatorFor prefers an explicit creator, then the logged-in user.
func creatorFor(ctx context.Context, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	return identity.Creator(ctx, identity.CreatorSystem)
}

func (s *Service) now() time.Time {
	return normalizeTimestamp(s.clock.Now())
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	_ = s.auditSvc.AuditLog(ctx, action, auditdomain.TargetMeasurement, &targetID, metadata)
}

// normalizeTimestamp stores UTC with full precision and without the
// monotonic clock reading. Exports format whole seconds.
func normalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Round(0)
}

func roundValue(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func parseID(value string) (snowflake.ID, error) {
	id, err := measurementdomain.ParseID(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, measurementdomain.ErrInvalidID
	}
	return id, nil
}

func importError(line int, reason string) string {
	return fmt.Sprintf("Zeile %d: %s", line, reason)
}

func importReason(err error) string {
	switch {
	case errors.Is(err, measurementdomain.ErrInvalidSensorName):
		return "Sensor Name fehlt oder ist zu lang"
	case errors.Is(err, measurementdomain.ErrInvalidValue):
		return "Messwert ungültig"
	case errors.Is(err, measurementdomain.ErrInvalidUnit):
		return "Einheit fehlt oder ist zu lang"
	case errors.Is(err, measurementdomain.ErrInvalidLocation):
		return "Standort ist zu lang"
	default:
		return "Speichern fehlgeschlagen"
	}
}

func describeFilter(filter measurementdomain.Filter) string {
	parts := make([]string, 0, 4)
	if v := strings.TrimSpace(filter.SensorName); v != "" {
		parts = append(parts, "Sensor: "+v)
	}
	if v := strings.TrimSpace(filter.Location); v != "" {
		parts = append(parts, "Standort: "+v)
	}
	if v := strings.TrimSpace(filter.DateFrom); v != "" {
		parts = append(parts, "von "+v)
	}
	if v := strings.TrimSpace(filter.DateTo); v != "" {
		parts = append(parts, "bis "+v)
	}
	return strings.Join(parts, ", ")
}

func toResponse(m *measurementdomain.Measurement) *measurementdomain.Response {
	return &measurementdomain.Response{
		ID:          m.ID.String(),
		SensorName:  m.SensorName,
		Value:       m.Value,
		Unit:        m.Unit,
		Timestamp:   m.Timestamp,
		Location:    m.Location,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
	}
}
