package service

import (
	"context"
	"errors"
	"fmt"

	auditdomain "github.com/smallbiznis/sensorlog/internal/audit/domain"
	"github.com/smallbiznis/sensorlog/internal/config"
	devicedomain "github.com/smallbiznis/sensorlog/internal/device/domain"
	"github.com/smallbiznis/sensorlog/internal/identity"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"github.com/smallbiznis/sensorlog/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log            *zap.Logger
	Reader         devicedomain.StatusReader
	Mapping        *config.DeviceMappingHolder
	MeasurementSvc measurementdomain.Service
	Guard          devicedomain.PollGuard `optional:"true"`
	Metrics        *metrics.Metrics       `optional:"true"`
	AuditSvc       auditdomain.Service    `optional:"true"`
}

type Service struct {
	log            *zap.Logger
	reader         devicedomain.StatusReader
	mapping        *config.DeviceMappingHolder
	measurementSvc measurementdomain.Service
	guard          devicedomain.PollGuard
	metrics        *metrics.Metrics
	auditSvc       auditdomain.Service
}

func New(p Params) devicedomain.Service {
	return &Service{
		log:            p.Log.Named("device.service"),
		reader:         p.Reader,
		mapping:        p.Mapping,
		measurementSvc: p.MeasurementSvc,
		guard:          p.Guard,
		metrics:        p.Metrics,
		auditSvc:       p.AuditSvc,
	}
}

func (s *Service) Import(ctx context.Context) ([]measurementdomain.Response, error) {
	if s.guard != nil {
		release, ok := s.guard.AcquireDevicePoll(ctx, s.reader.Name())
		if !ok {
			s.metrics.RecordDevicePoll(ctx, "in_progress")
			return nil, devicedomain.ErrPollInProgress
		}
		defer release()
	}

	snapshot, err := s.reader.Status(ctx)
	if err != nil {
		outcome := "unreachable"
		if errors.Is(err, devicedomain.ErrSensorDataMissing) {
			outcome = "no_data"
		}
		s.metrics.RecordDevicePoll(ctx, outcome)
		s.log.Warn("device poll failed", zap.Error(err))
		return nil, err
	}

	mapping := s.mapping.Get()
	items := make([]measurementdomain.CreateRequest, 0, len(mapping.Readings))
	for _, reading := range mapping.Readings {
		v, ok := snapshot.Values[reading.Field]
		if !ok {
			s.metrics.RecordDevicePoll(ctx, "no_data")
			return nil, fmt.Errorf("%w: field %s", devicedomain.ErrSensorDataMissing, reading.Field)
		}
		items = append(items, measurementdomain.CreateRequest{
			SensorName:  reading.SensorName,
			Value:       &v,
			Unit:        reading.Unit,
			Location:    mapping.Location,
			Description: mapping.Description,
		})
	}

	created, err := s.measurementSvc.CreateBatch(ctx, measurementdomain.BatchRequest{
		Items:     items,
		CreatedBy: identity.Creator(ctx, identity.CreatorSystem),
	})
	if err != nil {
		s.metrics.RecordDevicePoll(ctx, "store_failed")
		return nil, err
	}

	s.metrics.RecordDevicePoll(ctx, "imported")
	s.log.Info("device readings imported",
		zap.String("sensor", snapshot.Sensor),
		zap.Int("count", len(created)),
	)
	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, "device.import", auditdomain.TargetDevice, &snapshot.Sensor, map[string]any{
			"count": len(created),
		})
	}
	return created, nil
}
