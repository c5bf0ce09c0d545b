package device

import (
	devicedomain "github.com/smallbiznis/sensorlog/internal/device/domain"
	"github.com/smallbiznis/sensorlog/internal/device/service"
	"github.com/smallbiznis/sensorlog/internal/device/tasmota"
	"github.com/smallbiznis/sensorlog/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("device.service",
	fx.Provide(tasmota.NewClient),
	fx.Provide(func(l *ratelimit.IngestLimiter) devicedomain.PollGuard { return l }),
	fx.Provide(service.New),
)
