package account

import (
	"github.com/smallbiznis/sensorlog/internal/account/repository"
	"github.com/smallbiznis/sensorlog/internal/account/service"
	"github.com/smallbiznis/sensorlog/internal/account/session"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
