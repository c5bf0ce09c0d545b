package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/jonboulle/clockwork"
	auditdomain "github.com/smallbiznis/sensorlog/internal/audit/domain"
	"github.com/smallbiznis/sensorlog/internal/audit/masking"
	"github.com/smallbiznis/sensorlog/internal/clock"
	"github.com/smallbiznis/sensorlog/internal/identity"
	obscontext "github.com/smallbiznis/sensorlog/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 250
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clockwork.Clock `optional:"true"`
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clockwork.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: clock.OrReal(p.Clock),
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	entry := s.newEntry(ctx, action, targetType, targetID, metadata)
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("audit entry not written",
			zap.String("action", action),
			zap.String("target_type", entry.TargetType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) newEntry(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) *auditdomain.AuditLog {
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := datatypes.JSONMap(masking.MaskSensitive(metadata))
	if payload == nil {
		payload = datatypes.JSONMap{}
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	client := obscontext.ClientFromContext(ctx)
	return &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		Actor:      resolveActor(ctx),
		Action:     action,
		TargetType: targetType,
		TargetID:   optionalString(derefString(targetID)),
		Metadata:   payload,
		IPAddress:  optionalString(client.IPAddress),
		UserAgent:  optionalString(client.UserAgent),
		CreatedAt:  s.clock.Now().UTC(),
	}
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	return s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:     strings.TrimSpace(req.Action),
		TargetType: strings.TrimSpace(req.TargetType),
		TargetID:   strings.TrimSpace(req.TargetID),
		Actor:      strings.TrimSpace(req.Actor),
		Limit:      clampLimit(req.Limit),
	})
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

func resolveActor(ctx context.Context) string {
	if id, ok := identity.FromContext(ctx); ok {
		return id.Username
	}
	if actor := obscontext.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return auditdomain.ActorAnonymous
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// optionalString maps blank values to NULL columns.
func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
