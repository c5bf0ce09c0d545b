package domain

import (
	"context"
	"errors"
)

const (
	// ActorAnonymous is recorded when no user is logged in.
	ActorAnonymous = "anonymous"

	TargetMeasurement = "measurement"
	TargetAccount     = "account"
	TargetImport      = "import"
	TargetDevice      = "device"
)

type ListRequest struct {
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	Actor      string `form:"actor"`
	Limit      int    `form:"limit"`
}

type Service interface {
	// AuditLog writes one entry. The actor, client address and request id
	// are taken from ctx.
	AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListRequest) ([]AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
)
