package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jonboulle/clockwork"
	auditdomain "github.com/smallbiznis/sensorlog/internal/audit/domain"
	"github.com/smallbiznis/sensorlog/internal/audit/repository"
	"github.com/smallbiznis/sensorlog/internal/identity"
	obscontext "github.com/smallbiznis/sensorlog/internal/observability/context"
	"github.com/smallbiznis/sensorlog/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, clk clockwork.Clock) auditdomain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
}

func TestAuditLogResolvesActorAndClient(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, clockwork.NewFakeClockAt(now))

	ctx := identity.WithIdentity(context.Background(), identity.Identity{Username: "alice"})
	ctx = obscontext.WithRequestID(ctx, "req-1")
	ctx = obscontext.WithClient(ctx, "10.0.0.5", "curl/8")

	target := " 42 "
	err := svc.AuditLog(ctx, "measurement.delete", auditdomain.TargetMeasurement, &target, map[string]any{
		"sensor_name": "Temperatur",
		"token":       "abcdefgh1234",
	})
	require.NoError(t, err)

	logs, err := svc.List(context.Background(), auditdomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, "alice", entry.Actor)
	assert.Equal(t, "measurement.delete", entry.Action)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "42", *entry.TargetID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.5", *entry.IPAddress)
	assert.Equal(t, "Temperatur", entry.Metadata["sensor_name"])
	assert.Equal(t, "****1234", entry.Metadata["token"])
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.True(t, now.Equal(entry.CreatedAt))
}

func TestAuditLogAnonymousActor(t *testing.T) {
	svc := newTestService(t, nil)

	require.NoError(t, svc.AuditLog(context.Background(), "import.csv", auditdomain.TargetImport, nil, nil))

	logs, err := svc.List(context.Background(), auditdomain.ListRequest{Actor: auditdomain.ActorAnonymous})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].TargetID)
	assert.Nil(t, logs[0].IPAddress)
}

func TestAuditLogRejectsBlankAction(t *testing.T) {
	svc := newTestService(t, nil)

	err := svc.AuditLog(context.Background(), "  ", "", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListFiltersAndLimits(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := newTestService(t, clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, "account.register", auditdomain.TargetAccount, nil, nil))
		clk.Advance(time.Minute)
	}
	require.NoError(t, svc.AuditLog(ctx, "account.delete", auditdomain.TargetAccount, nil, nil))

	logs, err := svc.List(ctx, auditdomain.ListRequest{Action: "account.register", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.True(t, logs[0].CreatedAt.After(logs[1].CreatedAt))

	logs, err = svc.List(ctx, auditdomain.ListRequest{TargetType: auditdomain.TargetAccount})
	require.NoError(t, err)
	assert.Len(t, logs, 4)
	assert.Equal(t, "account.delete", logs[0].Action)
}

func TestListByTargetID(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	first, second := "101", "202"
	require.NoError(t, svc.AuditLog(ctx, "measurement.update", auditdomain.TargetMeasurement, &first, nil))
	require.NoError(t, svc.AuditLog(ctx, "measurement.update", auditdomain.TargetMeasurement, &second, nil))
	require.NoError(t, svc.AuditLog(ctx, "measurement.delete", auditdomain.TargetMeasurement, &second, nil))

	logs, err := svc.List(ctx, auditdomain.ListRequest{TargetID: " 202 "})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, entry := range logs {
		require.NotNil(t, entry.TargetID)
		assert.Equal(t, "202", *entry.TargetID)
	}

	logs, err = svc.List(ctx, auditdomain.ListRequest{Action: "account.login"})
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}
