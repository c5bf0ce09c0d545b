package db

import (
	"time"

	"github.com/smallbiznis/sensorlog/internal/config"
)

// PoolConfig carries connection pool limits applied after opening.
type PoolConfig struct {
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func poolConfigFrom(cfg config.Config) PoolConfig {
	pool := PoolConfig{
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTime) * time.Second,
	}
	if cfg.DBType == "sqlite" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		pool.MaxOpenConn = 1
		pool.MaxIdleConn = 1
	}
	return pool
}
