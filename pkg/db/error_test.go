package db

import (
	"errors"
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "postgres", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "postgres_other", err: &pgconn.PgError{Code: "40001"}, want: false},
		{name: "mysql", err: &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: accounts.username"), want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicateKeyErr(tc.err); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSqliteDSN(t *testing.T) {
	if got := sqliteDSN(""); got != "sensorlog.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on" {
		t.Fatalf("unexpected default dsn %q", got)
	}
	if got := sqliteDSN("file:test.db?mode=memory"); got != "file:test.db?mode=memory" {
		t.Fatalf("expected dsn with params to pass through, got %q", got)
	}
}

func TestNewTestIsolated(t *testing.T) {
	first, err := NewTest()
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	second, err := NewTest()
	if err != nil {
		t.Fatalf("open second: %v", err)
	}

	if err := first.Exec(`CREATE TABLE probe (id INTEGER PRIMARY KEY)`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	if second.Migrator().HasTable("probe") {
		t.Fatalf("expected databases to be isolated")
	}
}
