// Package domain contains core types for user accounts and their sessions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account is a user allowed to log in.
type Account struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Username     string       `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash string       `gorm:"type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	AccountID        snowflake.ID `gorm:"column:account_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;size:64;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;size:64"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// AccountView is returned to clients without exposing the password hash.
type AccountView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
