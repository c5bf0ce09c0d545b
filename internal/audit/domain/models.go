package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records a state-changing action and who performed it.
type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Actor      string            `json:"actor" gorm:"size:50;not null;index"`
	Action     string            `json:"action" gorm:"size:64;not null;index"`
	TargetType string            `json:"target_type" gorm:"size:32;not null"`
	TargetID   *string           `json:"target_id,omitempty" gorm:"size:64"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	IPAddress  *string           `json:"ip_address,omitempty" gorm:"size:64"`
	UserAgent  *string           `json:"user_agent,omitempty"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;index"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	Actor      string
	Limit      int
}
