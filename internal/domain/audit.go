package domain

import "time"

// AuditLog represents a record of an admin operation on the dashboard
type AuditLog struct {
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	UserEmail  string `gorm:"column:user_email;size:255;index" json:"user_email"`
	Action     string `gorm:"column:action;size:50;index" json:"action"`
	Resource   string `gorm:"column:resource;size:50" json:"resource"`
	ResourceID string `gorm:"column:resource_id;size:64" json:"resource_id"`
	Details    string `gorm:"column:details;type:text" json:"details"`
	ClientIP   string `gorm:"column:client_ip;size:64" json:"client_ip"`
	UserAgent  string `gorm:"column:user_agent;size:255" json:"user_agent"`
	RequestID  string `gorm:"column:request_id;size:64" json:"request_id"`

	ID int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
