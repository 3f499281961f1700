// internal/models/command.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderRecord 끝난 오더 이력
type OrderRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SerialNumber  string         `gorm:"size:50;not null;index" json:"serial_number"`
	OrderID       string         `gorm:"size:100;not null;index" json:"order_id"`
	OrderUpdateID int            `gorm:"not null" json:"order_update_id"`
	Status        string         `gorm:"size:20;not null;index" json:"status"` // FINISHED, FAILED
	LastNodeID    string         `gorm:"size:100" json:"last_node_id"`
	ErrorCount    int            `json:"error_count"`
	ActionCount   int            `json:"action_count"`
	CompletedAt   time.Time      `gorm:"not null;index" json:"completed_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// ActionRecord 끝난 액션 이력 (FINISHED/FAILED 전이만)
type ActionRecord struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	SerialNumber      string         `gorm:"size:50;not null;index" json:"serial_number"`
	OrderID           string         `gorm:"size:100;index" json:"order_id"` // 완료 시점의 오더
	ActionID          string         `gorm:"size:100;not null;index" json:"action_id"`
	ActionType        string         `gorm:"size:100;not null" json:"action_type"`
	Status            string         `gorm:"size:20;not null" json:"status"`
	ResultDescription string         `gorm:"size:500" json:"result_description"`
	CompletedAt       time.Time      `gorm:"not null;index" json:"completed_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// TableName 테이블 이름
func (OrderRecord) TableName() string { return "order_history" }

// TableName 테이블 이름
func (ActionRecord) TableName() string { return "action_history" }
