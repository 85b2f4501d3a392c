package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "OldunMu/pkg/errors"
)

// AlarmType 告警触发方式枚举
type AlarmType string

const (
	AlarmTypeAutomatic AlarmType = "automatic" // 失联扫描触发
	AlarmTypeManual    AlarmType = "manual"
	AlarmTypePanic     AlarmType = "panic"
)

// AlarmStatus 告警生命周期状态枚举
// active 是唯一的非终态，cancelled/resolved 之后不再允许任何转移
type AlarmStatus string

const (
	AlarmStatusActive    AlarmStatus = "active"
	AlarmStatusCancelled AlarmStatus = "cancelled"
	AlarmStatusResolved  AlarmStatus = "resolved"
)

// ParseAlarmType 边界层显式映射
func ParseAlarmType(value string) (AlarmType, error) {
	switch value {
	case "automatic":
		return AlarmTypeAutomatic, nil
	case "manual":
		return AlarmTypeManual, nil
	case "panic":
		return AlarmTypePanic, nil
	default:
		return "", pkgerrors.Definition{Code: "INVALID_ALARM_TYPE", Message: "Alarm type must be one of automatic, manual, panic"}
	}
}

// NotifiedContact 告警上记录的"计划通知"条目，只代表通知意图
// 实际投递结果记录在 delivery_attempts 表，二者不混用
type NotifiedContact struct {
	ContactName string `json:"contact_name"`
	Channel     string `json:"channel"` // email, sms
}

// NotifiedContacts 通知意图数组（JSONB）
type NotifiedContacts []NotifiedContact

func (n NotifiedContacts) Value() (driver.Value, error) {
	if n == nil {
		return "[]", nil
	}
	return json.Marshal(n)
}

func (n *NotifiedContacts) Scan(value interface{}) error {
	if value == nil {
		*n = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal NotifiedContacts value")
	}
	return json.Unmarshal(bytes, n)
}

// Alarm 告警模型，审计记录，只做状态转移，从不删除
type Alarm struct {
	BaseModel
	PublicID int64 `gorm:"uniqueIndex;not null" json:"public_id"`
	UserID   int64 `gorm:"not null;index:idx_alarms_user_status,priority:1" json:"user_id"`

	Type   AlarmType   `gorm:"type:varchar(16);not null" json:"type"`
	Status AlarmStatus `gorm:"type:varchar(16);not null;default:'active';index:idx_alarms_user_status,priority:2" json:"status"`

	Message *string `gorm:"type:text" json:"message,omitempty"`

	// 位置（可选）
	Latitude  *float64 `gorm:"type:numeric" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:numeric" json:"longitude,omitempty"`

	NotifiedContacts NotifiedContacts `gorm:"type:jsonb;default:'[]'" json:"notified_contacts"`

	CancelledAt  *time.Time `gorm:"type:timestamptz" json:"cancelled_at,omitempty"`
	CancelReason *string    `gorm:"type:text" json:"cancel_reason,omitempty"`
}

// TableName 指定表名
func (Alarm) TableName() string {
	return "alarms"
}

// IsActive 当前是否处于可转移状态
func (a *Alarm) IsActive() bool {
	return a.Status == AlarmStatusActive
}
