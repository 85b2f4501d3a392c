package model

import "time"

// NotificationType 站内通知类型枚举
type NotificationType string

const (
	NotificationTypeReminder NotificationType = "reminder"
	NotificationTypeWarning  NotificationType = "warning"
	NotificationTypeAlarm    NotificationType = "alarm"
	NotificationTypeSystem   NotificationType = "system"
)

// Notification 站内通知模型（通知中心列表）
type Notification struct {
	BaseModel
	UserID int64            `gorm:"not null;index:idx_notifications_user" json:"user_id"`
	Title  string           `gorm:"type:varchar(200);not null" json:"title"`
	Body   string           `gorm:"type:text;not null" json:"body"`
	Type   NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	Read   bool             `gorm:"not null;default:false" json:"read"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// NotificationChannel 通知渠道枚举
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
)

// DeliveryAttemptStatus 投递尝试状态枚举
type DeliveryAttemptStatus string

const (
	DeliveryAttemptStatusPending DeliveryAttemptStatus = "pending"
	DeliveryAttemptStatusSuccess DeliveryAttemptStatus = "success"
	DeliveryAttemptStatusFailed  DeliveryAttemptStatus = "failed"
)

// DeliveryAttempt 单次投递尝试记录
// 告警上的 notified_contacts 记录通知意图，真正的投递结果落在这张表，
// 单个联系人的失败只体现在这里，不回滚告警本身
type DeliveryAttempt struct {
	BaseModel
	AlarmID         int64                 `gorm:"not null;index:idx_delivery_attempts_alarm" json:"alarm_id"`
	UserID          int64                 `gorm:"not null" json:"user_id"`
	ContactName     string                `gorm:"type:varchar(101);not null" json:"contact_name"`
	ContactPriority int                   `gorm:"type:smallint;not null" json:"contact_priority"`
	Channel         NotificationChannel   `gorm:"type:varchar(16);not null" json:"channel"`
	Status          DeliveryAttemptStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	ResponseCode    *string               `gorm:"type:varchar(64)" json:"response_code,omitempty"`
	ResponseMessage *string               `gorm:"type:varchar(255)" json:"response_message,omitempty"`
	AttemptedAt     time.Time             `gorm:"type:timestamptz;not null;default:now()" json:"attempted_at"`
}

// TableName 指定表名
func (DeliveryAttempt) TableName() string {
	return "delivery_attempts"
}
