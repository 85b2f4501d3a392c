package model

// AlarmNotificationMessage 告警通知任务消息，按联系人与渠道展开成单条消息
// 同一个告警对 N 个联系人产生 N 条消息，单条失败互不影响
type AlarmNotificationMessage struct {
	MessageID       string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	AlarmPublicID   int64  `json:"alarm_public_id"`
	AlarmType       string `json:"alarm_type"`
	UserID          int64  `json:"user_id"`
	UserFullName    string `json:"user_full_name"`
	ContactName     string `json:"contact_name"`
	ContactPriority int    `json:"contact_priority"`
	Channel         string `json:"channel"` // email, sms

	// 渠道收件信息，email 渠道填 EmailAddress，sms 渠道填密文手机号
	EmailAddress      string `json:"email_address,omitempty"`
	PhoneCipherBase64 string `json:"phone_cipher,omitempty"`

	PersonalMessage string   `json:"personal_message,omitempty"`
	AlarmMessage    string   `json:"alarm_message,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	ScheduledAt     string   `json:"scheduled_at"`
}

// StalenessSweepMessage 失联扫描任务消息，调度器按批下发
type StalenessSweepMessage struct {
	MessageID    string  `json:"message_id"` // 消息唯一ID，用于幂等性检查
	BatchID      string  `json:"batch_id"`
	ScheduledAt  string  `json:"scheduled_at"`
	UserIDs      []int64 `json:"user_ids"`
	DelaySeconds int     `json:"delay_seconds"`
}
