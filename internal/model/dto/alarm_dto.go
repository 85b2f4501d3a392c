package dto

import "time"

// ========== Alarm 相关 DTO ==========

// PanicAlarmRequest 紧急按钮请求
type PanicAlarmRequest struct {
	Message   *string  `json:"message,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// CancelAlarmRequest 取消告警请求
type CancelAlarmRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// NotifiedContactItem 告警计划通知的联系人
type NotifiedContactItem struct {
	ContactName string `json:"contact_name"`
	Channel     string `json:"channel"`
}

// AlarmData 告警数据
type AlarmData struct {
	AlarmID          int64                 `json:"alarm_id"`
	Type             string                `json:"type"`
	Status           string                `json:"status"`
	Message          *string               `json:"message,omitempty"`
	Latitude         *float64              `json:"latitude,omitempty"`
	Longitude        *float64              `json:"longitude,omitempty"`
	NotifiedContacts []NotifiedContactItem `json:"notified_contacts"`
	CreatedAt        time.Time             `json:"created_at"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason     *string               `json:"cancel_reason,omitempty"`
}

// AlarmHistoryQuery 告警历史查询参数
type AlarmHistoryQuery struct {
	Status string `query:"status"`
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit"`
}

// AlarmHistoryData 告警历史响应
type AlarmHistoryData struct {
	Items      []AlarmData `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}
