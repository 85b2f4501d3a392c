package dto

import "time"

// ========== Notification 相关 DTO ==========

// NotificationItem 站内通知项
type NotificationItem struct {
	NotificationID int64     `json:"notification_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Type           string    `json:"type"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationListQuery 通知列表查询参数
type NotificationListQuery struct {
	UnreadOnly bool   `query:"unread_only"`
	Cursor     string `query:"cursor"`
	Limit      int    `query:"limit"`
}

// NotificationListData 通知列表响应
type NotificationListData struct {
	Items       []NotificationItem `json:"items"`
	UnreadCount int64              `json:"unread_count"`
	NextCursor  string             `json:"next_cursor,omitempty"`
}
