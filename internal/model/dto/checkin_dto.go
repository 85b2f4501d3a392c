package dto

import "time"

// ========== CheckIn 相关 DTO ==========

// CreateCheckinRequest 打卡请求，位置与备注均可选
type CreateCheckinRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Note      *string  `json:"note,omitempty"`
	Mood      *string  `json:"mood,omitempty"`
}

// CreateCheckinResponse 打卡响应
type CreateCheckinResponse struct {
	CheckinID    int64     `json:"checkin_id"`
	Timestamp    time.Time `json:"timestamp"`
	StreakDays   int       `json:"streak_days"`
	NextDeadline time.Time `json:"next_deadline"`
}

// CheckinStatusData 打卡状态数据
// remaining_hours 不会为负数，display 字段保留一位小数
type CheckinStatusData struct {
	Status                string     `json:"status"`
	LastCheckinAt         *time.Time `json:"last_checkin_at,omitempty"`
	ElapsedHours          *float64   `json:"elapsed_hours,omitempty"`
	ElapsedHoursDisplay   *float64   `json:"elapsed_hours_display,omitempty"`
	RemainingHours        float64    `json:"remaining_hours"`
	RemainingHoursDisplay float64    `json:"remaining_hours_display"`
	NextDeadline          *time.Time `json:"next_deadline,omitempty"`
	StreakDays            int        `json:"streak_days"`
}

// CheckinHistoryQuery 打卡历史查询参数
type CheckinHistoryQuery struct {
	From   string `query:"from"`
	To     string `query:"to"`
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit"`
}

// CheckinItem 打卡历史项
type CheckinItem struct {
	CheckinID int64     `json:"checkin_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Note      *string   `json:"note,omitempty"`
	Mood      *string   `json:"mood,omitempty"`
}

// CheckinHistoryData 打卡历史响应
type CheckinHistoryData struct {
	Items      []CheckinItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// PostponeRequest 推迟截止时间请求
type PostponeRequest struct {
	Hours float64 `json:"hours" binding:"required,gt=0,lte=12"`
}

// PostponeResponse 推迟截止时间响应
type PostponeResponse struct {
	NextDeadline time.Time `json:"next_deadline"`
}
