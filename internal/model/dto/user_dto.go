package dto

// ========== User 相关 DTO ==========

// UserProfileData 用户资料数据
type UserProfileData struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Phone            PhoneInfo `json:"phone"`
	SubscriptionTier string    `json:"subscription_tier"`
	EmailVerified    bool      `json:"email_verified"`

	Settings UserSettingsDTO `json:"settings"`
}

// PhoneInfo 手机号信息
type PhoneInfo struct {
	NumberMasked string `json:"number_masked"`
	Verified     bool   `json:"verified"`
}

// UserSettingsDTO 用户打卡策略设置
// critical/alarm 为空时表示使用全局默认阈值
type UserSettingsDTO struct {
	CheckinIntervalHours   int      `json:"checkin_interval_hours"`
	CriticalThresholdHours *float64 `json:"critical_threshold_hours,omitempty"`
	AlarmThresholdHours    *float64 `json:"alarm_threshold_hours,omitempty"`
	LocationSharing        bool     `json:"location_sharing"`
	Timezone               string   `json:"timezone"`
}

// UpdateUserSettingsRequest 更新用户设置请求
// 阈值必须满足 warning < critical < alarm，否则整体拒绝，不做截断
type UpdateUserSettingsRequest struct {
	CheckinIntervalHours   *int     `json:"checkin_interval_hours"`
	CriticalThresholdHours *float64 `json:"critical_threshold_hours"`
	AlarmThresholdHours    *float64 `json:"alarm_threshold_hours"`
	LocationSharing        *bool    `json:"location_sharing"`
	Timezone               *string  `json:"timezone"`
}
