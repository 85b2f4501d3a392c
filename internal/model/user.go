package model

import "time"

// SubscriptionTier 订阅套餐枚举
type SubscriptionTier string

const (
	SubscriptionTierFree    SubscriptionTier = "free"
	SubscriptionTierPremium SubscriptionTier = "premium"
)

// User 用户模型

type User struct {
	BaseModel
	PublicID     int64   `gorm:"uniqueIndex;not null" json:"public_id"`
	Email        string  `gorm:"uniqueIndex;type:varchar(255);not null" json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string  `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName     string  `gorm:"type:varchar(50);not null" json:"last_name"`
	PhoneCipher  []byte  `gorm:"type:bytea" json:"-"`                // 手机号密文，不对外暴露
	PhoneHash    *string `gorm:"uniqueIndex;type:char(64)" json:"-"` // 手机号哈希，用于查询

	EmailVerified bool `gorm:"not null;default:false" json:"email_verified"`
	PhoneVerified bool `gorm:"not null;default:false" json:"phone_verified"`

	// 订阅
	SubscriptionTier  SubscriptionTier `gorm:"type:varchar(16);not null;default:'free'" json:"subscription_tier"`
	SubscriptionUntil *time.Time       `gorm:"type:timestamptz" json:"subscription_until,omitempty"`

	// 打卡策略，critical/alarm 为空时回落到全局默认值
	// warning 阈值是产品常量（20h），不在用户侧暴露
	CheckinIntervalHours   int      `gorm:"not null;default:24" json:"checkin_interval_hours"`
	CriticalThresholdHours *float64 `gorm:"type:numeric" json:"critical_threshold_hours,omitempty"`
	AlarmThresholdHours    *float64 `gorm:"type:numeric" json:"alarm_threshold_hours,omitempty"`
	LocationSharing        bool     `gorm:"not null;default:true" json:"location_sharing"`
	Timezone               string   `gorm:"type:varchar(64);not null;default:'Europe/Istanbul'" json:"timezone"`

	// 用户主动推迟后的截止时间，新的打卡会清掉它
	PostponedUntil *time.Time `gorm:"type:timestamptz" json:"postponed_until,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
