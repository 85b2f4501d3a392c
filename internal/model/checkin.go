package model

import (
	"time"

	"OldunMu/pkg/errors"
)

// Mood 打卡心情枚举
type Mood string

const (
	MoodGood    Mood = "good"
	MoodNeutral Mood = "neutral"
	MoodBad     Mood = "bad"
)

// ParseMood 在边界层做显式映射，不接受枚举之外的取值
func ParseMood(value string) (Mood, error) {
	switch value {
	case "good":
		return MoodGood, nil
	case "neutral":
		return MoodNeutral, nil
	case "bad":
		return MoodBad, nil
	default:
		return "", errors.InvalidMood
	}
}

// MaxNoteLength 打卡备注长度上限
const MaxNoteLength = 500

// CheckinRecord 平安打卡记录，创建后不可变，永久保留
type CheckinRecord struct {
	BaseModel
	UserID    int64     `gorm:"not null;index:idx_checkins_user_ts,priority:1" json:"user_id"`
	Timestamp time.Time `gorm:"type:timestamptz;not null;index:idx_checkins_user_ts,priority:2,sort:desc" json:"timestamp"`

	// 位置（可选）
	Latitude  *float64 `gorm:"type:numeric" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:numeric" json:"longitude,omitempty"`
	Address   *string  `gorm:"type:varchar(500)" json:"address,omitempty"`

	// 附加信息（可选）
	Note *string `gorm:"type:text" json:"note,omitempty"`
	Mood *Mood   `gorm:"type:varchar(16)" json:"mood,omitempty"`
}

// TableName 指定表名
func (CheckinRecord) TableName() string {
	return "checkins"
}
