package model

// Relationship 紧急联系人与用户的关系枚举
type Relationship string

const (
	RelationshipFamily   Relationship = "family"
	RelationshipFriend   Relationship = "friend"
	RelationshipNeighbor Relationship = "neighbor"
	RelationshipOther    Relationship = "other"
)

// ParseRelationship 边界层显式映射，未知取值回落到 other
func ParseRelationship(value string) Relationship {
	switch value {
	case "family":
		return RelationshipFamily
	case "friend":
		return RelationshipFriend
	case "neighbor":
		return RelationshipNeighbor
	default:
		return RelationshipOther
	}
}

// EmergencyContact 紧急联系人模型
// 只有 Verified 为 true 的联系人会参与告警通知
type EmergencyContact struct {
	BaseModel
	UserID int64 `gorm:"not null;index:idx_emergency_contacts_user_priority,priority:1" json:"user_id"`

	FirstName   string  `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName    string  `gorm:"type:varchar(50);not null" json:"last_name"`
	PhoneCipher []byte  `gorm:"type:bytea" json:"-"`   // 手机号密文
	PhoneHash   *string `gorm:"type:char(64)" json:"-"` // 手机号哈希
	Email       *string `gorm:"type:varchar(255)" json:"email,omitempty"`

	Relationship    Relationship `gorm:"type:varchar(16);not null;default:'other'" json:"relationship"`
	Priority        int          `gorm:"type:smallint;not null;index:idx_emergency_contacts_user_priority,priority:2" json:"priority"`
	PersonalMessage *string      `gorm:"type:text" json:"personal_message,omitempty"`

	Verified         bool    `gorm:"not null;default:false" json:"verified"`
	VerificationCode *string `gorm:"type:varchar(10)" json:"-"`
}

// TableName 指定表名
func (EmergencyContact) TableName() string {
	return "emergency_contacts"
}

// FullName 联系人展示名
func (c *EmergencyContact) FullName() string {
	return c.FirstName + " " + c.LastName
}
