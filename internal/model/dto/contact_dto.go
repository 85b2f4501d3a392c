package dto

import "time"

// ========== Contact 相关 DTO ==========

// ContactItem 紧急联系人项
type ContactItem struct {
	ContactID       int64     `json:"contact_id"`
	CreatedAt       time.Time `json:"created_at"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Relationship    string    `json:"relationship"`
	PhoneMasked     string    `json:"phone_masked"`
	Email           *string   `json:"email,omitempty"`
	Priority        int       `json:"priority"`
	PersonalMessage *string   `json:"personal_message,omitempty"`
	Verified        bool      `json:"verified"`
}

// CreateContactRequest 创建联系人请求
type CreateContactRequest struct {
	FirstName       string  `json:"first_name" binding:"required"`
	LastName        string  `json:"last_name" binding:"required"`
	Relationship    string  `json:"relationship" binding:"required"`
	Phone           string  `json:"phone" binding:"required"`
	Email           *string `json:"email,omitempty"`
	Priority        int     `json:"priority" binding:"required,min=1,max=10"`
	PersonalMessage *string `json:"personal_message,omitempty"`
}

// UpdateContactRequest 更新联系人请求
type UpdateContactRequest struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Relationship    *string `json:"relationship,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Email           *string `json:"email,omitempty"`
	Priority        *int    `json:"priority,omitempty"`
	PersonalMessage *string `json:"personal_message,omitempty"`
}

// VerifyContactRequest 联系人验证请求
type VerifyContactRequest struct {
	Code string `json:"code" binding:"required"`
}
