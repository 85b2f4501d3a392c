package errors

import "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	EmailAlreadyRegistered = Definition{Code: "EMAIL_ALREADY_REGISTERED", Message: "Email already registered"}
	PhoneAlreadyRegistered = Definition{Code: "PHONE_ALREADY_REGISTERED", Message: "Phone already registered"}
	InvalidCredentials     = Definition{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
	Unauthorized           = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID          = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	UserNotFound           = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
)

// 联系人模块错误。
var (
	ContactLimitReached     = Definition{Code: "CONTACT_LIMIT_REACHED", Message: "Contact limit reached"}
	ContactPriorityConflict = Definition{Code: "CONTACT_PRIORITY_CONFLICT", Message: "Contact priority conflict"}
	ContactNotFound         = Definition{Code: "CONTACT_NOT_FOUND", Message: "Contact not found"}
	InvalidPhoneNumber      = Definition{Code: "INVALID_PHONE", Message: "Invalid phone number"}
	InvalidVerificationCode = Definition{Code: "INVALID_VERIFICATION_CODE", Message: "Verification code does not match"}
	InvalidEmail            = Definition{Code: "INVALID_EMAIL", Message: "Invalid email address"}
)

// 平安打卡模块错误。
var (
	NoCheckinYet    = Definition{Code: "CHECKIN_YOK", Message: "No check-in recorded yet"}
	InvalidLocation = Definition{Code: "INVALID_LOCATION", Message: "Latitude must be in [-90,90], longitude in [-180,180]"}
	InvalidMood     = Definition{Code: "INVALID_MOOD", Message: "Mood must be one of good, neutral, bad"}
	NoteTooLong     = Definition{Code: "NOTE_TOO_LONG", Message: "Check-in note exceeds maximum length"}
)

// 告警生命周期错误。
var (
	AlarmNotFound = Definition{Code: "ALARM_NOT_FOUND", Message: "Alarm not found"}
	// InvalidTransition 终态保护：cancel/resolve 只允许作用于 ACTIVE 告警
	InvalidTransition = Definition{Code: "INVALID_TRANSITION", Message: "Alarm is not active"}
	// InvalidPolicyConfiguration 阈值必须满足 warning < critical < alarm
	InvalidPolicyConfiguration = Definition{Code: "INVALID_POLICY_CONFIGURATION", Message: "Thresholds must satisfy warning < critical < alarm"}
)

// 通知模块错误。
var (
	NotificationNotFound = Definition{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found"}
)

// 通用请求错误。
var (
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, try again later"}
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	EmailAlreadyRegistered.Code:     EmailAlreadyRegistered,
	PhoneAlreadyRegistered.Code:     PhoneAlreadyRegistered,
	InvalidCredentials.Code:         InvalidCredentials,
	Unauthorized.Code:               Unauthorized,
	InvalidUserID.Code:              InvalidUserID,
	UserNotFound.Code:               UserNotFound,
	ContactLimitReached.Code:        ContactLimitReached,
	ContactPriorityConflict.Code:    ContactPriorityConflict,
	ContactNotFound.Code:            ContactNotFound,
	InvalidVerificationCode.Code:    InvalidVerificationCode,
	InvalidEmail.Code:               InvalidEmail,
	InvalidPhoneNumber.Code:         InvalidPhoneNumber,
	NoCheckinYet.Code:               NoCheckinYet,
	InvalidLocation.Code:            InvalidLocation,
	InvalidMood.Code:                InvalidMood,
	NoteTooLong.Code:                NoteTooLong,
	AlarmNotFound.Code:              AlarmNotFound,
	InvalidTransition.Code:          InvalidTransition,
	InvalidPolicyConfiguration.Code: InvalidPolicyConfiguration,
	NotificationNotFound.Code:       NotificationNotFound,
	TooManyRequests.Code:            TooManyRequests,
	InvalidRequest.Code:             InvalidRequest,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// token 包的内部错误。
var (
	ErrTokenGeneratorNotInitialized = errors.New("token generator is not initialized")
	ErrUnexpectedSigningMethod      = errors.New("unexpected signing method")
	ErrInvalidToken                 = errors.New("invalid token")
	ErrInvalidTokenClaims           = errors.New("invalid token claims")
	ErrInvalidTokenType             = errors.New("invalid token type")
	ErrUserIDNotFound               = errors.New("user id not found in token claims")
)

// 基础设施错误。
var (
	ErrDatabaseConnectionNil = errors.New("database connection is nil")
)

// 短信发送的参数错误。
var (
	ErrSignNameRequired       = Definition{Code: "SMS_SIGN_NAME_REQUIRED", Message: "SMS sign name is required"}
	ErrTemplateCodeRequired   = Definition{Code: "SMS_TEMPLATE_CODE_REQUIRED", Message: "SMS template code is required"}
	ErrPhonesListEmpty        = Definition{Code: "SMS_PHONES_EMPTY", Message: "Phone list is empty"}
	ErrTemplateParamsMismatch = Definition{Code: "SMS_TEMPLATE_PARAMS_MISMATCH", Message: "Template params count mismatch"}
)

// NonRetryableError 表示不应重试的投递错误（模板/参数等配置问题）。
type NonRetryableError struct {
	Code    string
	Message string
	Hint    string
}

func (e *NonRetryableError) Error() string {
	return e.Code + ": " + e.Message + " (" + e.Hint + ")"
}

func NewNonRetryableError(code, message, hint string) *NonRetryableError {
	return &NonRetryableError{Code: code, Message: message, Hint: hint}
}

// IsNonRetryable 判断投递错误是否不可重试。
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// SkipMessageError 消费者幂等检查命中重复消息时返回，直接 Ack 不重投。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

// IsSkipMessageError 判断是否为跳过类错误。
func IsSkipMessageError(err error) bool {
	var sme *SkipMessageError
	return errors.As(err, &sme)
}
