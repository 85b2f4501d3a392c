package sms

import (
	"context"
	"encoding/json"

	"OldunMu/config"
	"OldunMu/pkg/errors"
)

// alarmTemplateParams 告警短信模板变量
type alarmTemplateParams struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// SendAlarmNotification 给单个联系人发送告警短信
// 签名和模板缺失属于配置错误，返回不可重试错误避免消息无限重投
func SendAlarmNotification(ctx context.Context, phone, userFullName, message string) error {
	cfg := config.Cfg

	if cfg.SMSSignName == "" {
		return errors.NewNonRetryableError(
			errors.ErrSignNameRequired.Code,
			errors.ErrSignNameRequired.Message,
			"set SMS_SIGN_NAME",
		)
	}
	if cfg.SMSTemplateCode == "" {
		return errors.NewNonRetryableError(
			errors.ErrTemplateCodeRequired.Code,
			errors.ErrTemplateCodeRequired.Message,
			"set SMS_TEMPLATE_CODE",
		)
	}

	param, err := json.Marshal(alarmTemplateParams{
		Name:    userFullName,
		Message: message,
	})
	if err != nil {
		return err
	}

	return SendSingle(ctx, phone, cfg.SMSSignName, cfg.SMSTemplateCode, string(param))
}
