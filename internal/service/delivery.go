package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"OldunMu/internal/model"
	"OldunMu/pkg/email"
	pkgerrors "OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
	"OldunMu/pkg/metrics"
	"OldunMu/pkg/sms"
	"OldunMu/storage/database"
	"OldunMu/utils"
)

var (
	deliverySvc  *DeliverySvc
	deliveryOnce sync.Once
)

func Delivery() *DeliverySvc {
	deliveryOnce.Do(func() {
		deliverySvc = &DeliverySvc{}
	})
	return deliverySvc
}

// DeliverySvc 告警通知的实际投递，由 worker 消费队列后调用
// 每次投递都落一条 delivery_attempts 记录，意图和结果分开存
type DeliverySvc struct{}

// 单次投递的超时，避免一个慢收件方拖住整个消费者
const deliveryTimeout = 30 * time.Second

// DeliverAlarmEmail 投递告警邮件
func (s *DeliverySvc) DeliverAlarmEmail(ctx context.Context, msg model.AlarmNotificationMessage) error {
	return s.deliver(ctx, msg, model.NotificationChannelEmail, func(ctx context.Context) error {
		if msg.EmailAddress == "" {
			return pkgerrors.NewNonRetryableError("EMAIL_ADDRESS_MISSING",
				"notification message has no email address", msg.MessageID)
		}

		data := email.AlarmEmailData{
			ContactName: msg.ContactName,
			UserName:    msg.UserFullName,
			Message:     notificationText(msg),
		}
		if msg.Latitude != nil && msg.Longitude != nil {
			data.MapLink = fmt.Sprintf("https://maps.google.com/?q=%f,%f", *msg.Latitude, *msg.Longitude)
		}
		return email.SendAlarmNotification(ctx, msg.EmailAddress, data)
	})
}

// DeliverAlarmSMS 投递告警短信，手机号在消息里是密文
func (s *DeliverySvc) DeliverAlarmSMS(ctx context.Context, msg model.AlarmNotificationMessage) error {
	return s.deliver(ctx, msg, model.NotificationChannelSMS, func(ctx context.Context) error {
		cipher, err := base64.StdEncoding.DecodeString(msg.PhoneCipherBase64)
		if err != nil {
			return pkgerrors.NewNonRetryableError("PHONE_CIPHER_INVALID",
				"failed to decode phone cipher", err.Error())
		}
		phone, err := utils.DecryptPhone(cipher)
		if err != nil {
			return pkgerrors.NewNonRetryableError("PHONE_CIPHER_INVALID",
				"failed to decrypt phone cipher", err.Error())
		}
		return sms.SendAlarmNotification(ctx, phone, msg.UserFullName, notificationText(msg))
	})
}

// deliver 公共投递流程：执行发送，记录耗时、结果和指标
func (s *DeliverySvc) deliver(
	ctx context.Context,
	msg model.AlarmNotificationMessage,
	channel model.NotificationChannel,
	send func(context.Context) error,
) error {
	sendCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	start := time.Now()
	sendErr := send(sendCtx)
	duration := time.Since(start).Seconds()

	status := model.DeliveryAttemptStatusSuccess
	var responseCode, responseMessage *string
	if sendErr != nil {
		status = model.DeliveryAttemptStatusFailed
		code := deliveryErrorCode(sendErr)
		message := truncate(sendErr.Error(), 255)
		responseCode = &code
		responseMessage = &message
	}

	s.recordAttempt(ctx, msg, channel, status, responseCode, responseMessage)
	metrics.GetMetrics().RecordDeliveryAttempt(ctx, string(channel), string(status), duration)

	if sendErr != nil {
		logger.Logger.Error("Alarm notification delivery failed",
			zap.String("message_id", msg.MessageID),
			zap.Int64("alarm_id", msg.AlarmPublicID),
			zap.String("channel", string(channel)),
			zap.String("contact", msg.ContactName),
			zap.Error(sendErr),
		)
		return sendErr
	}

	logger.Logger.Info("Alarm notification delivered",
		zap.String("message_id", msg.MessageID),
		zap.Int64("alarm_id", msg.AlarmPublicID),
		zap.String("channel", string(channel)),
		zap.String("contact", msg.ContactName),
	)
	return nil
}

// recordAttempt 落投递记录，写失败不影响投递结果
func (s *DeliverySvc) recordAttempt(
	ctx context.Context,
	msg model.AlarmNotificationMessage,
	channel model.NotificationChannel,
	status model.DeliveryAttemptStatus,
	responseCode, responseMessage *string,
) {
	attempt := &model.DeliveryAttempt{
		UserID:          msg.UserID,
		ContactName:     msg.ContactName,
		ContactPriority: msg.ContactPriority,
		Channel:         channel,
		Status:          status,
		ResponseCode:    responseCode,
		ResponseMessage: responseMessage,
		AttemptedAt:     time.Now().UTC(),
	}

	var alarm model.Alarm
	err := database.DB().WithContext(ctx).
		Where("public_id = ?", msg.AlarmPublicID).
		First(&alarm).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Logger.Error("Failed to resolve alarm for delivery attempt",
				zap.Int64("alarm_id", msg.AlarmPublicID),
				zap.Error(err),
			)
		}
	} else {
		attempt.AlarmID = alarm.ID
	}

	if err := database.DB().WithContext(ctx).Create(attempt).Error; err != nil {
		logger.Logger.Error("Failed to record delivery attempt",
			zap.Int64("alarm_id", msg.AlarmPublicID),
			zap.String("contact", msg.ContactName),
			zap.Error(err),
		)
	}
}

// notificationText 发给联系人的正文，联系人专属留言优先于告警消息
func notificationText(msg model.AlarmNotificationMessage) string {
	if msg.PersonalMessage != "" {
		return msg.PersonalMessage
	}
	return msg.AlarmMessage
}

func deliveryErrorCode(err error) string {
	var nre *pkgerrors.NonRetryableError
	if errors.As(err, &nre) {
		return nre.Code
	}
	return "DELIVERY_ERROR"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
