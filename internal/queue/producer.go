package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"OldunMu/internal/model"
	"OldunMu/pkg/logger"
	"OldunMu/pkg/snowflake"
	"OldunMu/storage/mq"
)

// PublishAlarmNotification 发布告警通知任务，按渠道路由到对应队列
func PublishAlarmNotification(ctx context.Context, msg model.AlarmNotificationMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID(snowflake.GeneratorTypeMessage)
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("alarm_id", msg.AlarmPublicID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("alarm_notify_%d", id)
	}
	if msg.ScheduledAt == "" {
		msg.ScheduledAt = time.Now().Format(time.RFC3339)
	}

	var routingKey string
	switch msg.Channel {
	case string(model.NotificationChannelEmail):
		routingKey = mq.AlarmEmailRoutingKey
	case string(model.NotificationChannelSMS):
		routingKey = mq.AlarmSMSRoutingKey
	default:
		return fmt.Errorf("unknown notification channel: %s", msg.Channel)
	}

	err := mq.PublishMessage(ctx, mq.AlarmExchange, routingKey, msg)
	if err != nil {
		logger.Logger.Error("Failed to publish alarm notification",
			zap.String("message_id", msg.MessageID),
			zap.Int64("alarm_id", msg.AlarmPublicID),
			zap.Int64("user_id", msg.UserID),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published alarm notification",
		zap.String("message_id", msg.MessageID),
		zap.Int64("alarm_id", msg.AlarmPublicID),
		zap.Int64("user_id", msg.UserID),
		zap.String("contact", msg.ContactName),
		zap.String("routing_key", routingKey),
	)

	return nil
}

// PublishStalenessSweep 发布失联扫描批次（延迟消息）
func PublishStalenessSweep(ctx context.Context, msg model.StalenessSweepMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID(snowflake.GeneratorTypeMessage)
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.String("batch_id", msg.BatchID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("sweep_%d", id)
	}
	if msg.ScheduledAt == "" {
		msg.ScheduledAt = time.Now().Format(time.RFC3339)
	}

	delay := time.Duration(msg.DelaySeconds) * time.Second

	err := mq.PublishDelayedMessage(
		ctx,
		mq.SchedulerExchange,
		mq.SweepRoutingKey,
		delay,
		msg,
	)
	if err != nil {
		logger.Logger.Error("Failed to publish staleness sweep batch",
			zap.String("batch_id", msg.BatchID),
			zap.Int("user_count", len(msg.UserIDs)),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published staleness sweep batch",
		zap.String("message_id", msg.MessageID),
		zap.String("batch_id", msg.BatchID),
		zap.Int("user_count", len(msg.UserIDs)),
		zap.Duration("delay", delay),
	)

	return nil
}
