package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"OldunMu/internal/cache"
	"OldunMu/internal/model"
	"OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
	"OldunMu/storage/mq"
)

// DeliveryService 通知投递服务接口，由 worker 启动时注入
type DeliveryService interface {
	DeliverAlarmEmail(ctx context.Context, msg model.AlarmNotificationMessage) error
	DeliverAlarmSMS(ctx context.Context, msg model.AlarmNotificationMessage) error
}

// SweepService 失联扫描服务接口，由 worker 启动时注入
type SweepService interface {
	ProcessSweepBatch(ctx context.Context, userIDs []int64) error
}

var (
	deliveryService DeliveryService
	sweepService    SweepService
)

// SetDeliveryService 设置投递服务（在 worker 启动时调用）
func SetDeliveryService(s DeliveryService) {
	deliveryService = s
}

// SetSweepService 设置扫描服务（在 worker 启动时调用）
func SetSweepService(s SweepService) {
	sweepService = s
}

// handleAlarmNotification 告警通知消息的公共处理流程
// 幂等检查加投递，可重试错误取消标记后重入队，配置类错误直接跳过
func handleAlarmNotification(
	ctx context.Context,
	body []byte,
	deliver func(context.Context, model.AlarmNotificationMessage) error,
) error {
	var msg model.AlarmNotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal alarm notification message: %w", err)
	}

	processed, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
	if err != nil {
		logger.Logger.Warn("Failed to check message processed status",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
		// 检查失败时继续处理，宁可重复通知也不能漏通知
	} else if !processed {
		logger.Logger.Info("Message already processed or being processed, skipping",
			zap.String("message_id", msg.MessageID),
			zap.Int64("alarm_id", msg.AlarmPublicID),
		)
		return &errors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
	}

	logger.Logger.Info("Processing alarm notification",
		zap.String("message_id", msg.MessageID),
		zap.Int64("alarm_id", msg.AlarmPublicID),
		zap.String("contact", msg.ContactName),
		zap.String("channel", msg.Channel),
	)

	if deliveryService == nil {
		logger.Logger.Error("DeliveryService not initialized",
			zap.String("message_id", msg.MessageID),
		)
		cache.UnmarkMessageProcessing(ctx, msg.MessageID)
		return fmt.Errorf("delivery service not initialized")
	}

	if err := deliver(ctx, msg); err != nil {
		if errors.IsNonRetryable(err) {
			// 配置类错误重试也不会成功，标记完成后跳过
			if markErr := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); markErr != nil {
				logger.Logger.Warn("Failed to mark non-retryable message as processed",
					zap.String("message_id", msg.MessageID),
					zap.Error(markErr),
				)
			}
			return &errors.SkipMessageError{Reason: err.Error()}
		}

		cache.UnmarkMessageProcessing(ctx, msg.MessageID)
		return fmt.Errorf("failed to deliver alarm notification: %w", err)
	}

	if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
		logger.Logger.Warn("Failed to mark message as processed",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}

	return nil
}

// StartAlarmEmailConsumer 启动告警邮件消费者
func StartAlarmEmailConsumer(ctx context.Context) error {
	handler := func(msgCtx context.Context, body []byte) error {
		return handleAlarmNotification(msgCtx, body, func(ctx context.Context, msg model.AlarmNotificationMessage) error {
			return deliveryService.DeliverAlarmEmail(ctx, msg)
		})
	}

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.AlarmEmailQueue,
		ConsumerTag:   "alarm_email_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// StartAlarmSMSConsumer 启动告警短信消费者
func StartAlarmSMSConsumer(ctx context.Context) error {
	handler := func(msgCtx context.Context, body []byte) error {
		return handleAlarmNotification(msgCtx, body, func(ctx context.Context, msg model.AlarmNotificationMessage) error {
			return deliveryService.DeliverAlarmSMS(ctx, msg)
		})
	}

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.AlarmSMSQueue,
		ConsumerTag:   "alarm_sms_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// StartSweepConsumer 启动失联扫描消费者
func StartSweepConsumer(ctx context.Context) error {
	handler := func(ctx context.Context, body []byte) error {
		var msg model.StalenessSweepMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal sweep message: %w", err)
		}

		processed, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 1*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else if !processed {
			logger.Logger.Info("Sweep batch already processed, skipping",
				zap.String("message_id", msg.MessageID),
				zap.String("batch_id", msg.BatchID),
			)
			return &errors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
		}

		logger.Logger.Info("Processing staleness sweep batch",
			zap.String("message_id", msg.MessageID),
			zap.String("batch_id", msg.BatchID),
			zap.Int("user_count", len(msg.UserIDs)),
		)

		if sweepService == nil {
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("sweep service not initialized")
		}

		if err := sweepService.ProcessSweepBatch(ctx, msg.UserIDs); err != nil {
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("failed to process sweep batch: %w", err)
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 2*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		return nil
	}

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.SweepQueue,
		ConsumerTag:   "staleness_sweep_consumer",
		PrefetchCount: 5,
		Handler:       handler,
	})
}

// StartAllConsumers 启动全部消费者并阻塞到 ctx 取消
func StartAllConsumers(ctx context.Context) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"alarm_email", StartAlarmEmailConsumer},
		{"alarm_sms", StartAlarmSMSConsumer},
		{"staleness_sweep", StartSweepConsumer},
	}

	for _, c := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()

			logger.Logger.Info("Starting consumer",
				zap.String("consumer_name", name),
			)

			if err := consumer(ctx); err != nil {
				logger.Logger.Error("Consumer exited with error",
					zap.String("consumer_name", name),
					zap.Error(err),
				)
			}
		}(c.name, c.consumer)
	}

	wg.Wait()

	logger.Logger.Info("All consumers started")
}
