package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"OldunMu/internal/cache"
	"OldunMu/internal/model"
	"OldunMu/internal/model/dto"
	"OldunMu/internal/queue"
	"OldunMu/internal/safety"
	pkgerrors "OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
	"OldunMu/pkg/metrics"
	"OldunMu/pkg/snowflake"
	"OldunMu/storage/database"
	"OldunMu/utils"
)

var (
	alarmService *AlarmService
	alarmOnce    sync.Once
)

func Alarm() *AlarmService {
	alarmOnce.Do(func() {
		alarmService = &AlarmService{
			lifecycle: safety.NewLifecycle(
				&gormAlarmStore{},
				&dbContactProvider{},
				&queueDispatcher{},
				&redisUserLocker{},
				func() (int64, error) { return snowflake.NextID(snowflake.GeneratorTypeAlarm) },
				safety.SystemClock(),
				logger.Logger,
			),
		}
	})
	return alarmService
}

type AlarmService struct {
	lifecycle *safety.Lifecycle
}

const defaultAlarmHistoryLimit = 50

// ========== safety.Lifecycle 的基础设施适配 ==========

// gormAlarmStore 告警存储的 gorm 实现
type gormAlarmStore struct{}

func (s *gormAlarmStore) Save(ctx context.Context, alarm *model.Alarm) error {
	return database.DB().WithContext(ctx).Create(alarm).Error
}

func (s *gormAlarmStore) Update(ctx context.Context, alarm *model.Alarm) error {
	return database.DB().WithContext(ctx).Save(alarm).Error
}

func (s *gormAlarmStore) FindActiveAutomatic(ctx context.Context, userID int64) (*model.Alarm, error) {
	var alarm model.Alarm
	err := database.DB().WithContext(ctx).
		Where("user_id = ? AND type = ? AND status = ?",
			userID, model.AlarmTypeAutomatic, model.AlarmStatusActive).
		First(&alarm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active automatic alarm: %w", err)
	}
	return &alarm, nil
}

// dbContactProvider 已验证联系人查询，手机号解密后交给扇出计划
type dbContactProvider struct{}

func (p *dbContactProvider) GetVerifiedContacts(ctx context.Context, userID int64) ([]safety.Contact, error) {
	var rows []model.EmergencyContact
	err := database.DB().WithContext(ctx).
		Where("user_id = ? AND verified = ?", userID, true).
		Order("priority ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query verified contacts: %w", err)
	}

	contacts := make([]safety.Contact, 0, len(rows))
	for _, row := range rows {
		c := safety.Contact{
			Name:     row.FullName(),
			Priority: row.Priority,
			Verified: row.Verified,
		}
		if row.Email != nil {
			c.Email = *row.Email
		}
		if row.PersonalMessage != nil {
			c.PersonalMessage = *row.PersonalMessage
		}
		if len(row.PhoneCipher) > 0 {
			phone, err := utils.DecryptPhone(row.PhoneCipher)
			if err != nil {
				// 解密失败只丢掉短信渠道，邮件渠道照常
				logger.Logger.Error("Failed to decrypt contact phone",
					zap.Int64("contact_id", row.ID),
					zap.Error(err),
				)
			} else {
				c.Phone = phone
			}
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// queueDispatcher 把单条通知意图投进 RabbitMQ，由 worker 异步投递
type queueDispatcher struct{}

func (d *queueDispatcher) Dispatch(ctx context.Context, alarm *model.Alarm, attempt safety.Attempt) error {
	user, err := getUserByInternalID(ctx, alarm.UserID)
	if err != nil {
		return err
	}

	msg := model.AlarmNotificationMessage{
		AlarmPublicID:   alarm.PublicID,
		AlarmType:       string(alarm.Type),
		UserID:          alarm.UserID,
		UserFullName:    user.FirstName + " " + user.LastName,
		ContactName:     attempt.ContactName,
		ContactPriority: attempt.ContactPriority,
		Channel:         string(attempt.Channel),
		PersonalMessage: attempt.PersonalMessage,
		Latitude:        alarm.Latitude,
		Longitude:       alarm.Longitude,
	}
	if alarm.Message != nil {
		msg.AlarmMessage = *alarm.Message
	}

	switch attempt.Channel {
	case safety.ChannelEmail:
		msg.EmailAddress = attempt.Address
	case safety.ChannelSMS:
		// 手机号不以明文过消息队列
		cipher, err := utils.EncryptPhone(attempt.Address)
		if err != nil {
			return fmt.Errorf("failed to encrypt contact phone for queue: %w", err)
		}
		msg.PhoneCipherBase64 = base64.StdEncoding.EncodeToString(cipher)
	}

	return queue.PublishAlarmNotification(ctx, msg)
}

// redisUserLocker 基于 Redis SetNX 的每用户互斥
type redisUserLocker struct{}

func (l *redisUserLocker) TryLock(ctx context.Context, userID int64) (func(), bool, error) {
	acquired, err := cache.TryAlarmRaiseLock(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}
	release := func() {
		if err := cache.ReleaseAlarmRaiseLock(context.WithoutCancel(ctx), userID); err != nil {
			logger.Logger.Warn("Failed to release alarm raise lock",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return release, true, nil
}

func getUserByInternalID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := database.DB().WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.UserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// ========== 对外操作 ==========

// Panic 紧急按钮，用户显式触发，从不去重
func (s *AlarmService) Panic(ctx context.Context, userID string, req *dto.PanicAlarmRequest) (*dto.AlarmData, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	params := safety.RaiseParams{
		UserID:  user.ID,
		Type:    model.AlarmTypePanic,
		Message: req.Message,
	}
	if user.LocationSharing {
		if req.Latitude != nil && req.Longitude != nil {
			if err := utils.ValidateLocation(*req.Latitude, *req.Longitude); err != nil {
				return nil, err
			}
			params.Latitude = req.Latitude
			params.Longitude = req.Longitude
		}
	}

	alarm, _, err := s.lifecycle.Raise(ctx, params)
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordAlarmRaised(ctx, string(alarm.Type))
	s.recordAlarmNotification(ctx, user.ID, alarm)

	return toAlarmData(alarm), nil
}

// RaiseAutomatic 失联扫描触发的自动告警
// 去重由生命周期状态机在每用户锁内完成，已有 active 自动告警时返回已有的那条
func (s *AlarmService) RaiseAutomatic(ctx context.Context, user *model.User) (*model.Alarm, error) {
	message := "No check-in received within the configured interval"
	alarm, created, err := s.lifecycle.Raise(ctx, safety.RaiseParams{
		UserID:  user.ID,
		Type:    model.AlarmTypeAutomatic,
		Message: &message,
	})
	if err != nil {
		return nil, err
	}
	if alarm == nil {
		// 锁被其他触发方占用，本次放弃
		return nil, nil
	}

	// 查重命中已有告警时不重复计数、不重复写通知
	if created {
		metrics.GetMetrics().RecordAlarmRaised(ctx, string(alarm.Type))
		s.recordAlarmNotification(ctx, user.ID, alarm)
	}
	return alarm, nil
}

// Cancel 取消告警，只允许本人操作自己的 active 告警
func (s *AlarmService) Cancel(ctx context.Context, userID, alarmID string, req *dto.CancelAlarmRequest) (*dto.AlarmData, error) {
	alarm, err := s.loadOwnedAlarm(ctx, userID, alarmID)
	if err != nil {
		return nil, err
	}

	updated, err := s.lifecycle.Cancel(ctx, alarm, req.Reason)
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordAlarmClosed(ctx, string(updated.Status))
	return toAlarmData(updated), nil
}

// Resolve 解除告警，只允许本人操作自己的 active 告警
func (s *AlarmService) Resolve(ctx context.Context, userID, alarmID string) (*dto.AlarmData, error) {
	alarm, err := s.loadOwnedAlarm(ctx, userID, alarmID)
	if err != nil {
		return nil, err
	}

	updated, err := s.lifecycle.Resolve(ctx, alarm)
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordAlarmClosed(ctx, string(updated.Status))
	return toAlarmData(updated), nil
}

// History 告警历史，按创建时间倒序
func (s *AlarmService) History(ctx context.Context, userID string, query *dto.AlarmHistoryQuery) (*dto.AlarmHistoryData, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 || limit > defaultAlarmHistoryLimit {
		limit = defaultAlarmHistoryLimit
	}

	db := database.DB().WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("id DESC")

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Cursor != "" {
		cursorID, err := strconv.ParseInt(query.Cursor, 10, 64)
		if err != nil {
			return nil, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "invalid cursor"}
		}
		db = db.Where("id < ?", cursorID)
	}

	var alarms []model.Alarm
	if err := db.Limit(limit + 1).Find(&alarms).Error; err != nil {
		return nil, fmt.Errorf("failed to query alarm history: %w", err)
	}

	data := &dto.AlarmHistoryData{Items: make([]dto.AlarmData, 0, len(alarms))}
	hasMore := len(alarms) > limit
	if hasMore {
		alarms = alarms[:limit]
	}
	for i := range alarms {
		data.Items = append(data.Items, *toAlarmData(&alarms[i]))
	}
	if hasMore && len(alarms) > 0 {
		data.NextCursor = strconv.FormatInt(alarms[len(alarms)-1].ID, 10)
	}
	return data, nil
}

// loadOwnedAlarm 按 public_id 加载告警并校验归属
// 归属不符按不存在处理，不向调用方泄露他人告警
func (s *AlarmService) loadOwnedAlarm(ctx context.Context, userID, alarmID string) (*model.Alarm, error) {
	userPublicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	alarmPublicID, err := strconv.ParseInt(alarmID, 10, 64)
	if err != nil {
		return nil, pkgerrors.AlarmNotFound
	}

	user, err := getUserByPublicID(ctx, userPublicID)
	if err != nil {
		return nil, err
	}

	var alarm model.Alarm
	err = database.DB().WithContext(ctx).
		Where("public_id = ?", alarmPublicID).
		First(&alarm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.AlarmNotFound
		}
		return nil, fmt.Errorf("failed to query alarm: %w", err)
	}

	if alarm.UserID != user.ID {
		return nil, pkgerrors.AlarmNotFound
	}
	return &alarm, nil
}

// recordAlarmNotification 在通知中心落一条告警记录，失败只记日志
func (s *AlarmService) recordAlarmNotification(ctx context.Context, userID int64, alarm *model.Alarm) {
	notification := &model.Notification{
		UserID: userID,
		Title:  "🚨 Alarm tetiklendi",
		Body: fmt.Sprintf("%d kişiye bildirim gönderiliyor. Güvendeyseniz alarmı iptal edin.",
			len(alarm.NotifiedContacts)),
		Type: model.NotificationTypeAlarm,
	}
	if err := database.DB().WithContext(ctx).Create(notification).Error; err != nil {
		logger.Logger.Error("Failed to record alarm notification",
			zap.Int64("alarm_id", alarm.PublicID),
			zap.Error(err),
		)
	}
}

func toAlarmData(alarm *model.Alarm) *dto.AlarmData {
	data := &dto.AlarmData{
		AlarmID:          alarm.PublicID,
		Type:             string(alarm.Type),
		Status:           string(alarm.Status),
		Message:          alarm.Message,
		Latitude:         alarm.Latitude,
		Longitude:        alarm.Longitude,
		NotifiedContacts: make([]dto.NotifiedContactItem, 0, len(alarm.NotifiedContacts)),
		CreatedAt:        alarm.CreatedAt,
		CancelledAt:      alarm.CancelledAt,
		CancelReason:     alarm.CancelReason,
	}
	for _, nc := range alarm.NotifiedContacts {
		data.NotifiedContacts = append(data.NotifiedContacts, dto.NotifiedContactItem{
			ContactName: nc.ContactName,
			Channel:     nc.Channel,
		})
	}
	return data
}
