package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gorm.io/gorm"

	"OldunMu/internal/model"
	"OldunMu/internal/model/dto"
	pkgerrors "OldunMu/pkg/errors"
	"OldunMu/storage/database"
)

var (
	notificationService *NotificationService
	notificationOnce    sync.Once
)

func Notification() *NotificationService {
	notificationOnce.Do(func() {
		notificationService = &NotificationService{}
	})
	return notificationService
}

type NotificationService struct{}

const defaultNotificationLimit = 20

// List 通知中心列表，附带未读数
func (s *NotificationService) List(ctx context.Context, userID string, query *dto.NotificationListQuery) (*dto.NotificationListData, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	db := database.DB().WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("id DESC")
	if query.UnreadOnly {
		db = db.Where("read = ?", false)
	}
	if query.Cursor != "" {
		cursorID, err := strconv.ParseInt(query.Cursor, 10, 64)
		if err != nil {
			return nil, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "invalid cursor"}
		}
		db = db.Where("id < ?", cursorID)
	}

	var rows []model.Notification
	if err := db.Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	var unread int64
	err = database.DB().WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Count(&unread).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	data := &dto.NotificationListData{
		Items:       make([]dto.NotificationItem, 0, len(rows)),
		UnreadCount: unread,
	}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, n := range rows {
		data.Items = append(data.Items, dto.NotificationItem{
			NotificationID: n.ID,
			Title:          n.Title,
			Body:           n.Body,
			Type:           string(n.Type),
			Read:           n.Read,
			CreatedAt:      n.CreatedAt,
		})
	}
	if hasMore && len(rows) > 0 {
		data.NextCursor = strconv.FormatInt(rows[len(rows)-1].ID, 10)
	}
	return data, nil
}

// MarkRead 标记单条通知已读
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(notificationID, 10, 64)
	if err != nil {
		return pkgerrors.NotificationNotFound
	}

	var notification model.Notification
	err = database.DB().WithContext(ctx).First(&notification, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotificationNotFound
		}
		return fmt.Errorf("failed to query notification: %w", err)
	}
	if notification.UserID != user.ID {
		return pkgerrors.NotificationNotFound
	}

	return database.DB().WithContext(ctx).
		Model(&notification).
		Update("read", true).Error
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return err
	}

	return database.DB().WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Update("read", true).Error
}
