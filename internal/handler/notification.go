package handler

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"

	"OldunMu/internal/middleware"
	"OldunMu/internal/model/dto"
	"OldunMu/internal/service"
	"OldunMu/pkg/response"
)

// ListNotifications 通知中心列表
// GET /v1/notifications
func ListNotifications(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var query dto.NotificationListQuery
	if err := c.Bind(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Notification().List(ctx, userID, &query)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// MarkNotificationRead 标记通知已读
// POST /v1/notifications/:notification_id/read
func MarkNotificationRead(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	if err := service.Notification().MarkRead(ctx, userID, c.Param("notification_id")); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

// MarkAllNotificationsRead 全部标记已读
// POST /v1/notifications/read-all
func MarkAllNotificationsRead(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	if err := service.Notification().MarkAllRead(ctx, userID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}
