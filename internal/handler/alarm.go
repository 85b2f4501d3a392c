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

// TriggerPanicAlarm 紧急按钮
// POST /v1/alarms/panic
func TriggerPanicAlarm(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req dto.PanicAlarmRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Alarm().Panic(ctx, userID, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// CancelAlarm 取消告警
// POST /v1/alarms/:alarm_id/cancel
func CancelAlarm(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req dto.CancelAlarmRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Alarm().Cancel(ctx, userID, c.Param("alarm_id"), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ResolveAlarm 解除告警
// POST /v1/alarms/:alarm_id/resolve
func ResolveAlarm(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	result, err := service.Alarm().Resolve(ctx, userID, c.Param("alarm_id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetAlarmHistory 告警历史
// GET /v1/alarms/history
func GetAlarmHistory(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var query dto.AlarmHistoryQuery
	if err := c.Bind(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Alarm().History(ctx, userID, &query)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
