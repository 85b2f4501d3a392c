package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"OldunMu/internal/handler"
	"OldunMu/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	// 认证相关路由
	auth := v1.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware()) // 认证接口限流
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/token/refresh", handler.RefreshToken)
	}

	// 用户相关路由
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/me", handler.GetUserProfile)
		users.GET("/me/settings", handler.GetUserSettings)
		users.PUT("/me/settings", middleware.UserSettingsRateLimitMiddleware(), handler.UpdateUserSettings)
		users.DELETE("/me", handler.DeleteUser)
	}

	// 平安打卡路由
	checkIns := v1.Group("/check-ins")
	checkIns.Use(middleware.AuthMiddleware())
	{
		checkIns.POST("", handler.CreateCheckin)
		checkIns.GET("/status", handler.GetCheckinStatus)
		checkIns.GET("/history", handler.GetCheckinHistory)
		checkIns.POST("/postpone", middleware.PostponeRateLimitMiddleware(), handler.PostponeCheckin)
	}

	// 告警路由
	alarms := v1.Group("/alarms")
	alarms.Use(middleware.AuthMiddleware())
	{
		alarms.POST("/panic", handler.TriggerPanicAlarm)
		alarms.POST("/:alarm_id/cancel", handler.CancelAlarm)
		alarms.POST("/:alarm_id/resolve", handler.ResolveAlarm)
		alarms.GET("/history", handler.GetAlarmHistory)
	}

	// 紧急联系人路由
	contacts := v1.Group("/contacts")
	contacts.Use(middleware.AuthMiddleware())
	{
		contacts.GET("", handler.ListContacts)
		contacts.POST("", handler.CreateContact)
		contacts.PATCH("/:contact_id", handler.UpdateContact)
		contacts.DELETE("/:contact_id", handler.DeleteContact)
		contacts.POST("/:contact_id/verify", middleware.ContactVerifyRateLimitMiddleware(), handler.VerifyContact)
	}

	// 通知中心路由
	notifications := v1.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", handler.ListNotifications)
		notifications.POST("/:notification_id/read", handler.MarkNotificationRead)
		notifications.POST("/read-all", handler.MarkAllNotificationsRead)
	}
}
