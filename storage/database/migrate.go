package database

import (
	"go.uber.org/zap"

	"OldunMu/internal/model"
	"OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
)

// Migrate 自动迁移全部业务表
func Migrate() error {
	if db == nil {
		return errors.ErrDatabaseConnectionNil
	}

	err := db.AutoMigrate(
		&model.User{},
		&model.CheckinRecord{},
		&model.EmergencyContact{},
		&model.Alarm{},
		&model.Notification{},
		&model.DeliveryAttempt{},
	)
	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed")
	return nil
}
