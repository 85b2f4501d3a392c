package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"OldunMu/config"
	"OldunMu/internal/cache"
	"OldunMu/internal/model"
	"OldunMu/internal/model/dto"
	"OldunMu/internal/safety"
	pkgerrors "OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
	"OldunMu/storage/database"
	"OldunMu/utils"
)

// api 中对外的 user_id 都是 public_id

var (
	userService *UserService
	userOnce    sync.Once
)

func User() *UserService {
	userOnce.Do(func() {
		userService = &UserService{}
	})
	return userService
}

type UserService struct{}

// parsePublicID 把路由层的字符串 ID 转成 int64
func parsePublicID(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, pkgerrors.InvalidUserID
	}
	return id, nil
}

// getUserByPublicID 按 public_id 查用户，供各 service 共用
func getUserByPublicID(ctx context.Context, publicID int64) (*model.User, error) {
	var user model.User
	err := database.DB().WithContext(ctx).Where("public_id = ?", publicID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.UserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// userThresholds 用户生效的阈值，critical/alarm 允许按用户覆盖
// warning 是产品常量，不暴露给用户设置
func userThresholds(user *model.User) safety.Thresholds {
	th := safety.Thresholds{
		Warning:  config.Cfg.WarningThresholdHours,
		Critical: config.Cfg.CriticalThresholdHours,
		Alarm:    config.Cfg.AlarmThresholdHours,
	}
	if user.CriticalThresholdHours != nil {
		th.Critical = *user.CriticalThresholdHours
	}
	if user.AlarmThresholdHours != nil {
		th.Alarm = *user.AlarmThresholdHours
	}
	return th
}

// GetProfile 获取用户资料，设置部分走受保护缓存
func (s *UserService) GetProfile(ctx context.Context, userID string) (*dto.UserProfileData, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	var phoneMasked string
	if len(user.PhoneCipher) > 0 {
		phone, err := utils.DecryptPhone(user.PhoneCipher)
		if err != nil {
			logger.Logger.Error("Failed to decrypt user phone",
				zap.Int64("user_id", user.PublicID),
				zap.Error(err),
			)
		} else {
			phoneMasked = utils.MaskPhone(phone)
		}
	}

	return &dto.UserProfileData{
		ID:               userID,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Phone:            dto.PhoneInfo{NumberMasked: phoneMasked, Verified: user.PhoneVerified},
		SubscriptionTier: string(user.SubscriptionTier),
		EmailVerified:    user.EmailVerified,
		Settings:         s.settingsDTO(user),
	}, nil
}

// GetSettings 获取打卡策略设置，优先读缓存
func (s *UserService) GetSettings(ctx context.Context, userID string) (*dto.UserSettingsDTO, error) {
	var cached dto.UserSettingsDTO
	hit, err := cache.UserSettingsProtectedCache.Get(ctx, userID, &cached)
	if err != nil {
		logger.Logger.Warn("Failed to read settings cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
	if hit {
		return &cached, nil
	}

	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	settings := s.settingsDTO(user)
	if err := cache.UserSettingsProtectedCache.Set(ctx, userID, settings); err != nil {
		logger.Logger.Warn("Failed to write settings cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
	return &settings, nil
}

// UpdateSettings 更新打卡策略
// 阈值必须满足 warning < critical < alarm，不满足整体拒绝，不做截断修正
func (s *UserService) UpdateSettings(ctx context.Context, userID string, req *dto.UpdateUserSettingsRequest) (*dto.UserSettingsDTO, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if req.CheckinIntervalHours != nil {
		if *req.CheckinIntervalHours <= 0 {
			return nil, pkgerrors.InvalidPolicyConfiguration
		}
		user.CheckinIntervalHours = *req.CheckinIntervalHours
	}
	if req.CriticalThresholdHours != nil {
		user.CriticalThresholdHours = req.CriticalThresholdHours
	}
	if req.AlarmThresholdHours != nil {
		user.AlarmThresholdHours = req.AlarmThresholdHours
	}
	if req.LocationSharing != nil {
		user.LocationSharing = *req.LocationSharing
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}

	// 先校验合并后的完整配置，再落库
	if err := userThresholds(user).Validate(); err != nil {
		return nil, err
	}

	if err := database.DB().WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user settings: %w", err)
	}

	if err := cache.UserSettingsProtectedCache.Delete(ctx, userID); err != nil {
		logger.Logger.Warn("Failed to invalidate settings cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("User settings updated",
		zap.Int64("user_id", user.PublicID),
	)

	settings := s.settingsDTO(user)
	return &settings, nil
}

// EraseUser 删除账号及其全部数据
// 从属数据和账号在同一个事务中删除，先删从属再删所有者
func (s *UserService) EraseUser(ctx context.Context, userID string) error {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return err
	}

	err = database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.DeliveryAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Alarm{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.EmergencyContact{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.CheckinRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return fmt.Errorf("failed to erase user: %w", err)
	}

	if err := cache.UserSettingsProtectedCache.Delete(ctx, userID); err != nil {
		logger.Logger.Warn("Failed to invalidate settings cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
	if err := cache.InvalidateLastCheckin(ctx, user.ID); err != nil {
		logger.Logger.Warn("Failed to invalidate last checkin cache",
			zap.Int64("user_id", user.PublicID),
			zap.Error(err),
		)
	}
	if err := cache.DeleteRefreshToken(ctx, userID); err != nil {
		logger.Logger.Warn("Failed to delete refresh token",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	logger.Logger.Info("User erased",
		zap.Int64("user_id", user.PublicID),
	)
	return nil
}

func (s *UserService) settingsDTO(user *model.User) dto.UserSettingsDTO {
	return dto.UserSettingsDTO{
		CheckinIntervalHours:   user.CheckinIntervalHours,
		CriticalThresholdHours: user.CriticalThresholdHours,
		AlarmThresholdHours:    user.AlarmThresholdHours,
		LocationSharing:        user.LocationSharing,
		Timezone:               user.Timezone,
	}
}
