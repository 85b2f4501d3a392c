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
	pkgerrors "OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
	"OldunMu/pkg/snowflake"
	"OldunMu/pkg/token"
	"OldunMu/storage/database"
	"OldunMu/utils"
)

var (
	authService *AuthService
	authOnce    sync.Once
)

func Auth() *AuthService {
	authOnce.Do(func() {
		authService = &AuthService{}
	})
	return authService
}

type AuthService struct{}

// Register 注册新用户
// 手机号可选，提供时加密存储并记录哈希用于唯一性检查
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	db := database.DB().WithContext(ctx)

	if err := utils.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "Password must be at least 8 characters"}
	}

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if count > 0 {
		return nil, pkgerrors.EmailAlreadyRegistered
	}

	user := &model.User{
		Email:                req.Email,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		SubscriptionTier:     model.SubscriptionTierFree,
		CheckinIntervalHours: config.Cfg.DefaultCheckinIntervalHours,
		LocationSharing:      true,
		Timezone:             "Europe/Istanbul",
	}

	if req.Phone != "" {
		if err := utils.ValidatePhone(req.Phone); err != nil {
			return nil, err
		}

		phoneHash := utils.HashPhone(req.Phone)
		if err := db.Model(&model.User{}).Where("phone_hash = ?", phoneHash).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check phone uniqueness: %w", err)
		}
		if count > 0 {
			return nil, pkgerrors.PhoneAlreadyRegistered
		}

		cipher, err := utils.EncryptPhone(req.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt phone: %w", err)
		}
		user.PhoneCipher = cipher
		user.PhoneHash = &phoneHash
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = passwordHash

	publicID, err := snowflake.NextID(snowflake.GeneratorTypeUser)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}
	user.PublicID = publicID

	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Logger.Info("User registered",
		zap.Int64("user_id", user.PublicID),
	)

	return s.issueTokens(ctx, user, true)
}

// Login 邮箱加密码登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	db := database.DB().WithContext(ctx)

	var user model.User
	err := db.Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 不区分"用户不存在"和"密码错误"，避免枚举邮箱
			return nil, pkgerrors.InvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return nil, pkgerrors.InvalidCredentials
	}

	return s.issueTokens(ctx, &user, false)
}

// RefreshToken 用 refresh token 换取新的 token 对
func (s *AuthService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.AuthResponse, error) {
	userID, err := token.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, pkgerrors.Unauthorized
	}

	// refresh token 必须仍然是 Redis 中登记的那一个，登出即失效
	if !cache.ValidateRefreshTokenExists(ctx, userID, req.RefreshToken) {
		return nil, pkgerrors.Unauthorized
	}

	publicID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, pkgerrors.InvalidUserID
	}

	var user model.User
	err = database.DB().WithContext(ctx).Where("public_id = ?", publicID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.UserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return s.issueTokens(ctx, &user, false)
}

// issueTokens 签发 token 对并把 refresh token 登记到 Redis
func (s *AuthService) issueTokens(ctx context.Context, user *model.User, isNewUser bool) (*dto.AuthResponse, error) {
	userID := strconv.FormatInt(user.PublicID, 10)

	accessToken, refreshToken, expiresIn, err := token.GenerateTokenPair(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	if err := cache.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		logger.Logger.Error("Failed to store refresh token",
			zap.Int64("user_id", user.PublicID),
			zap.Error(err),
		)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User: dto.AuthUserSnapshot{
			ID:               userID,
			Email:            user.Email,
			FirstName:        user.FirstName,
			LastName:         user.LastName,
			SubscriptionTier: string(user.SubscriptionTier),
			EmailVerified:    user.EmailVerified,
			PhoneVerified:    user.PhoneVerified,
			IsNewUser:        isNewUser,
		},
	}, nil
}
