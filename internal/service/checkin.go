package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"OldunMu/internal/cache"
	"OldunMu/internal/model"
	"OldunMu/internal/model/dto"
	"OldunMu/internal/safety"
	pkgerrors "OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
	"OldunMu/pkg/metrics"
	"OldunMu/storage/database"
	"OldunMu/utils"
)

var (
	checkinService *CheckinService
	checkinOnce    sync.Once
)

func Checkin() *CheckinService {
	checkinOnce.Do(func() {
		checkinService = &CheckinService{}
	})
	return checkinService
}

type CheckinService struct{}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	// 单次最多推迟 12 小时，推迟不能无限架空失联判定
	maxPostponeHours = 12.0
)

// effectiveDeadline 用户当前生效的打卡截止时间
// 推迟过的截止时间只在晚于常规截止时间时生效
func effectiveDeadline(user *model.User, lastCheckin time.Time) time.Time {
	deadline := lastCheckin.Add(time.Duration(user.CheckinIntervalHours) * time.Hour)
	if user.PostponedUntil != nil && user.PostponedUntil.After(deadline) {
		deadline = *user.PostponedUntil
	}
	return deadline
}

// Create 创建平安打卡
func (s *CheckinService) Create(ctx context.Context, userID string, req *dto.CreateCheckinRequest) (*dto.CreateCheckinResponse, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if req.Latitude != nil || req.Longitude != nil {
		// 经纬度要么都给要么都不给
		if req.Latitude == nil || req.Longitude == nil {
			return nil, pkgerrors.InvalidLocation
		}
		if err := utils.ValidateLocation(*req.Latitude, *req.Longitude); err != nil {
			return nil, err
		}
	}

	if req.Note != nil && len(*req.Note) > model.MaxNoteLength {
		return nil, pkgerrors.NoteTooLong
	}

	var mood *model.Mood
	if req.Mood != nil {
		parsed, err := model.ParseMood(*req.Mood)
		if err != nil {
			return nil, err
		}
		mood = &parsed
	}

	now := time.Now().UTC()
	record := &model.CheckinRecord{
		UserID:    user.ID,
		Timestamp: now,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
		Note:      req.Note,
		Mood:      mood,
	}

	db := database.DB().WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		// 新的打卡让之前的推迟失效
		if user.PostponedUntil != nil {
			if err := tx.Model(user).Update("postponed_until", nil).Error; err != nil {
				return err
			}
			user.PostponedUntil = nil
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkin: %w", err)
	}

	if err := cache.SetLastCheckin(ctx, user.ID, now); err != nil {
		logger.Logger.Warn("Failed to refresh last checkin cache",
			zap.Int64("user_id", user.PublicID),
			zap.Error(err),
		)
	}

	metrics.GetMetrics().RecordCheckin(ctx)

	streak, err := s.computeStreak(ctx, user.ID, now)
	if err != nil {
		logger.Logger.Error("Failed to compute streak",
			zap.Int64("user_id", user.PublicID),
			zap.Error(err),
		)
		streak = 0
	}

	logger.Logger.Info("Checkin created",
		zap.Int64("user_id", user.PublicID),
		zap.Int64("checkin_id", record.ID),
		zap.Int("streak_days", streak),
	)

	return &dto.CreateCheckinResponse{
		CheckinID:    record.ID,
		Timestamp:    now,
		StreakDays:   streak,
		NextDeadline: now.Add(time.Duration(user.CheckinIntervalHours) * time.Hour),
	}, nil
}

// Status 打卡状态查询
// 历史不可读时按"从未打卡"处理，宁可误报也不漏报
func (s *CheckinService) Status(ctx context.Context, userID string) (*dto.CheckinStatusData, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lastCheckin := s.lastCheckinTime(ctx, user.ID)

	intervalHours := float64(user.CheckinIntervalHours)
	if lastCheckin != nil {
		intervalHours = effectiveDeadline(user, *lastCheckin).Sub(*lastCheckin).Hours()
	}

	snapshot := safety.Classify(lastCheckin, now, intervalHours, userThresholds(user))

	streak := 0
	if lastCheckin != nil {
		streak, err = s.computeStreak(ctx, user.ID, now)
		if err != nil {
			logger.Logger.Error("Failed to compute streak",
				zap.Int64("user_id", user.PublicID),
				zap.Error(err),
			)
			streak = 0
		}
	}

	data := &dto.CheckinStatusData{
		Status:                string(snapshot.State),
		LastCheckinAt:         lastCheckin,
		ElapsedHours:          snapshot.ElapsedHours,
		NextDeadline:          snapshot.NextExpected,
		RemainingHours:        snapshot.RemainingHours,
		RemainingHoursDisplay: safety.Round1(snapshot.RemainingHours),
		StreakDays:            streak,
	}
	if snapshot.ElapsedHours != nil {
		display := safety.Round1(*snapshot.ElapsedHours)
		data.ElapsedHoursDisplay = &display
	}
	return data, nil
}

// History 打卡历史，游标分页，可选时间范围过滤
func (s *CheckinService) History(ctx context.Context, userID string, query *dto.CheckinHistoryQuery) (*dto.CheckinHistoryData, error) {
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
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	db := database.DB().WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("timestamp DESC, id DESC")

	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			return nil, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "from must be RFC3339"}
		}
		db = db.Where("timestamp >= ?", from)
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			return nil, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "to must be RFC3339"}
		}
		db = db.Where("timestamp <= ?", to)
	}
	if query.Cursor != "" {
		cursorID, err := strconv.ParseInt(query.Cursor, 10, 64)
		if err != nil {
			return nil, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "invalid cursor"}
		}
		db = db.Where("id < ?", cursorID)
	}

	var records []model.CheckinRecord
	// 多取一条判断是否还有下一页
	if err := db.Limit(limit + 1).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query checkin history: %w", err)
	}

	data := &dto.CheckinHistoryData{Items: make([]dto.CheckinItem, 0, len(records))}
	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	for _, r := range records {
		item := dto.CheckinItem{
			CheckinID: r.ID,
			Timestamp: r.Timestamp,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Address:   r.Address,
			Note:      r.Note,
		}
		if r.Mood != nil {
			mood := string(*r.Mood)
			item.Mood = &mood
		}
		data.Items = append(data.Items, item)
	}
	if hasMore && len(records) > 0 {
		data.NextCursor = strconv.FormatInt(records[len(records)-1].ID, 10)
	}
	return data, nil
}

// Postpone 在当前截止时间上追加若干小时
func (s *CheckinService) Postpone(ctx context.Context, userID string, req *dto.PostponeRequest) (*dto.PostponeResponse, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	if req.Hours <= 0 || req.Hours > maxPostponeHours {
		return nil, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "Postpone hours must be in (0, 12]"}
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	lastCheckin, err := s.latestCheckinFromDB(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if lastCheckin == nil {
		return nil, pkgerrors.NoCheckinYet
	}

	newDeadline := effectiveDeadline(user, *lastCheckin).
		Add(time.Duration(req.Hours * float64(time.Hour)))

	if err := database.DB().WithContext(ctx).
		Model(user).Update("postponed_until", newDeadline).Error; err != nil {
		return nil, fmt.Errorf("failed to postpone deadline: %w", err)
	}

	logger.Logger.Info("Checkin deadline postponed",
		zap.Int64("user_id", user.PublicID),
		zap.Float64("hours", req.Hours),
		zap.Time("next_deadline", newDeadline),
	)

	return &dto.PostponeResponse{NextDeadline: newDeadline}, nil
}

// lastCheckinTime 最近打卡时间，缓存优先，读不到回源数据库
// 数据库也不可用时返回 nil，分类器会按最高严重级别处理
func (s *CheckinService) lastCheckinTime(ctx context.Context, userID int64) *time.Time {
	cached, err := cache.GetLastCheckin(ctx, userID)
	if err != nil {
		logger.Logger.Warn("Failed to read last checkin cache",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	if cached != nil {
		return cached
	}

	last, err := s.latestCheckinFromDB(ctx, userID)
	if err != nil {
		logger.Logger.Error("Failed to load last checkin, treating as never checked in",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	return last
}

func (s *CheckinService) latestCheckinFromDB(ctx context.Context, userID int64) (*time.Time, error) {
	var record model.CheckinRecord
	err := database.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest checkin: %w", err)
	}
	return &record.Timestamp, nil
}

// computeStreak 拉取最近的打卡时间序列计算连续天数
func (s *CheckinService) computeStreak(ctx context.Context, userID int64, asOf time.Time) (int, error) {
	var timestamps []time.Time
	err := database.DB().WithContext(ctx).
		Model(&model.CheckinRecord{}).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(safety.DefaultStreakHistoryLimit).
		Pluck("timestamp", &timestamps).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load checkin history: %w", err)
	}
	return safety.ComputeStreak(timestamps, asOf), nil
}
