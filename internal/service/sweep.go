package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"OldunMu/config"
	"OldunMu/internal/model"
	"OldunMu/internal/safety"
	"OldunMu/pkg/logger"
	"OldunMu/pkg/metrics"
)

var (
	sweepSvc  *SweepSvc
	sweepOnce sync.Once
)

func Sweep() *SweepSvc {
	sweepOnce.Do(func() {
		sweepSvc = &SweepSvc{}
	})
	return sweepSvc
}

// SweepSvc 失联扫描，对一批用户做状态分类并触发自动告警
type SweepSvc struct{}

// ProcessSweepBatch 处理一个扫描批次
// 用户之间互不影响，单个用户的失败只记录；整批全部失败才返回错误触发重投
func (s *SweepSvc) ProcessSweepBatch(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	start := time.Now()
	workers := config.Cfg.SweepWorkerCount
	if workers <= 0 {
		workers = 1
	}
	if workers > len(userIDs) {
		workers = len(userIDs)
	}

	jobs := make(chan int64)
	var wg sync.WaitGroup
	var failed int64
	var failedMu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				if err := s.sweepUser(ctx, userID); err != nil {
					logger.Logger.Error("Failed to sweep user",
						zap.Int64("user_id", userID),
						zap.Error(err),
					)
					failedMu.Lock()
					failed++
					failedMu.Unlock()
				}
			}
		}()
	}

	for _, id := range userIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(start).Seconds()
	metrics.GetMetrics().RecordSweep(ctx, len(userIDs), duration)

	logger.Logger.Info("Staleness sweep batch processed",
		zap.Int("user_count", len(userIDs)),
		zap.Int64("failed", failed),
		zap.Float64("duration_seconds", duration),
	)

	if failed == int64(len(userIDs)) {
		return fmt.Errorf("sweep batch failed for all %d users", len(userIDs))
	}
	return nil
}

// sweepUser 单个用户的失联判定
// 打卡历史读不到时按"从未打卡"处理，偏向误报而不是漏报
func (s *SweepSvc) sweepUser(ctx context.Context, userID int64) error {
	user, err := getUserByInternalID(ctx, userID)
	if err != nil {
		return err
	}

	lastCheckin := Checkin().lastCheckinTime(ctx, user.ID)

	intervalHours := float64(user.CheckinIntervalHours)
	if lastCheckin != nil {
		intervalHours = effectiveDeadline(user, *lastCheckin).Sub(*lastCheckin).Hours()
	}

	snapshot := safety.Classify(lastCheckin, time.Now().UTC(), intervalHours, userThresholds(user))
	if snapshot.State != safety.StateAlarm {
		return nil
	}

	alarm, err := Alarm().RaiseAutomatic(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to raise automatic alarm: %w", err)
	}
	if alarm != nil && alarm.Type == model.AlarmTypeAutomatic {
		logger.Logger.Info("Automatic alarm active for stale user",
			zap.Int64("user_id", user.PublicID),
			zap.Int64("alarm_id", alarm.PublicID),
		)
	}
	return nil
}
