package schedule

// 失联扫描调度器：周期性把全量用户切成批次，经延迟队列下发给 worker 分类

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"OldunMu/config"
	"OldunMu/internal/cache"
	"OldunMu/internal/model"
	"OldunMu/internal/queue"
	"OldunMu/pkg/logger"
	"OldunMu/storage/database"
)

const (
	// 单批用户数，批次之间错开下发避免 worker 瞬时洪峰
	sweepBatchSize    = 500
	sweepBatchStagger = 5 * time.Second
)

var (
	sweeperOnce sync.Once
	sweeperInst *StalenessSweeper
)

type StalenessSweeper struct {
	logger       *zap.Logger
	running      bool
	runningMu    sync.Mutex
	lastSweepRun time.Time
}

func GetSweeper() *StalenessSweeper {
	sweeperOnce.Do(func() {
		sweeperInst = &StalenessSweeper{
			logger: logger.Logger,
		}
	})
	return sweeperInst
}

// Start 按配置的周期循环触发扫描，直到 ctx 取消
func (s *StalenessSweeper) Start(ctx context.Context) {
	interval := time.Duration(config.Cfg.SweepIntervalMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Staleness sweeper started",
		zap.Duration("interval", interval),
	)

	// 启动时先跑一轮，不等第一个 tick
	if err := s.RunSweep(ctx); err != nil {
		s.logger.Error("Initial sweep run failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Staleness sweeper stopped")
			return
		case <-ticker.C:
			if err := s.RunSweep(ctx); err != nil {
				s.logger.Error("Sweep run failed", zap.Error(err))
			}
		}
	}
}

// RunSweep 跑一轮全量扫描调度
// 上一轮还没跑完时直接跳过，不允许重叠
func (s *StalenessSweeper) RunSweep(ctx context.Context) error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		s.logger.Info("Sweep run already in progress, skipping")
		return nil
	}
	s.running = true
	s.runningMu.Unlock()

	defer func() {
		s.runningMu.Lock()
		s.running = false
		s.runningMu.Unlock()
	}()

	startTime := time.Now()
	s.lastSweepRun = startTime

	// 窗口标识让调度器重启后同一窗口的批次不会重复下发
	window := startTime.UTC().Truncate(time.Duration(config.Cfg.SweepIntervalMinutes) * time.Minute).
		Format("20060102T150405")

	var (
		cursor     int64
		batchIndex int
		scheduled  int
	)

	for {
		var userIDs []int64
		err := database.DB().WithContext(ctx).
			Model(&model.User{}).
			Where("id > ?", cursor).
			Order("id ASC").
			Limit(sweepBatchSize).
			Pluck("id", &userIDs).Error
		if err != nil {
			return fmt.Errorf("failed to list users for sweep: %w", err)
		}
		if len(userIDs) == 0 {
			break
		}
		cursor = userIDs[len(userIDs)-1]

		batchID := fmt.Sprintf("%s:%d", window, batchIndex)
		marked, err := cache.TryMarkSweepBatch(ctx, batchID)
		if err != nil {
			s.logger.Warn("Failed to mark sweep batch, publishing anyway",
				zap.String("batch_id", batchID),
				zap.Error(err),
			)
		} else if !marked {
			s.logger.Info("Sweep batch already scheduled in this window, skipping",
				zap.String("batch_id", batchID),
			)
			batchIndex++
			continue
		}

		delay := time.Duration(batchIndex) * sweepBatchStagger
		err = queue.PublishStalenessSweep(ctx, model.StalenessSweepMessage{
			BatchID:      batchID,
			UserIDs:      userIDs,
			DelaySeconds: int(delay.Seconds()),
		})
		if err != nil {
			return fmt.Errorf("failed to publish sweep batch %s: %w", batchID, err)
		}

		scheduled += len(userIDs)
		batchIndex++

		if len(userIDs) < sweepBatchSize {
			break
		}
	}

	s.logger.Info("Sweep run scheduled",
		zap.Int("batches", batchIndex),
		zap.Int("users", scheduled),
		zap.Duration("took", time.Since(startTime)),
	)
	return nil
}
