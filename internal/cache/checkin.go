package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"OldunMu/storage/redis"
)

const (
	checkinLastPrefix      = "checkin:last"
	sweepBatchPrefix       = "sweep:batch"
	messageProcessedPrefix = "message:processed"

	lastCheckinTTL = 72 * time.Hour
	sweepBatchTTL  = 1 * time.Hour
	processedTTL   = 48 * time.Hour
)

// lastCheckinEntry 最近打卡时间的缓存条目
type lastCheckinEntry struct {
	Timestamp time.Time `json:"timestamp"`
}

// GetLastCheckin 读取最近打卡时间缓存，未命中返回 nil
// 缓存只用于减轻扫描压力，读失败时调用方必须回源数据库
func GetLastCheckin(ctx context.Context, userID int64) (*time.Time, error) {
	key := redis.Key(checkinLastPrefix, fmt.Sprintf("%d", userID))

	raw, err := redis.Client().Get(ctx, key).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last checkin cache: %w", err)
	}

	var entry lastCheckinEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode last checkin cache: %w", err)
	}
	return &entry.Timestamp, nil
}

// SetLastCheckin 打卡成功后刷新最近打卡时间缓存
func SetLastCheckin(ctx context.Context, userID int64, timestamp time.Time) error {
	key := redis.Key(checkinLastPrefix, fmt.Sprintf("%d", userID))

	raw, err := json.Marshal(lastCheckinEntry{Timestamp: timestamp})
	if err != nil {
		return err
	}
	return redis.Client().Set(ctx, key, raw, lastCheckinTTL).Err()
}

// InvalidateLastCheckin 清除最近打卡时间缓存
func InvalidateLastCheckin(ctx context.Context, userID int64) error {
	key := redis.Key(checkinLastPrefix, fmt.Sprintf("%d", userID))
	return redis.Client().Del(ctx, key).Err()
}

// TryMarkSweepBatch 标记一个扫描批次已投放，防止调度器重启后重复下发
func TryMarkSweepBatch(ctx context.Context, batchID string) (bool, error) {
	key := redis.Key(sweepBatchPrefix, batchID)

	result, err := redis.Client().SetNX(ctx, key, "1", sweepBatchTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark sweep batch: %w", err)
	}
	return result, nil
}

// TryMarkMessageProcessing 尝试原子性地标记消息正在处理（使用 SETNX）
// 返回 true 表示成功标记（首次处理），false 表示已被标记（重复消息或正在处理）
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}

	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return result, nil
}

// MarkMessageProcessed 处理完成后延长标记 TTL，防止延迟重投造成重复处理
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, key, "done", ttl).Err()
}

// UnmarkMessageProcessing 取消消息处理标记（处理失败时调用，允许重试）
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	return redis.Client().Del(ctx, key).Err()
}
