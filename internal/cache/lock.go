package cache

import (
	"context"
	"fmt"
	"time"

	"OldunMu/storage/redis"
)

// 基于 SetNX 的分布式锁，用来串行化同一用户的告警触发路径
const (
	lockPrefix   = "lock"
	alarmLockTTL = 30 * time.Second
)

func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullkey := redis.Key(lockPrefix, key)

	result, err := redis.Client().SetNX(ctx, fullkey, 1, ttl).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

func Unlock(ctx context.Context, key string) error {
	fullkey := redis.Key(lockPrefix, key)

	return redis.Client().Del(ctx, fullkey).Err()
}

// TryAlarmRaiseLock 获取某个用户的告警触发锁
// 自动告警的查重加创建必须在这把锁内完成，避免并发扫描产生重复告警
func TryAlarmRaiseLock(ctx context.Context, userID int64) (bool, error) {
	return TryLock(ctx, fmt.Sprintf("alarm:raise:%d", userID), alarmLockTTL)
}

// ReleaseAlarmRaiseLock 释放告警触发锁
func ReleaseAlarmRaiseLock(ctx context.Context, userID int64) error {
	return Unlock(ctx, fmt.Sprintf("alarm:raise:%d", userID))
}
