package safety

import (
	"math"
	"time"

	"OldunMu/pkg/errors"
)

// State 失联严重度状态
type State string

const (
	StateSafe     State = "safe"
	StateWarning  State = "warning"
	StateCritical State = "critical"
	StateAlarm    State = "alarm"
)

// WarningThresholdHours 预警阈值是产品常量，不随用户配置变化
const WarningThresholdHours = 20.0

// Thresholds 升级阈值，warning 固定，critical/alarm 按用户配置
type Thresholds struct {
	Warning  float64
	Critical float64
	Alarm    float64
}

// Validate 校验阈值单调性，不满足时整体拒绝而不是截断修正
func (t Thresholds) Validate() error {
	if !(t.Warning < t.Critical && t.Critical < t.Alarm) {
		return errors.InvalidPolicyConfiguration
	}
	return nil
}

// StatusSnapshot 状态快照，按需推导，不落库
type StatusSnapshot struct {
	State          State
	ElapsedHours   *float64
	NextExpected   *time.Time
	RemainingHours float64
	StreakDays     int
}

// Round1 展示层保留一位小数，内部比较始终用全精度
func Round1(hours float64) float64 {
	return math.Round(hours*10) / 10
}

// Classify 失联状态分类，纯函数
// lastCheckin 为 nil（从未打卡）直接判为 alarm，缺省即最高严重度，
// 其余按半开区间从低到高匹配
func Classify(lastCheckin *time.Time, now time.Time, intervalHours float64, thresholds Thresholds) StatusSnapshot {
	if lastCheckin == nil {
		return StatusSnapshot{State: StateAlarm}
	}

	elapsed := now.Sub(*lastCheckin).Hours()
	nextExpected := lastCheckin.Add(time.Duration(intervalHours * float64(time.Hour)))
	remaining := math.Max(0, nextExpected.Sub(now).Hours())

	var state State
	switch {
	case elapsed < thresholds.Warning:
		state = StateSafe
	case elapsed < thresholds.Critical:
		state = StateWarning
	case elapsed < thresholds.Alarm:
		state = StateCritical
	default:
		state = StateAlarm
	}

	return StatusSnapshot{
		State:          state,
		ElapsedHours:   &elapsed,
		NextExpected:   &nextExpected,
		RemainingHours: remaining,
	}
}
