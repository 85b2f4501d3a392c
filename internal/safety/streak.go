package safety

import "time"

// DefaultStreakHistoryLimit 连续打卡计算的历史条数上限，调用方查询时按此截断
const DefaultStreakHistoryLimit = 100

// dateOf 取 UTC 日历日，连续性按日历日判断而不是按 24 小时间隔
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween 两个日历日之间的天数差
func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

// ComputeStreak 计算截至 asOf 的连续打卡天数
// history 必须按时间倒序（最新在前），同一天多次打卡只算一天，
// 相邻打卡日之间隔超过一个日历日即中断，空历史返回 0
func ComputeStreak(history []time.Time, asOf time.Time) int {
	streak := 0
	cursor := dateOf(asOf)

	for _, ts := range history {
		day := dateOf(ts)
		gap := daysBetween(cursor, day)
		if gap == 0 && streak > 0 {
			// 同一天的重复打卡，不重复计数
			continue
		}
		if gap > 1 {
			break
		}
		streak++
		cursor = day
	}

	return streak
}
