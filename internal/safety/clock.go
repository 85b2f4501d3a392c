package safety

import "time"

// Clock 时钟接口，便于测试时注入固定时间
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock 真实时钟，统一返回 UTC
func SystemClock() Clock {
	return systemClock{}
}
