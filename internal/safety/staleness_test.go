package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OldunMu/pkg/errors"
)

func defaultThresholds() Thresholds {
	return Thresholds{Warning: 20, Critical: 44, Alarm: 48}
}

func TestClassifyNoCheckinIsAlarm(t *testing.T) {
	// 从未打卡按最高严重度处理，绝不默认安全
	snapshot := Classify(nil, time.Now(), 24, defaultThresholds())

	assert.Equal(t, StateAlarm, snapshot.State)
	assert.Nil(t, snapshot.ElapsedHours)
	assert.Nil(t, snapshot.NextExpected)
	assert.Equal(t, 0.0, snapshot.RemainingHours)
}

func TestClassifyBoundaries(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		elapsedHour float64
		want        State
	}{
		{"well within safe", 2, StateSafe},
		{"just below warning", 19, StateSafe},
		{"warning boundary inclusive", 20, StateWarning},
		{"mid warning", 30, StateWarning},
		{"just below critical", 43.9, StateWarning},
		{"critical boundary inclusive", 44, StateCritical},
		{"just below alarm", 47.9, StateCritical},
		{"alarm boundary inclusive", 48, StateAlarm},
		{"far past alarm", 500, StateAlarm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-time.Duration(tt.elapsedHour * float64(time.Hour)))
			snapshot := Classify(&last, now, 24, defaultThresholds())

			assert.Equal(t, tt.want, snapshot.State)
			require.NotNil(t, snapshot.ElapsedHours)
			assert.InDelta(t, tt.elapsedHour, *snapshot.ElapsedHours, 1e-9)
		})
	}
}

func TestClassifyRemainingHours(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("positive before deadline", func(t *testing.T) {
		last := now.Add(-10 * time.Hour)
		snapshot := Classify(&last, now, 24, defaultThresholds())

		assert.InDelta(t, 14, snapshot.RemainingHours, 1e-9)
		require.NotNil(t, snapshot.NextExpected)
		assert.Equal(t, last.Add(24*time.Hour), *snapshot.NextExpected)
	})

	t.Run("never negative past deadline", func(t *testing.T) {
		last := now.Add(-300 * time.Hour)
		snapshot := Classify(&last, now, 24, defaultThresholds())

		assert.Equal(t, 0.0, snapshot.RemainingHours)
	})
}

func TestClassifyFractionalPrecision(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	last := now.Add(-19*time.Hour - 59*time.Minute)

	snapshot := Classify(&last, now, 24, defaultThresholds())

	// 19h59m 仍在 safe 区间，内部比较不做取整
	assert.Equal(t, StateSafe, snapshot.State)
	assert.Equal(t, 20.0, Round1(*snapshot.ElapsedHours))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 19.9, Round1(19.94))
	assert.Equal(t, 20.0, Round1(19.96))
	assert.Equal(t, 0.0, Round1(0))
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name       string
		thresholds Thresholds
		wantErr    bool
	}{
		{"valid defaults", Thresholds{Warning: 20, Critical: 44, Alarm: 48}, false},
		{"warning equals critical", Thresholds{Warning: 44, Critical: 44, Alarm: 48}, true},
		{"critical above alarm", Thresholds{Warning: 20, Critical: 50, Alarm: 48}, true},
		{"critical equals alarm", Thresholds{Warning: 20, Critical: 48, Alarm: 48}, true},
		{"inverted ordering", Thresholds{Warning: 48, Critical: 44, Alarm: 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.thresholds.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.InvalidPolicyConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
