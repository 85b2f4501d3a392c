package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"OldunMu/internal/model"
)

func TestEffectiveDeadline(t *testing.T) {
	lastCheckin := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	user := &model.User{CheckinIntervalHours: 24}

	t.Run("without postpone deadline is checkin plus interval", func(t *testing.T) {
		deadline := effectiveDeadline(user, lastCheckin)
		assert.Equal(t, lastCheckin.Add(24*time.Hour), deadline)
	})

	t.Run("postpone extends deadline", func(t *testing.T) {
		postponed := lastCheckin.Add(30 * time.Hour)
		u := &model.User{CheckinIntervalHours: 24, PostponedUntil: &postponed}

		deadline := effectiveDeadline(u, lastCheckin)
		assert.Equal(t, postponed, deadline)
	})

	t.Run("stale postpone before natural deadline is ignored", func(t *testing.T) {
		// 新打卡后残留的旧推迟时间不能把截止时间往回拉
		postponed := lastCheckin.Add(2 * time.Hour)
		u := &model.User{CheckinIntervalHours: 24, PostponedUntil: &postponed}

		deadline := effectiveDeadline(u, lastCheckin)
		assert.Equal(t, lastCheckin.Add(24*time.Hour), deadline)
	})
}
