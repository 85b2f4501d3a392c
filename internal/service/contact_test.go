package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OldunMu/config"
	"OldunMu/internal/model"
)

func TestMaxContactsForTier(t *testing.T) {
	assert.Equal(t, config.Cfg.FreeTierMaxContacts, maxContactsForTier(model.SubscriptionTierFree))
	assert.Equal(t, config.Cfg.PremiumTierMaxContacts, maxContactsForTier(model.SubscriptionTierPremium))

	// 未知档位按免费档处理
	assert.Equal(t, config.Cfg.FreeTierMaxContacts, maxContactsForTier(model.SubscriptionTier("unknown")))
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := generateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	// 20 次全部撞车的概率可以忽略
	assert.Greater(t, len(seen), 1)
}
