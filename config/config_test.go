package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 这个测试能跑起来本身就说明导入 config 包不需要任何密钥

func TestDefaultsLoadWithoutSecrets(t *testing.T) {
	assert.Greater(t, Cfg.DefaultCheckinIntervalHours, 0)
	assert.Less(t, Cfg.WarningThresholdHours, Cfg.CriticalThresholdHours)
	assert.Less(t, Cfg.CriticalThresholdHours, Cfg.AlarmThresholdHours)
}

func TestValidateRequiresSecrets(t *testing.T) {
	saved := Cfg
	defer func() { Cfg = saved }()

	Cfg.JWTSecret = ""
	Cfg.EncryptionKey = strings.Repeat("k", 32)
	assert.ErrorContains(t, validate(), "JWT_SECRET")

	Cfg.JWTSecret = "secret"
	Cfg.EncryptionKey = ""
	assert.ErrorContains(t, validate(), "ENCRYPTION_KEY")

	Cfg.EncryptionKey = "too-short"
	assert.ErrorContains(t, validate(), "32 bytes")

	Cfg.EncryptionKey = strings.Repeat("k", 32)
	assert.NoError(t, validate())
}

func TestValidateRejectsNonMonotonicThresholds(t *testing.T) {
	saved := Cfg
	defer func() { Cfg = saved }()

	Cfg.JWTSecret = "secret"
	Cfg.EncryptionKey = strings.Repeat("k", 32)
	Cfg.WarningThresholdHours = 48
	Cfg.CriticalThresholdHours = 44
	Cfg.AlarmThresholdHours = 20
	assert.ErrorContains(t, validate(), "warning < critical < alarm")
}
