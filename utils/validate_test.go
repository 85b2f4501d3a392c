package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OldunMu/pkg/errors"
)

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+905321234567"))
	assert.NoError(t, ValidatePhone("+14155552671"))

	assert.ErrorIs(t, ValidatePhone("05321234567"), errors.InvalidPhoneNumber)
	assert.ErrorIs(t, ValidatePhone("+0532123456"), errors.InvalidPhoneNumber)
	assert.ErrorIs(t, ValidatePhone("+90 532 123 45 67"), errors.InvalidPhoneNumber)
	assert.ErrorIs(t, ValidatePhone(""), errors.InvalidPhoneNumber)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ayse@example.com"))
	assert.NoError(t, ValidateEmail("a.b+tag@sub.example.co"))

	assert.ErrorIs(t, ValidateEmail("not-an-email"), errors.InvalidEmail)
	assert.ErrorIs(t, ValidateEmail("@example.com"), errors.InvalidEmail)
	assert.ErrorIs(t, ValidateEmail("a@b"), errors.InvalidEmail)
}

func TestValidateLocation(t *testing.T) {
	assert.NoError(t, ValidateLocation(41.0082, 28.9784))
	assert.NoError(t, ValidateLocation(-90, 180))
	assert.NoError(t, ValidateLocation(90, -180))

	assert.ErrorIs(t, ValidateLocation(90.1, 0), errors.InvalidLocation)
	assert.ErrorIs(t, ValidateLocation(0, -180.5), errors.InvalidLocation)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+905****4567", MaskPhone("+905321234567"))
	assert.Equal(t, "****", MaskPhone("12345"))
}
