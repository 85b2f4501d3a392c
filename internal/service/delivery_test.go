package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"OldunMu/internal/model"
	pkgerrors "OldunMu/pkg/errors"
)

func TestNotificationText(t *testing.T) {
	msg := model.AlarmNotificationMessage{
		AlarmMessage:    "No check-in received within the configured interval",
		PersonalMessage: "Lütfen beni ara",
	}
	assert.Equal(t, "Lütfen beni ara", notificationText(msg))

	msg.PersonalMessage = ""
	assert.Equal(t, "No check-in received within the configured interval", notificationText(msg))
}

func TestDeliveryErrorCode(t *testing.T) {
	nre := pkgerrors.NewNonRetryableError("EMAIL_ADDRESS_MISSING", "contact has no email address", "")
	assert.Equal(t, "EMAIL_ADDRESS_MISSING", deliveryErrorCode(nre))

	wrapped := fmt.Errorf("delivery failed: %w", nre)
	assert.Equal(t, "EMAIL_ADDRESS_MISSING", deliveryErrorCode(wrapped))

	assert.Equal(t, "DELIVERY_ERROR", deliveryErrorCode(fmt.Errorf("smtp timeout")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("", 5))
}
