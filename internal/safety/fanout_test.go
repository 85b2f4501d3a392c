package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFanoutOrderingAndEligibility(t *testing.T) {
	contacts := []Contact{
		{Name: "Ayşe", Email: "a@x", Priority: 2, Verified: true},
		{Name: "Mehmet", Phone: "+905551112233", Priority: 1, Verified: true},
		{Name: "Fatma", Email: "f@x", Phone: "+905554445566", Priority: 3, Verified: false},
	}

	attempts := PlanFanout(contacts)

	// 未验证的联系人完全不参与，优先级 1 的短信排在优先级 2 的邮件之前
	require.Len(t, attempts, 2)
	assert.Equal(t, "Mehmet", attempts[0].ContactName)
	assert.Equal(t, ChannelSMS, attempts[0].Channel)
	assert.Equal(t, "Ayşe", attempts[1].ContactName)
	assert.Equal(t, ChannelEmail, attempts[1].Channel)
}

func TestPlanFanoutBothChannels(t *testing.T) {
	contacts := []Contact{
		{Name: "Zeynep", Email: "z@x", Phone: "+905550001122", Priority: 1, Verified: true},
	}

	attempts := PlanFanout(contacts)

	require.Len(t, attempts, 2)
	assert.Equal(t, ChannelEmail, attempts[0].Channel)
	assert.Equal(t, "z@x", attempts[0].Address)
	assert.Equal(t, ChannelSMS, attempts[1].Channel)
	assert.Equal(t, "+905550001122", attempts[1].Address)
}

func TestPlanFanoutSkipsContactWithoutChannels(t *testing.T) {
	contacts := []Contact{
		{Name: "Ali", Priority: 1, Verified: true},
		{Name: "Veli", Email: "v@x", Priority: 2, Verified: true},
	}

	attempts := PlanFanout(contacts)

	require.Len(t, attempts, 1)
	assert.Equal(t, "Veli", attempts[0].ContactName)
}

func TestPlanFanoutStableTieOrdering(t *testing.T) {
	contacts := []Contact{
		{Name: "first", Email: "1@x", Priority: 1, Verified: true},
		{Name: "second", Email: "2@x", Priority: 1, Verified: true},
		{Name: "third", Email: "3@x", Priority: 1, Verified: true},
	}

	attempts := PlanFanout(contacts)

	require.Len(t, attempts, 3)
	assert.Equal(t, "first", attempts[0].ContactName)
	assert.Equal(t, "second", attempts[1].ContactName)
	assert.Equal(t, "third", attempts[2].ContactName)
}

func TestPlanFanoutEmpty(t *testing.T) {
	assert.Empty(t, PlanFanout(nil))
	assert.Empty(t, PlanFanout([]Contact{{Name: "x", Email: "x@x", Verified: false}}))
}
