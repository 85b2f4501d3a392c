package safety

import "sort"

// Channel 通知渠道
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Contact 参与通知决策的联系人视图
// Email/Phone 为空字符串表示该渠道不可用
type Contact struct {
	Name            string
	Email           string
	Phone           string
	Priority        int
	Verified        bool
	PersonalMessage string
}

// Attempt 一条计划中的通知尝试，只代表意图，投递结果另行记录
type Attempt struct {
	ContactName     string
	ContactPriority int
	Channel         Channel
	Address         string
	PersonalMessage string
}

// PlanFanout 决定通知哪些联系人、走哪些渠道
// 只有已验证的联系人参与，邮箱存在发 email，手机号存在才发 sms，
// 按 priority 升序排列，同优先级保持原始顺序
func PlanFanout(contacts []Contact) []Attempt {
	eligible := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Verified {
			eligible = append(eligible, c)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority < eligible[j].Priority
	})

	attempts := make([]Attempt, 0, len(eligible)*2)
	for _, c := range eligible {
		if c.Email != "" {
			attempts = append(attempts, Attempt{
				ContactName:     c.Name,
				ContactPriority: c.Priority,
				Channel:         ChannelEmail,
				Address:         c.Email,
				PersonalMessage: c.PersonalMessage,
			})
		}
		if c.Phone != "" {
			attempts = append(attempts, Attempt{
				ContactName:     c.Name,
				ContactPriority: c.Priority,
				Channel:         ChannelSMS,
				Address:         c.Phone,
				PersonalMessage: c.PersonalMessage,
			})
		}
	}

	return attempts
}
