package utils

// MaskPhone 手机号脱敏，保留国家码段和末四位
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return "****"
	}
	return phone[:4] + "****" + phone[len(phone)-4:]
}
