package utils

import (
	"regexp"

	"OldunMu/pkg/errors"
)

var (
	// E.164 国际格式，土耳其号码形如 +905xxxxxxxxx
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return errors.InvalidPhoneNumber
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errors.InvalidEmail
	}
	return nil
}

// ValidateLocation 经纬度范围校验
func ValidateLocation(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return errors.InvalidLocation
	}
	return nil
}
