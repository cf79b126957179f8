package utils

import "strings"

// NormalizeEmail lowercases and trims an email address so comparisons and
// unique constraints behave the same regardless of how the address was typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StringOrNil maps an empty string to nil for nullable columns.
func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
