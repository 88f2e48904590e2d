package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func Capitalize(s string) string {
	return cases.Title(language.Und).String(s)
}

func FirstLine(s string) string {
	before, _, ok := strings.Cut(s, "\n")
	if !ok {
		return s
	}
	return before
}

func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// TruncateText cuts text to maxLen runes and marks the cut with "...".
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen < 0 {
		maxLen = 0
	}
	return string(runes[:maxLen]) + "..."
}

func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }

func Int64Ptr(i int64) *int64 { return &i }

// OptionalString maps "" to nil so it is stored as NULL.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
