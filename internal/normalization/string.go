package normalization

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D+`)

// ParseInputString trims and lower-cases input. Used for emails and status keys.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func ParseInputStringPtr(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := ParseInputString(*input)
	return &normalized
}

func Email(s string) string { return ParseInputString(s) }

// Phone keeps digits only.
func Phone(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

func Text(s string) string { return strings.TrimSpace(s) }

// OptionalText trims s and returns nil when nothing is left.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the trimmed value of p, "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
