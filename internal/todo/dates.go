package todo

import (
	"strings"
	"time"
)

// DateLayout is the format date fields are submitted and edited in
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, time.RFC3339, time.RFC3339Nano}

// ParseDate reads a stored date string. Empty or unreadable values yield nil.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}

// FormatDate renders a date for an edit field; nil yields ""
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
