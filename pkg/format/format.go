// Package format holds display helpers shared by the minuteme commands.
package format

import (
	"strings"
	"time"
)

// DefaultTruncateLength is the TruncateText limit used by list views.
const DefaultTruncateLength = 100

// MeetingID turns ids like "meetingId_user_2abc_07" into "Meeting #07".
func MeetingID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		return "Meeting #" + id[i+1:]
	}
	return "Meeting"
}

// TruncateText cuts text to max runes and appends "...". A max of 0 or less
// uses DefaultTruncateLength.
func TruncateText(text string, max int) string {
	if max <= 0 {
		max = DefaultTruncateLength
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate accepts the timestamp shapes the API returns. Zone-less values are local time.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateRelative renders s relative to now: Today, Tomorrow, Yesterday, the
// weekday within a week, or a plain date. Unparseable input is returned as is.
func DateRelative(s string, now time.Time) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	t = t.In(now.Location())

	days := dayNumber(t) - dayNumber(now)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > -7 && days < 7:
		return t.Weekday().String()
	default:
		return t.Format("Jan 2, 2006")
	}
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// Date renders s as "Jan 2, 2006", or returns it unchanged.
func Date(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// NotificationIcon is the prefix shown before a notification of the given type.
func NotificationIcon(kind string) string {
	switch kind {
	case "meeting":
		return "📅"
	case "action":
		return "✅"
	default:
		return "📝"
	}
}
