package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeetingID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"meetingId_user_2abc_07", "Meeting #07"},
		{"a_b", "Meeting #b"},
		{"66f1c2a9e4b0", "Meeting"},
		{"", "Meeting"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MeetingID(tt.in), tt.in)
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "", TruncateText("", 10))
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "exactly10!", TruncateText("exactly10!", 10))
	assert.Equal(t, "abc...", TruncateText("abcdef", 3))
	assert.Equal(t, "héllo...", TruncateText("héllo wörld", 5))

	long := make([]rune, 150)
	for i := range long {
		long[i] = 'a'
	}
	got := TruncateText(string(long), 0)
	assert.Len(t, got, DefaultTruncateLength+3)
}

func TestDateRelative(t *testing.T) {
	// Friday
	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.Local)

	tests := []struct {
		in   string
		want string
	}{
		{"2026-10-16", "Today"},
		{"2026-10-16T08:30:00", "Today"},
		{"2026-10-17", "Tomorrow"},
		{"2026-10-15 23:59", "Yesterday"},
		{"2026-10-13", "Tuesday"},
		{"2026-10-20", "Tuesday"},
		{"2026-10-09", "Oct 9, 2026"},
		{"2026-12-25", "Dec 25, 2026"},
		{"not a date", "not a date"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DateRelative(tt.in, now))
		})
	}
}

func TestDate(t *testing.T) {
	assert.Equal(t, "Oct 1, 2026", Date("2026-10-01"))
	assert.Equal(t, "soon", Date("soon"))
}

func TestNotificationIcon(t *testing.T) {
	assert.Equal(t, "📅", NotificationIcon("meeting"))
	assert.Equal(t, "✅", NotificationIcon("action"))
	assert.Equal(t, "📝", NotificationIcon("info"))
	assert.Equal(t, "📝", NotificationIcon(""))
}
