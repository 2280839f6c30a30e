package delivery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/odinnomago/valhalla-notify/internal/channel"
	"github.com/odinnomago/valhalla-notify/internal/model"
)

// Decide returns the external channels a notification should go out on,
// given the user's preferences and the current wall-clock time. The
// gates apply in order:
//
//  1. category opt-out suppresses every channel
//  2. quiet hours suppress everything below urgent
//  3. push goes out whenever enabled
//  4. email goes out only for high and urgent
//  5. sms goes out only for urgent
//
// The gates are independent: zero, one, or several channels may fire.
func Decide(n *model.Notification, prefs *model.Preferences, now time.Time) []channel.Channel {
	if !prefs.Categories.Enabled(n.Category) {
		return nil
	}

	if prefs.QuietHours.Enabled && n.Priority != model.PriorityUrgent {
		if inQuietWindow(now, prefs.QuietHours.Start, prefs.QuietHours.End) {
			return nil
		}
	}

	var channels []channel.Channel
	if prefs.PushNotifications {
		channels = append(channels, channel.Push)
	}
	if prefs.EmailNotifications && n.Priority.AtLeast(model.PriorityHigh) {
		channels = append(channels, channel.Email)
	}
	if prefs.SMSNotifications && n.Priority == model.PriorityUrgent {
		channels = append(channels, channel.SMS)
	}
	return channels
}

// inQuietWindow tests containment on a circular 24h scale so windows
// that wrap midnight (22:00-06:00) behave. Malformed bounds disable the
// window rather than silently suppressing deliveries. A window whose
// start equals its end is empty, not all-day.
func inQuietWindow(now time.Time, start, end string) bool {
	s, err := parseMinuteOfDay(start)
	if err != nil {
		return false
	}
	e, err := parseMinuteOfDay(end)
	if err != nil {
		return false
	}
	if s == e {
		return false
	}

	m := now.Hour()*60 + now.Minute()
	if s < e {
		return m >= s && m <= e
	}
	return m >= s || m <= e
}

func parseMinuteOfDay(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed minute in %q", hhmm)
	}
	return h*60 + m, nil
}
