package decision

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pump_control/internal/models"
)

const defaultOnWindow = 30 * time.Minute

// onGate decides whether an "on" request may run at local. It returns the next
// eligible time when it may not, and an error for a malformed schedule.
//
//   - scheduled_window with "HH:MM": within on_window_minutes of that time
//   - scheduled_window with a whole hour (number or string): during that hour
//   - a bare "on" request, or a scheduled_window without a value: during the
//     site's on_hour, if set
//   - manual, email_alarm and power_restore requests are not time gated
func onGate(reason *models.Reason, local time.Time, pol models.Policy) (bool, time.Time, error) {
	if reason != nil && reason.Type != models.ReasonScheduledWindow {
		return true, local, nil
	}
	if reason == nil || reason.Value == nil {
		if pol.OnHour < 0 {
			return true, local, nil
		}
		ok, next := hourGate(pol.OnHour, local)
		return ok, next, nil
	}

	if s, isString := reason.Value.(string); isString {
		if hh, mm, err := parseClock(s); err == nil {
			ok, next := clockGate(hh, mm, windowOf(pol), local)
			return ok, next, nil
		}
	}
	h, err := scheduleHour(reason.Value)
	if err != nil {
		return false, time.Time{}, err
	}
	ok, next := hourGate(h, local)
	return ok, next, nil
}

// scheduleHour reads a whole hour of day from a schedule payload.
func scheduleHour(v any) (int, error) {
	var f float64
	switch x := v.(type) {
	case string:
		h, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("invalid schedule %q: want HH:MM or an hour 0-23", x)
		}
		f = float64(h)
	case float64:
		f = x
	case int:
		f = float64(x)
	default:
		return 0, fmt.Errorf("invalid schedule %v: want HH:MM or an hour 0-23", v)
	}
	if f != math.Trunc(f) || f < 0 || f > 23 {
		return 0, fmt.Errorf("invalid schedule hour %v: want a whole hour 0-23", v)
	}
	return int(f), nil
}

func hourGate(hour int, local time.Time) (bool, time.Time) {
	if local.Hour() == hour {
		return true, local
	}
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, local.Location())
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return false, next
}

func clockGate(hh, mm int, window time.Duration, local time.Time) (bool, time.Time) {
	at := time.Date(local.Year(), local.Month(), local.Day(), hh, mm, 0, 0, local.Location())
	for _, candidate := range []time.Time{at.AddDate(0, 0, -1), at, at.AddDate(0, 0, 1)} {
		diff := local.Sub(candidate)
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			return true, local
		}
	}
	next := at.Add(-window)
	if !next.After(local) {
		next = at.AddDate(0, 0, 1).Add(-window)
	}
	return false, next
}

func windowOf(pol models.Policy) time.Duration {
	if pol.OnWindowMinutes > 0 {
		return time.Duration(pol.OnWindowMinutes) * time.Minute
	}
	return defaultOnWindow
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("parse schedule time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
