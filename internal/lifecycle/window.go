package lifecycle

import (
	"fmt"
	"time"
)

// Window is the fixed negotiation window: proposals may be exchanged
// for 48 hours after the negotiation is created.
const Window = 48 * time.Hour

// ExpiredLabel is the localized display for an expired negotiation.
const ExpiredLabel = "Expirada"

// Deadline is the instant the negotiation window closes.
func Deadline(createdAt time.Time) time.Time {
	return DeadlineAt(createdAt, Window)
}

// DeadlineAt is Deadline with a configurable window.
func DeadlineAt(createdAt time.Time, window time.Duration) time.Time {
	return createdAt.Add(window)
}

// RemainingTime is createdAt + 48h - now. Negative once expired.
func RemainingTime(createdAt, now time.Time) time.Duration {
	return Deadline(createdAt).Sub(now)
}

// IsExpired reports whether the window has closed. Expiry is
// monotonic in now: false strictly before the deadline, true at and
// after it.
func IsExpired(createdAt, now time.Time) bool {
	return RemainingTime(createdAt, now) <= 0
}

// IsExpiredAt is IsExpired with a configurable window.
func IsExpiredAt(createdAt, now time.Time, window time.Duration) bool {
	return DeadlineAt(createdAt, window).Sub(now) <= 0
}

// FormatRemaining renders a remaining duration in the compact form the
// platform displays: "Xd Yh" from one day up, "Xh Ym" from one hour
// up, "Xm" below that (never less than one minute while any positive
// time remains), and ExpiredLabel at or below zero.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return ExpiredLabel
	}

	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60

	switch {
	case days >= 1:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours >= 1:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("%dm", minutes)
	}
}
