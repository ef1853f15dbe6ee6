package lifecycle

import (
	"fmt"
	"time"
)

type State string

const (
	TrialActive  State = "trial-active"
	TrialExpired State = "trial-expired"
	PaidActive   State = "paid-active"
	PaidExpiring State = "paid-expiring"
)

// ExpiringWindow is how close to expiration a paid site counts as expiring.
const ExpiringWindow = 30 * 24 * time.Hour

// Snapshot is the lifecycle of one site at one instant. It is never stored.
type Snapshot struct {
	State     State         `json:"state"`
	Remaining time.Duration `json:"-"`
	Expired   bool          `json:"expired"`
	Blocked   bool          `json:"blocked"`
	Display   string        `json:"display"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Evaluate derives the lifecycle state from the stored expiration and paid
// flag. A site whose expiration equals now is already expired. Paid sites are
// never blocked, even past expiration.
func Evaluate(now, expiresAt time.Time, isPaid bool) Snapshot {
	diff := expiresAt.Sub(now)
	expired := diff <= 0

	snap := Snapshot{
		Remaining: diff,
		Expired:   expired,
		Blocked:   expired && !isPaid,
		ExpiresAt: expiresAt,
	}
	if expired {
		snap.Remaining = 0
	}

	switch {
	case !isPaid && !expired:
		snap.State = TrialActive
	case !isPaid:
		snap.State = TrialExpired
	case expired || diff <= ExpiringWindow:
		snap.State = PaidExpiring
	default:
		snap.State = PaidActive
	}

	snap.Display = FormatRemaining(diff, isPaid)
	return snap
}

// FormatRemaining renders paid time as months and days (30-day months) and
// trial time as hours and minutes.
func FormatRemaining(diff time.Duration, isPaid bool) string {
	if diff <= 0 {
		return "expired"
	}

	if isPaid {
		totalDays := int(diff / (24 * time.Hour))
		months, days := totalDays/30, totalDays%30
		if months == 0 {
			return plural(days, "day")
		}
		return plural(months, "month") + " " + plural(days, "day")
	}

	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)
	return plural(hours, "hour") + " " + plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
