// Package policy implements the password rotation check: the minimum-interval
// rule gating how often a credential may be changed. Pure, no I/O.
package policy

import "time"

const day = 24 * time.Hour

// Decision is the outcome of a rotation check.
type Decision struct {
	Allowed bool
	// RemainingDays is how many whole days remain until the next permitted
	// change. Zero when Allowed.
	RemainingDays int
}

// CanChange reports whether a password change is currently permitted.
// An interval of zero or less disables the restriction, and a subject with
// no recorded change has no restriction either.
func CanChange(lastChangedAt *time.Time, intervalDays int, now time.Time) Decision {
	if intervalDays <= 0 || lastChangedAt == nil {
		return Decision{Allowed: true}
	}

	nextAllowed := lastChangedAt.Add(time.Duration(intervalDays) * day)
	if !now.Before(nextAllowed) {
		return Decision{Allowed: true}
	}

	remaining := nextAllowed.Sub(now)
	days := int(remaining / day)
	if remaining%day > 0 {
		days++
	}
	return Decision{Allowed: false, RemainingDays: days}
}
