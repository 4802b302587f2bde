// Package retention enforces the recycle bin's age limit: entries older than
// the threshold are permanently deleted from the remote store.
package retention

import (
	"time"

	"sftp-gateway/internal/model"
)

const (
	// DefaultThreshold is how long an entry may stay in the recycle bin.
	DefaultThreshold = 30 * 24 * time.Hour

	secondsPerDay = 86400.0
)

// Policy decides which entries have outlived the threshold. Ages are
// fractional days, and an entry must be strictly older than the threshold
// to expire: one exactly 30.0 days old is kept.
type Policy struct {
	Threshold time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold}
}

func (p Policy) ThresholdDays() float64 {
	return p.Threshold.Seconds() / secondsPerDay
}

func (p Policy) AgeDays(modifiedAt time.Time, now time.Time) float64 {
	return now.Sub(modifiedAt).Seconds() / secondsPerDay
}

func (p Policy) Expired(modifiedAt time.Time, now time.Time) bool {
	return p.AgeDays(modifiedAt, now) > p.ThresholdDays()
}

// ExpiresAt is the moment the entry stops being retained.
func (p Policy) ExpiresAt(modifiedAt time.Time) time.Time {
	return modifiedAt.Add(p.Threshold)
}

// Candidates returns the entries that are expired at now, in listing order.
func (p Policy) Candidates(entries []model.RemoteEntry, now time.Time) []model.RemoteEntry {
	out := make([]model.RemoteEntry, 0, len(entries))
	for _, entry := range entries {
		if p.Expired(entry.ModifiedAt, now) {
			out = append(out, entry)
		}
	}

	return out
}
