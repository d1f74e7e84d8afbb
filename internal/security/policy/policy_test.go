package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanChange(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	daysAgo := func(n int) *time.Time {
		t := now.Add(-time.Duration(n) * 24 * time.Hour)
		return &t
	}

	tests := []struct {
		name          string
		lastChangedAt *time.Time
		intervalDays  int
		wantAllowed   bool
		wantRemaining int
	}{
		{
			name:          "zero interval always allows",
			lastChangedAt: daysAgo(0),
			intervalDays:  0,
			wantAllowed:   true,
		},
		{
			name:          "negative interval always allows",
			lastChangedAt: daysAgo(0),
			intervalDays:  -1,
			wantAllowed:   true,
		},
		{
			name:          "no change history allows",
			lastChangedAt: nil,
			intervalDays:  30,
			wantAllowed:   true,
		},
		{
			name:          "changed five days ago with seven day interval blocks for two",
			lastChangedAt: daysAgo(5),
			intervalDays:  7,
			wantAllowed:   false,
			wantRemaining: 2,
		},
		{
			name:          "interval exactly elapsed allows",
			lastChangedAt: daysAgo(7),
			intervalDays:  7,
			wantAllowed:   true,
		},
		{
			name:          "interval well past allows",
			lastChangedAt: daysAgo(30),
			intervalDays:  7,
			wantAllowed:   true,
		},
		{
			name:          "partial day remaining rounds up to one",
			lastChangedAt: func() *time.Time { t := now.Add(-6*24*time.Hour - 23*time.Hour); return &t }(),
			intervalDays:  7,
			wantAllowed:   false,
			wantRemaining: 1,
		},
		{
			name:          "changed just now blocks for the full interval",
			lastChangedAt: daysAgo(0),
			intervalDays:  7,
			wantAllowed:   false,
			wantRemaining: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanChange(tt.lastChangedAt, tt.intervalDays, now)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			assert.Equal(t, tt.wantRemaining, got.RemainingDays)
		})
	}
}
