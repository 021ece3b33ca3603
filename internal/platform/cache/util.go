package cache

import (
	"time"
)

// TimeUntilNextUTCDay returns the duration until the next UTC midnight.
// Daily bars only change when a new trading day lands, so cached range
// queries can safely live until the date rolls over.
func TimeUntilNextUTCDay() time.Duration {
	now := time.Now().UTC()

	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

	return next.Sub(now)
}
