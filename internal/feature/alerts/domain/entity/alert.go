package entity

import "time"

// Alert is one operator-facing notification episode. Episodes are
// created at most once per exhausted fetch cycle or unhealthy
// health-check run, never per retry attempt or per stale symbol.
type Alert struct {
	Episode   string    // ULID assigned at dispatch, unique per episode
	Title     string    // short subject line, e.g. "price fetch failed: AAPL"
	Body      string    // full description of the failure
	Channel   string    // destination the alert went to ("webhook", "log")
	Delivered bool      // whether the channel accepted the alert
	CreatedAt time.Time // dispatch time
}
