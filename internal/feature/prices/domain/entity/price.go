// Package entity defines the domain models for the prices feature.
package entity

import (
	"time"

	"github.com/guregu/null/v6"
)

// PriceRecord represents one daily price observation for a stock symbol
// as returned by an upstream provider. Close is the only field every
// provider is guaranteed to deliver; the rest are optional.
type PriceRecord struct {
	Symbol   string     // Stock ticker symbol (e.g., "AAPL", "7203.T")
	Date     time.Time  // Trading day, normalized to midnight UTC
	Open     null.Float // Opening price
	High     null.Float // Highest price of the day
	Low      null.Float // Lowest price of the day
	Close    float64    // Closing price
	AdjClose null.Float // Dividend/split adjusted close
	Volume   null.Int   // Trading volume in shares
	Source   string     // Name of the provider that produced this record
}

// StoredPrice is a PriceRecord that has been persisted, together with
// the storage identity and the time it was written.
type StoredPrice struct {
	ID         uint
	PriceRecord
	ObservedAt time.Time // When the row was first written
}

// NormalizeDate truncates a timestamp to midnight UTC so that records
// for the same trading day always compare equal regardless of the
// timezone or intraday time a provider reported.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
