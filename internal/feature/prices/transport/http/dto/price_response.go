// Package dto defines data transfer objects for the prices HTTP API.
package dto

// PriceResponse represents one stored daily price in API responses.
// Optional fields are omitted when the provider did not supply them.
type PriceResponse struct {
	Symbol   string   `json:"symbol"`
	Date     string   `json:"date"` // YYYY-MM-DD
	Open     *float64 `json:"open,omitempty"`
	High     *float64 `json:"high,omitempty"`
	Low      *float64 `json:"low,omitempty"`
	Close    float64  `json:"close"`
	AdjClose *float64 `json:"adj_close,omitempty"`
	Volume   *int64   `json:"volume,omitempty"`
	Source   string   `json:"source"`
}
