package alphavantage

// dailyResponse represents the JSON response from the
// TIME_SERIES_DAILY_ADJUSTED endpoint. Alpha Vantage signals problems
// in-band: "Error Message" for bad requests or keys, "Note" and
// "Information" for rate limiting.
type dailyResponse struct {
	ErrorMessage string                `json:"Error Message"`
	Note         string                `json:"Note"`
	Information  string                `json:"Information"`
	TimeSeries   map[string]dailyQuote `json:"Time Series (Daily)"`
}

type dailyQuote struct {
	Open     string `json:"1. open"`
	High     string `json:"2. high"`
	Low      string `json:"3. low"`
	Close    string `json:"4. close"`
	AdjClose string `json:"5. adjusted close"`
	Volume   string `json:"6. volume"`
}
