package entity

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "strips intraday time",
			in:   time.Date(2024, 3, 15, 14, 30, 45, 999, time.UTC),
			want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "already midnight is unchanged",
			in:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "non-UTC timestamp normalizes to the UTC day",
			in:   time.Date(2024, 3, 15, 8, 0, 0, 0, tokyo), // 23:00 UTC the day before
			want: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "result is always in UTC",
			in:   time.Date(2024, 3, 15, 23, 59, 59, 0, tokyo),
			want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizeDate(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("NormalizeDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("NormalizeDate(%v) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}
