package types

import "github.com/google/uuid"

// PricePoint anchors one end of a trend line at a time key and price.
type PricePoint struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// TrendLine is a user-drawn annotation between two price points. Trend lines
// are owned per instrument code and persisted as a JSON array.
type TrendLine struct {
	ID    string     `json:"id"`
	Start PricePoint `json:"start"`
	End   PricePoint `json:"end"`
}

// NewTrendLine creates a trend line with a fresh identifier.
func NewTrendLine(start, end PricePoint) TrendLine {
	return TrendLine{
		ID:    uuid.NewString(),
		Start: start,
		End:   end,
	}
}
