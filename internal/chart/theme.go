package chart

import "github.com/Falcon0711/zStock/internal/types"

// Theme holds every color the chart renders with. A theme change rebuilds
// the chart the same way a data change does.
type Theme struct {
	Background      string `yaml:"background" json:"background" validate:"required"`
	UpColor         string `yaml:"up_color" json:"up_color" validate:"required"`
	DownColor       string `yaml:"down_color" json:"down_color" validate:"required"`
	VolumeUpColor   string `yaml:"volume_up_color" json:"volume_up_color" validate:"required"`
	VolumeDownColor string `yaml:"volume_down_color" json:"volume_down_color" validate:"required"`
	HighLineColor   string `yaml:"high_line_color" json:"high_line_color" validate:"required"`
	LowLineColor    string `yaml:"low_line_color" json:"low_line_color" validate:"required"`
	BuyMarkColor    string `yaml:"buy_mark_color" json:"buy_mark_color" validate:"required"`
	SellMarkColor   string `yaml:"sell_mark_color" json:"sell_mark_color" validate:"required"`
	TrendLineColor  string `yaml:"trend_line_color" json:"trend_line_color" validate:"required"`
	BandFillColor   string `yaml:"band_fill_color" json:"band_fill_color" validate:"required"`

	// IndicatorColors overrides the per-indicator line colors.
	IndicatorColors map[types.IndicatorType]string `yaml:"indicator_colors" json:"indicator_colors"`
}

// DefaultTheme is the light theme of the original deployment. Up bars are
// red and down bars green, following the CN market convention.
func DefaultTheme() Theme {
	return Theme{
		Background:      "#ffffff",
		UpColor:         "#ef232a",
		DownColor:       "#14b143",
		VolumeUpColor:   "#ef232a",
		VolumeDownColor: "#14b143",
		HighLineColor:   "#ef232a",
		LowLineColor:    "#14b143",
		BuyMarkColor:    "#ef232a",
		SellMarkColor:   "#14b143",
		TrendLineColor:  "#1e90ff",
		BandFillColor:   "#fff2cc",
		IndicatorColors: map[types.IndicatorType]string{
			types.IndicatorTypeMA5:     "#ff8f1f",
			types.IndicatorTypeMA10:    "#1e90ff",
			types.IndicatorTypeMA20:    "#9b30ff",
			types.IndicatorTypeBBI:     "#fadb14",
			types.IndicatorTypeKDJK:    "#f5a623",
			types.IndicatorTypeKDJD:    "#4a90d9",
			types.IndicatorTypeKDJJ:    "#d0021b",
			types.IndicatorTypeMACDDIF: "#ff6f00",
			types.IndicatorTypeMACDDEA: "#0091ea",
			types.IndicatorTypeMACD:    "#607d8b",
		},
	}
}

// indicatorColor resolves the line color for an indicator, falling back to a
// stable palette entry when the theme has no override.
func (t Theme) indicatorColor(name types.IndicatorType, ordinal int) string {
	if c, ok := t.IndicatorColors[name]; ok {
		return c
	}

	palette := []string{"#ff8f1f", "#1e90ff", "#9b30ff", "#fadb14", "#00bcd4", "#8bc34a"}

	return palette[ordinal%len(palette)]
}
