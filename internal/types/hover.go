package types

// HoverState is the crosshair projection published while the pointer is over
// the plotting area. Absent (nil) otherwise.
type HoverState struct {
	Point ChartPoint
	// Index is the logical index of the hovered bar.
	Index int
	// X and Y are the screen coordinates of the close price of the bar.
	X int
	Y int
	// PercentChange is the same-bar change, 0 when open is 0.
	PercentChange float64
}
