package types

type MarkShape string

const (
	MarkShapeArrowUp   MarkShape = "arrow_up"
	MarkShapeArrowDown MarkShape = "arrow_down"
)

type MarkPosition string

const (
	MarkPositionBelowBar MarkPosition = "below_bar"
	MarkPositionAboveBar MarkPosition = "above_bar"
)

// Mark is a rendering-ready buy/sell marker. Marks are derived from the
// signal flags of the point array and recomputed wholesale on every data or
// visibility change, never patched incrementally.
type Mark struct {
	// Index is the logical index of the bar the mark is attached to.
	Index    int
	Time     string
	Shape    MarkShape
	Position MarkPosition
	Color    string
	Label    string
}
