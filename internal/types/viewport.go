package types

// ViewportRange is a half-open logical index window [From, To) over the
// ordered point array. It is mutated only by pan/zoom interaction or by the
// initial-range logic.
type ViewportRange struct {
	From int
	To   int
}

// Clamp bounds the range to [0, n). The result may be empty.
func (r ViewportRange) Clamp(n int) ViewportRange {
	if r.From < 0 {
		r.From = 0
	}

	if r.To > n {
		r.To = n
	}

	if r.From > r.To {
		r.From = r.To
	}

	return r
}

// Empty reports whether the window contains no bars.
func (r ViewportRange) Empty() bool {
	return r.To <= r.From
}

// Width is the number of bars in the window.
func (r ViewportRange) Width() int {
	if r.Empty() {
		return 0
	}

	return r.To - r.From
}

// Shift moves the window by delta bars without changing its width.
func (r ViewportRange) Shift(delta int) ViewportRange {
	return ViewportRange{From: r.From + delta, To: r.To + delta}
}
