// Package datasource loads indicator-enriched history from the analytics
// collaborator's exports. The chart itself never computes indicators or
// signals; whatever the source delivers is what gets drawn.
package datasource

import (
	"github.com/Falcon0711/zStock/internal/types"
)

// Instrument is one selectable instrument.
type Instrument struct {
	// Code is the exchange-prefixed instrument code, e.g. "sh600000".
	Code string `json:"code" yaml:"code" validate:"required"`
	// Name is the display name; the code doubles as the name when empty.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// DisplayName returns the name, falling back to the code.
func (i Instrument) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}

	return i.Code
}

// DataSource provides the instrument list and per-instrument history.
type DataSource interface {
	// Instruments lists the selectable instruments.
	Instruments() ([]Instrument, error)

	// History returns the full point array for one instrument, ordered
	// ascending by time key.
	History(code string) ([]types.ChartPoint, error)

	// Close releases the underlying resources.
	Close() error
}
