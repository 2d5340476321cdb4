package highlight

import (
	"github.com/Veraticus/highlight/pkg/types"
)

// DefaultPalette is the color cycle used for new highlights
var DefaultPalette = []types.Color{
	types.MustParseColor("#ffff80"),
	types.MustParseColor("#bbff88"),
	types.MustParseColor("#a2ffff"),
	types.MustParseColor("#ffd1f4"),
	types.MustParseColor("#ffb375"),
	types.MustParseColor("#cdbeff"),
	types.MustParseColor("#ff9999"),
	types.MustParseColor("#99ccff"),
}

// Palette hands out colors for new highlights. It is not safe for concurrent
// use; the catalog guards it with its own lock.
type Palette struct {
	colors  []types.Color
	counter uint64
}

// NewPalette creates a palette cycling through colors, or DefaultPalette when
// colors is empty
func NewPalette(colors ...types.Color) *Palette {
	if len(colors) == 0 {
		colors = DefaultPalette
	}
	return &Palette{colors: colors}
}

// Next returns the next color of the cycle
func (p *Palette) Next() types.Color {
	c := p.colors[p.counter%uint64(len(p.colors))]
	p.counter++
	return c
}

// Pick returns the next color of the cycle when cycle is set, otherwise def
func (p *Palette) Pick(cycle bool, def types.Color) types.Color {
	if !cycle {
		return def
	}
	return p.Next()
}
