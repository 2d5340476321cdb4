package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/types"
)

// Graphics paints rectangles onto the cells of a tcell screen. A filled rect
// blends the background of its cells toward the current color by the
// composite alpha; an outline underlines its cells. Drawing is clipped.
type Graphics struct {
	screen    tcell.Screen
	clip      types.Rect
	base      types.Color
	color     types.Color
	composite interfaces.Composite
}

var _ interfaces.Graphics = (*Graphics)(nil)

// NewGraphics creates a surface over clip. base is the color assumed for
// cells with the default background.
func NewGraphics(screen tcell.Screen, clip types.Rect, base types.Color) *Graphics {
	return &Graphics{screen: screen, clip: clip, base: base, composite: interfaces.Opaque}
}

// ToTcell converts c to a true color
func ToTcell(c types.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// FromTcell converts c, using fallback for the default color
func FromTcell(c tcell.Color, fallback types.Color) types.Color {
	if c == tcell.ColorDefault {
		return fallback
	}
	r, g, b := c.RGB()
	if r < 0 || g < 0 || b < 0 {
		return fallback
	}
	return types.RGB(uint8(r), uint8(g), uint8(b))
}

func (g *Graphics) Color() types.Color { return g.color }
func (g *Graphics) SetColor(c types.Color) { g.color = c }
func (g *Graphics) Composite() interfaces.Composite { return g.composite }
func (g *Graphics) SetComposite(c interfaces.Composite) { g.composite = c }
func (g *Graphics) FillRoundRect(r types.Rect, _, _ int) { g.FillRect(r) }
func (g *Graphics) DrawRoundRect(r types.Rect, _, _ int) { g.DrawRect(r) }

// FillRect implements interfaces.Graphics
func (g *Graphics) FillRect(r types.Rect) {
	g.each(r, func(style tcell.Style) tcell.Style {
		_, bg, _ := style.Decompose()
		blended := g.color.Over(FromTcell(bg, g.base), g.composite.Alpha)
		return style.Background(ToTcell(blended))
	})
}

// DrawRect implements interfaces.Graphics
func (g *Graphics) DrawRect(r types.Rect) {
	g.each(r, func(style tcell.Style) tcell.Style {
		return style.Underline(true)
	})
}

// each restyles the cells covered by r. A rect at least covers one row.
func (g *Graphics) each(r types.Rect, restyle func(tcell.Style) tcell.Style) {
	x0 := max(r.X, g.clip.X)
	x1 := min(r.X+r.W, g.clip.X+g.clip.W)
	y0 := max(r.Y, g.clip.Y)
	y1 := min(r.Y+max(r.H, 1), g.clip.Y+g.clip.H)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			mainc, combc, style, _ := g.screen.GetContent(x, y)
			g.screen.SetContent(x, y, mainc, combc, restyle(style))
		}
	}
}
