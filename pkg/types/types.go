// Package types contains shared value types used across the highlight engine.
package types

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Color is an opaque RGB color
type Color struct {
	R, G, B uint8
}

// RGB builds a color from its components
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ParseColor parses a "#rrggbb" (or "rrggbb") color
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// MustParseColor is ParseColor for package-level palettes and tests
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the "#rrggbb" form of the color
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer
func (c Color) String() string {
	return c.Hex()
}

// Colorful converts the color for blending
func (c Color) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Over composites c over base with the given alpha (0..1), SRC_OVER style
func (c Color) Over(base Color, alpha float64) Color {
	if alpha <= 0 {
		return base
	}
	if alpha >= 1 {
		return c
	}
	r, g, b := base.Colorful().BlendRgb(c.Colorful(), alpha).Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// MarshalYAML writes the color as "#rrggbb"
func (c Color) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

// UnmarshalYAML reads a "#rrggbb" color
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scope is the visibility lifetime of a highlight
type Scope int

const (
	// ScopePermanent highlights are persisted across sessions
	ScopePermanent Scope = iota
	// ScopeSession highlights live until the process exits
	ScopeSession
	// ScopeBuffer highlights live while their buffer is open and only paint in it
	ScopeBuffer
)

var scopeNames = [...]string{
	ScopePermanent: "permanent",
	ScopeSession:   "session",
	ScopeBuffer:    "buffer",
}

// String returns the lower-case scope name
func (s Scope) String() string {
	if s < 0 || int(s) >= len(scopeNames) {
		return fmt.Sprintf("scope(%d)", int(s))
	}
	return scopeNames[s]
}

// ParseScope parses a scope name, case-insensitively
func ParseScope(name string) (Scope, error) {
	for i, n := range scopeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Scope(i), nil
		}
	}
	return ScopePermanent, fmt.Errorf("unknown scope %q", name)
}

// MarshalYAML writes the scope name
func (s Scope) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML reads a scope name
func (s *Scope) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseScope(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// BufferID is an opaque buffer handle. It never keeps the buffer alive.
type BufferID string

// Point is a pixel (or cell) position
type Point struct {
	X, Y int
}

// Rect is an axis-aligned rectangle
type Rect struct {
	X, Y, W, H int
}
