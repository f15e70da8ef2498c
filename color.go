package quad

import (
	"fmt"
	"math"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// RGBA2 creates a color from RGBA components.
func RGBA2(r, g, b, a float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: a}
}

// ParseHex parses a color from a hex string with an optional leading '#'.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA".
func ParseHex(hex string) (RGBA, error) {
	s := hex
	if s != "" && s[0] == '#' {
		s = s[1:]
	}

	var digits [8]uint32
	for i := 0; i < len(s); i++ {
		if i >= len(digits) {
			return RGBA{}, fmt.Errorf("quad: invalid hex color %q", hex)
		}
		d, ok := hexDigit(s[i])
		if !ok {
			return RGBA{}, fmt.Errorf("quad: invalid hex color %q", hex)
		}
		digits[i] = d
	}

	var r, g, b, a uint32
	a = 255
	switch len(s) {
	case 3, 4:
		r, g, b = digits[0]*17, digits[1]*17, digits[2]*17
		if len(s) == 4 {
			a = digits[3] * 17
		}
	case 6, 8:
		r = digits[0]<<4 | digits[1]
		g = digits[2]<<4 | digits[3]
		b = digits[4]<<4 | digits[5]
		if len(s) == 8 {
			a = digits[6]<<4 | digits[7]
		}
	default:
		return RGBA{}, fmt.Errorf("quad: invalid hex color %q", hex)
	}

	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

// Hex parses a hex color, returning opaque black for malformed input.
func Hex(hex string) RGBA {
	c, err := ParseHex(hex)
	if err != nil {
		return Black
	}
	return c
}

// HexString formats the color as "#RRGGBBAA".
func (c RGBA) HexString() string {
	return fmt.Sprintf("#%02x%02x%02x%02x",
		uint8(clamp255(math.Round(c.R*255))),
		uint8(clamp255(math.Round(c.G*255))),
		uint8(clamp255(math.Round(c.B*255))),
		uint8(clamp255(math.Round(c.A*255))))
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case '0' <= c && c <= '9':
		return uint32(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint32(c - 'a' + 10), true
	case 'A' <= c && c <= 'F':
		return uint32(c - 'A' + 10), true
	}
	return 0, false
}

// Float32s returns the components as float32 in R, G, B, A order.
func (c RGBA) Float32s() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

// clamp255 restricts a value to [0, 255] range.
func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 1, 0)
	Blue        = RGB(0, 0, 1)

	// Chartreuse is the scene background: (0.5, 1.0, 0.0) at alpha 0.9.
	Chartreuse = RGBA2(0.5, 1.0, 0.0, 0.9)

	// Cream is the flat fragment color of the position-only program.
	Cream = RGB(1.0, 1.0, 0.8)
)
