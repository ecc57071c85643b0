package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor accepts "#rgb", "#rrggbb", "0xrrggbb" or a CSS colour name.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("parse color: empty string")
	}

	low := strings.ToLower(s)
	var digits string
	switch {
	case strings.HasPrefix(low, "#"):
		digits = low[1:]
	case strings.HasPrefix(low, "0x"):
		digits = low[2:]
	default:
		nc, ok := colornames.Map[low]
		if !ok {
			return Color{}, fmt.Errorf("parse color: unknown name %q", s)
		}
		return Color{
			R: float32(nc.R) / 255,
			G: float32(nc.G) / 255,
			B: float32(nc.B) / 255,
			A: 1,
		}, nil
	}

	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) != 6 {
		return Color{}, fmt.Errorf("parse color %q: want 3 or 6 hex digits", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return ColorHex(uint32(v)), nil
}

// Hex formats the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// MarshalText lets colours appear as "#rrggbb" strings in profile files.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
