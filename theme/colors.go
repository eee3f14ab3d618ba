package theme

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// parseColor parses a CSS-style "#rrggbb" or "#rrggbbaa" color, the shape
// tmTheme/theme.json settings use for foreground/background.
func parseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("theme: invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("theme: invalid color %q: %w", s, err)
	}
	c := color.RGBA{A: 0xff}
	if len(s) == 8 {
		c.R = byte(v >> 24)
		c.G = byte(v >> 16)
		c.B = byte(v >> 8)
		c.A = byte(v)
	} else {
		c.R = byte(v >> 16)
		c.G = byte(v >> 8)
		c.B = byte(v)
	}
	return c, nil
}
