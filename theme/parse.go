// Package theme maps a token's scope list to a renderable style, adapted
// from the teacher's theme package but working against synlex.Token's
// full ordered Scopes list instead of a single Scope/Depth pair (see §9 of
// SPEC_FULL.md).
package theme

import (
	"image"
	"image/color"
	"strings"
)

// ThemeJSON is a VS Code-style tmTheme/theme.json document: a default
// style plus a list of scope-selector rules.
type ThemeJSON struct {
	Default TokenColorJSON   `json:"default"`
	Tokens  []TokenColorJSON `json:"tokens"`
}

type TokenColorJSON struct {
	Scope    any `json:"scope"` // string or []string
	Settings struct {
		Foreground string `json:"foreground"`
		Background string `json:"background"`
		FontStyle  string `json:"fontStyle"`
	} `json:"settings"`
}

type FontStyle int

const (
	Bold FontStyle = 1 << iota
	Italic
	Underline
	Strikethrough
)

func (s FontStyle) Has(has FontStyle) bool {
	return s&has == has
}

// TokenColor is the resolved style for one scope selector, plus the
// selectors nested under it (for space-separated descendant selectors
// like "string.quoted comment").
type TokenColor struct {
	Foreground color.Color
	Background color.Color
	FontStyle  FontStyle
	Children   map[string]TokenColor
}

// Theme is a parsed theme document: a default style plus an index of
// scope selectors to styles.
type Theme struct {
	TokenColor
	Tokens map[string]TokenColor
}

// setName indexes col under scope, a space-separated descendant selector
// (e.g. "string.quoted.double comment.line"). The top-level key is the
// innermost (last) selector, which carries col's style; each ancestor
// selector is nested in the Children of the selector after it.
func setName(dest map[string]TokenColor, scope string, col TokenColor) {
	parts := strings.Split(scope, " ")
	current := dest

	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		c := current[part]
		if i == len(parts)-1 {
			c.Foreground = col.Foreground
			c.Background = col.Background
			c.FontStyle = col.FontStyle
		}
		if c.Children == nil {
			c.Children = make(map[string]TokenColor)
		}
		current[part] = c
		current = c.Children
	}
}

func parseToken(jc TokenColorJSON) (col TokenColor) {
	if jc.Settings.Foreground != "" {
		if c, err := parseColor(jc.Settings.Foreground); err == nil {
			col.Foreground = image.NewUniform(c)
		}
	}
	if jc.Settings.Background != "" {
		if c, err := parseColor(jc.Settings.Background); err == nil {
			col.Background = image.NewUniform(c)
		}
	}
	for _, field := range strings.Fields(jc.Settings.FontStyle) {
		switch field {
		case "bold":
			col.FontStyle |= Bold
		case "italic":
			col.FontStyle |= Italic
		case "underline":
			col.FontStyle |= Underline
		case "strikethrough":
			col.FontStyle |= Strikethrough
		}
	}
	return
}

// ParseTheme builds a *Theme from a decoded ThemeJSON document.
func ParseTheme(j ThemeJSON) *Theme {
	tokens := make(map[string]TokenColor)
	for _, jc := range j.Tokens {
		col := parseToken(jc)
		switch name := jc.Scope.(type) {
		case string:
			setName(tokens, name, col)
		case []any:
			for _, n := range name {
				if nstr, ok := n.(string); ok {
					setName(tokens, nstr, col)
				}
			}
		}
	}

	return &Theme{
		TokenColor: parseToken(j.Default),
		Tokens:     tokens,
	}
}
