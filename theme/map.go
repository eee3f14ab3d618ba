package theme

import (
	"strings"

	"github.com/aldenbrook/synlex"
)

// ColorMapping is one rendered span: the style resolved for it, and its
// rune offset within the line it came from.
type ColorMapping struct {
	TokenColor
	Offset int
}

// getSplitted looks up name in current, falling back to progressively
// shorter dot-prefixes ("string.quoted.double" -> "string.quoted" ->
// "string") the way scope selectors are conventionally matched.
func getSplitted(current map[string]TokenColor, name string) (TokenColor, bool) {
	for name != "" {
		if c, ok := current[name]; ok {
			return c, true
		}
		i := strings.LastIndexByte(name, '.')
		if i == -1 {
			break
		}
		name = name[:i]
	}
	return TokenColor{}, false
}

// Style resolves the style for a token's full scope list (outer to
// inner) by walking it from the innermost (last) scope to the outermost
// (first), returning the first match - §4.8's "most-specific to
// least-specific" rule, applied directly rather than through the
// teacher's descendant-combinator Children chain (that chain requires the
// OUTERMOST scope to match something before any inner one is even tried,
// which is generally false - a grammar's root scope, e.g. "source.json",
// almost never has its own theme rule). Falls back to (TokenColor{},
// false) if nothing in the theme matches any scope in the list.
//
// setName stores a space-separated descendant selector ("string comment")
// under its innermost scope, so its style applies wherever that scope
// appears; the ancestor scopes nested in Children are not checked here.
// See DESIGN.md.
func (t *Theme) Style(scopes []string) (TokenColor, bool) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if c, ok := getSplitted(t.Tokens, scopes[i]); ok {
			return c, true
		}
	}
	return TokenColor{}, false
}

// StyleToken resolves the style for a single token, falling back to the
// theme's default foreground/background/font style if no scope in
// tok.Scopes matches any rule (§8's presentation fallback property).
func (t *Theme) StyleToken(tok synlex.Token) TokenColor {
	if style, ok := t.Style(tok.Scopes); ok {
		return mergeDefault(style, t.TokenColor)
	}
	return t.TokenColor
}

func mergeDefault(style, def TokenColor) TokenColor {
	if style.Foreground == nil {
		style.Foreground = def.Foreground
	}
	if style.Background == nil {
		style.Background = def.Background
	}
	return style
}

// MapTokens resolves a style for each token in order, pairing it with the
// token's rune offset within the line.
func MapTokens(t *Theme, tokens []synlex.Token) []ColorMapping {
	res := make([]ColorMapping, 0, len(tokens))
	offset := 0
	for _, tok := range tokens {
		res = append(res, ColorMapping{TokenColor: t.StyleToken(tok), Offset: offset})
		offset += len([]rune(tok.Text))
	}
	return res
}
