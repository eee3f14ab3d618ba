package theme

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldenbrook/synlex"
)

func sampleTheme() *Theme {
	return ParseTheme(ThemeJSON{
		Default: TokenColorJSON{
			Settings: struct {
				Foreground string `json:"foreground"`
				Background string `json:"background"`
				FontStyle  string `json:"fontStyle"`
			}{Foreground: "#ffffff", Background: "#000000"},
		},
		Tokens: []TokenColorJSON{
			{
				Scope: "comment",
				Settings: struct {
					Foreground string `json:"foreground"`
					Background string `json:"background"`
					FontStyle  string `json:"fontStyle"`
				}{Foreground: "#888888", FontStyle: "italic"},
			},
			{
				Scope: "constant.numeric",
				Settings: struct {
					Foreground string `json:"foreground"`
					Background string `json:"background"`
					FontStyle  string `json:"fontStyle"`
				}{Foreground: "#ff0000"},
			},
		},
	})
}

func TestStyleFallsBackToDotPrefix(t *testing.T) {
	th := sampleTheme()
	style, ok := th.Style([]string{"source.test", "constant.numeric.value.test"})
	require.True(t, ok)
	r, g, b, _ := style.Foreground.RGBA()
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}.R, byte(r>>8))
	assert.Equal(t, byte(0), byte(g>>8))
	assert.Equal(t, byte(0), byte(b>>8))
}

func TestStyleNoMatchFallsBackToDefault(t *testing.T) {
	th := sampleTheme()
	tok := synlex.Token{Text: "x", Scopes: []string{"source.test", "keyword.control.test"}}
	style := th.StyleToken(tok)
	r, g, b, _ := style.Foreground.RGBA()
	assert.Equal(t, byte(0xff), byte(r>>8))
	assert.Equal(t, byte(0xff), byte(g>>8))
	assert.Equal(t, byte(0xff), byte(b>>8))
}

func TestStyleMostSpecificScopeWins(t *testing.T) {
	th := sampleTheme()
	tok := synlex.Token{Text: "42", Scopes: []string{"source.test", "comment.line.test", "constant.numeric.value.test"}}
	style := th.StyleToken(tok)
	r, _, _, _ := style.Foreground.RGBA()
	assert.Equal(t, byte(0xff), byte(r>>8), "innermost matching scope (constant.numeric) should win over comment")
}

func TestMapTokensTracksRuneOffsets(t *testing.T) {
	th := sampleTheme()
	tokens := []synlex.Token{
		{Text: "héllo ", Scopes: []string{"source.test"}},
		{Text: "42", Scopes: []string{"source.test", "constant.numeric.value.test"}},
	}
	mappings := MapTokens(th, tokens)
	require.Len(t, mappings, 2)
	assert.Equal(t, 0, mappings[0].Offset)
	assert.Equal(t, 6, mappings[1].Offset) // rune count of "héllo ", not byte count
}
