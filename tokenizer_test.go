package synlex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// jsonLikeGrammar builds a small grammar exercising comments, a pushed
// array context, and a string context with an escape capture - enough to
// cover every §8 property without depending on any one regex engine's
// exact end-of-line semantics for "$".
func jsonLikeGrammar(t *testing.T) *Grammar {
	t.Helper()
	doc := GrammarDocument{
		Scope: "source.json",
		Contexts: map[string][]ContextItemDocument{
			"main": {
				{Match: `//[^\n]*`, Scope: "comment.line.double-slash.json"},
				{Match: `\[`, Scope: "punctuation.section.sequence.begin.json", Push: &TargetDocument{Name: "array-body"}},
				{Match: `"`, Push: &TargetDocument{Name: "string-body"}},
			},
			"array-body": {
				{MetaScope: strPtr("meta.sequence.json")},
				{Match: `\d+`, Scope: "constant.numeric.value.json"},
				{Match: `,`, Scope: "punctuation.separator.sequence.json"},
				{Match: `\]`, Scope: "punctuation.section.sequence.end.json", Pop: true},
			},
			"string-body": {
				{MetaScope: strPtr("string.quoted.double.json")},
				{Match: `(\\t)`, Captures: map[int]string{1: "constant.character.escape.json"}},
				{Match: `"`, Scope: "punctuation.definition.string.end.json", Pop: true},
			},
		},
		ContextOrder: []string{"main", "array-body", "string-body"},
	}
	g, err := Compile(doc)
	require.NoError(t, err)
	return g
}

func concatText(tokens []Token) string {
	var out string
	for _, tok := range tokens {
		out += tok.Text
	}
	return out
}

func TestParseLineConcatenationIdentity(t *testing.T) {
	g := jsonLikeGrammar(t)
	lines := []string{
		`[1,2,3]`,
		`// a comment`,
		`"a\tb"`,
		``,
		`no patterns match any of this`,
	}
	for _, line := range lines {
		state := NewParseState(g)
		tokens, err := state.ParseLine(line)
		require.NoError(t, err)
		assert.Equal(t, line, concatText(tokens), "line %q", line)
	}
}

func TestParseLineScopesPrefixedWithGrammarScope(t *testing.T) {
	g := jsonLikeGrammar(t)
	state := NewParseState(g)
	tokens, err := state.ParseLine(`[1,2]`)
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	for _, tok := range tokens {
		require.NotEmpty(t, tok.Scopes)
		assert.Equal(t, "source.json", tok.Scopes[0])
	}
}

func TestParseLinePushAddsMetaScopeAndPatternScope(t *testing.T) {
	g := jsonLikeGrammar(t)
	state := NewParseState(g)
	tokens, err := state.ParseLine(`[`)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	// the token that triggers the push carries the pre-push scopes plus
	// the newly pushed context's meta_scope, plus its own pattern scope.
	assert.Equal(t, []string{"source.json", "meta.sequence.json", "punctuation.section.sequence.begin.json"}, tokens[0].Scopes)
	assert.Equal(t, 2, state.Depth())
}

func TestParseLinePopExcludesMetaScopeButKeepsPatternScope(t *testing.T) {
	g := jsonLikeGrammar(t)
	state := NewParseState(g)

	_, err := state.ParseLine(`[`)
	require.NoError(t, err)
	require.Equal(t, 2, state.Depth())

	tokens, err := state.ParseLine(`]`)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	// the pop-triggering token must NOT carry array-body's meta_scope,
	// but DOES carry the pop pattern's own scope.
	assert.Equal(t, []string{"source.json", "punctuation.section.sequence.end.json"}, tokens[0].Scopes)
	assert.Equal(t, 1, state.Depth())
}

func TestParseLineCaptureDecomposition(t *testing.T) {
	g := jsonLikeGrammar(t)
	state := NewParseState(g)

	_, err := state.ParseLine(`"`)
	require.NoError(t, err)

	tokens, err := state.ParseLine(`a\tb"`)
	require.NoError(t, err)

	require.Len(t, tokens, 4)
	assert.Equal(t, "a", tokens[0].Text)
	assert.Equal(t, []string{"source.json", "string.quoted.double.json"}, tokens[0].Scopes)

	assert.Equal(t, `\t`, tokens[1].Text)
	assert.Equal(t, []string{"source.json", "string.quoted.double.json", "constant.character.escape.json"}, tokens[1].Scopes)

	assert.Equal(t, "b", tokens[2].Text)
	assert.Equal(t, []string{"source.json", "string.quoted.double.json"}, tokens[2].Scopes)

	// closing quote pops: string-body's meta_scope is excluded, but its
	// own punctuation scope is present.
	assert.Equal(t, `"`, tokens[3].Text)
	assert.Equal(t, []string{"source.json", "punctuation.definition.string.end.json"}, tokens[3].Scopes)
}

func TestParseLinePatternPriorityFirstInListWins(t *testing.T) {
	doc := GrammarDocument{
		Scope: "source.test",
		Contexts: map[string][]ContextItemDocument{
			"main": {
				{Match: `a+`, Scope: "first"},
				{Match: `a`, Scope: "second"},
			},
		},
		ContextOrder: []string{"main"},
	}
	g, err := Compile(doc)
	require.NoError(t, err)

	state := NewParseState(g)
	tokens, err := state.ParseLine(`aaa`)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "aaa", tokens[0].Text)
	assert.Equal(t, []string{"source.test", "first"}, tokens[0].Scopes)
}

func TestParseLineZeroWidthMatchAdvancesCursor(t *testing.T) {
	doc := GrammarDocument{
		Scope: "source.test",
		Contexts: map[string][]ContextItemDocument{
			"main": {
				{Match: `(?=x)`, Scope: "lookahead"},
			},
		},
		ContextOrder: []string{"main"},
	}
	g, err := Compile(doc)
	require.NoError(t, err)

	state := NewParseState(g)
	tokens, err := state.ParseLine(`xx`)
	require.NoError(t, err)
	assert.Equal(t, "xx", concatText(tokens))
}
