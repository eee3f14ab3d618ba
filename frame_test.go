package synlex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() GrammarDocument {
	return GrammarDocument{
		Scope: "source.test",
		Contexts: map[string][]ContextItemDocument{
			"main": {
				{Include: "common"},
				{Match: `\d+`, Scope: "number"},
			},
			"common": {
				{Match: `#.*`, Scope: "comment"},
			},
		},
		ContextOrder: []string{"main", "common"},
	}
}

// Frame-flattening determinism (§8): two calls to flattenFrame for the
// same context return an equal pattern sequence - and, since the result
// is memoized, the exact same backing slice.
func TestFlattenFrameDeterministic(t *testing.T) {
	g, err := Compile(sampleDoc())
	require.NoError(t, err)

	ctx := g.MainContext()
	first := g.flattenFrame(ctx)
	second := g.flattenFrame(ctx)

	require.Len(t, first, 2)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, `#.*`, first[0].MatchTemplate)
	assert.Equal(t, `\d+`, first[1].MatchTemplate)
}

func TestFlattenFrameIncludesPrototype(t *testing.T) {
	doc := sampleDoc()
	doc.Contexts["prototype"] = []ContextItemDocument{
		{Match: `\s+`, Scope: "whitespace"},
	}
	doc.ContextOrder = append(doc.ContextOrder, "prototype")

	g, err := Compile(doc)
	require.NoError(t, err)

	patterns := g.flattenFrame(g.MainContext())
	require.Len(t, patterns, 3)
	assert.Equal(t, `\s+`, patterns[0].MatchTemplate, "prototype patterns come first")
}

func TestFlattenFrameHonorsMetaIncludePrototypeFalse(t *testing.T) {
	doc := sampleDoc()
	doc.Contexts["prototype"] = []ContextItemDocument{
		{Match: `\s+`, Scope: "whitespace"},
	}
	falseVal := false
	doc.Contexts["main"] = append([]ContextItemDocument{{MetaIncludePrototype: &falseVal}}, doc.Contexts["main"]...)
	doc.ContextOrder = append(doc.ContextOrder, "prototype")

	g, err := Compile(doc)
	require.NoError(t, err)

	patterns := g.flattenFrame(g.MainContext())
	require.Len(t, patterns, 2)
	assert.Equal(t, `#.*`, patterns[0].MatchTemplate)
}
