package synlex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlGrammar = `
name: Test
scope: source.test
file_extensions: [test]
variables:
  digit: '[0-9]'
  number: '{{digit}}+'
contexts:
  main:
    - match: '{{number}}'
      scope: constant.numeric.value.test
    - match: '"'
      push: string-body
  string-body:
    - meta_scope: string.quoted.double.test
    - match: '"'
      scope: punctuation.definition.string.end.test
      pop: true
`

const jsonGrammar = `{
  "name": "Test",
  "scope": "source.test",
  "file_extensions": ["test"],
  "variables": {"digit": "[0-9]", "number": "{{digit}}+"},
  "contexts": {
    "main": [
      {"match": "{{number}}", "scope": "constant.numeric.value.test"},
      {"match": "\"", "push": "string-body"}
    ],
    "string-body": [
      {"meta_scope": "string.quoted.double.test"},
      {"match": "\"", "scope": "punctuation.definition.string.end.test", "pop": true}
    ]
  }
}`

func TestDecodeYAMLPreservesContextOrder(t *testing.T) {
	doc, err := DecodeYAML([]byte(yamlGrammar))
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "string-body"}, doc.ContextOrder)
	assert.Equal(t, "source.test", doc.Scope)
	assert.Equal(t, []string{"test"}, doc.FileExtensions)
}

func TestDecodeJSONPreservesContextOrder(t *testing.T) {
	doc, err := DecodeJSON([]byte(jsonGrammar))
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "string-body"}, doc.ContextOrder)
}

// Decoders: YAML and JSON documents expressing the same grammar compile
// to Grammars with identical flattened frame orderings (§8).
func TestYAMLAndJSONDecodersAgree(t *testing.T) {
	yamlDoc, err := DecodeYAML([]byte(yamlGrammar))
	require.NoError(t, err)
	jsonDoc, err := DecodeJSON([]byte(jsonGrammar))
	require.NoError(t, err)

	gYAML, err := Compile(yamlDoc)
	require.NoError(t, err)
	gJSON, err := Compile(jsonDoc)
	require.NoError(t, err)

	for _, name := range []string{"main", "string-body"} {
		ctxYAML, err := gYAML.Context(name)
		require.NoError(t, err)
		ctxJSON, err := gJSON.Context(name)
		require.NoError(t, err)

		patYAML := gYAML.flattenFrame(ctxYAML)
		patJSON := gJSON.flattenFrame(ctxJSON)

		require.Len(t, patJSON, len(patYAML))
		for i := range patYAML {
			assert.Equal(t, patYAML[i].MatchTemplate, patJSON[i].MatchTemplate, "context %q pattern %d", name, i)
			assert.Equal(t, patYAML[i].Scope, patJSON[i].Scope, "context %q pattern %d", name, i)
		}
	}

	stateYAML := NewParseState(gYAML)
	stateJSON := NewParseState(gJSON)
	for _, line := range []string{`"`, `42`, `"`} {
		tokYAML, err := stateYAML.ParseLine(line)
		require.NoError(t, err)
		tokJSON, err := stateJSON.ParseLine(line)
		require.NoError(t, err)
		require.Equal(t, len(tokYAML), len(tokJSON))
		for i := range tokYAML {
			assert.Equal(t, tokYAML[i], tokJSON[i])
		}
	}
}

func TestVariableExpansionIsRecursiveAndMemoized(t *testing.T) {
	doc, err := DecodeYAML([]byte(yamlGrammar))
	require.NoError(t, err)
	g, err := Compile(doc)
	require.NoError(t, err)

	expanded, err := g.expand("{{number}}")
	require.NoError(t, err)
	assert.Equal(t, "[0-9]+", expanded)

	_, ok := g.expandCache["{{number}}"]
	assert.True(t, ok, "expansion should be cached")
}

func TestUnknownVariableIsLoadTimeError(t *testing.T) {
	doc := GrammarDocument{
		Scope: "source.test",
		Contexts: map[string][]ContextItemDocument{
			"main": {{Match: `{{missing}}`, Scope: "x"}},
		},
		ContextOrder: []string{"main"},
	}
	_, err := Compile(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestMissingMainContextIsRejected(t *testing.T) {
	doc := GrammarDocument{
		Scope:    "source.test",
		Contexts: map[string][]ContextItemDocument{"other": {}},
	}
	_, err := Compile(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingMain)
}

func TestUnknownContextReferenceIsLoadTimeError(t *testing.T) {
	doc := GrammarDocument{
		Scope: "source.test",
		Contexts: map[string][]ContextItemDocument{
			"main": {{Include: "nonexistent"}},
		},
		ContextOrder: []string{"main"},
	}
	_, err := Compile(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownContext)
}
