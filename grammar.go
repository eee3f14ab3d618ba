// Package synlex tokenizes source text into scope-annotated spans using
// Sublime-style syntax definitions: a declarative grammar of regex
// patterns, named contexts, and stack-manipulation actions.
//
// Workflow:
//  1. Decode a grammar document (YAML/JSON/plist, see the decode_*.go
//     files and Catalog in catalog.go) into a GrammarDocument.
//  2. Compile the GrammarDocument into a *Grammar.
//  3. Create a *ParseState from the Grammar and call ParseLine once per
//     line of source text.
package synlex

import (
	"errors"
	"fmt"

	rx "github.com/aldenbrook/synlex/regexp"
)

var (
	// ErrUnknownContext is returned when an include or a push/set action
	// names a context that does not exist in the grammar.
	ErrUnknownContext = errors.New("synlex: unknown context")
	// ErrUnknownVariable is returned when a regex template references a
	// {{name}} that has no entry in the grammar's variables map.
	ErrUnknownVariable = errors.New("synlex: unknown variable")
	// ErrMissingMain is returned when a grammar document has no "main"
	// context; every grammar must define one.
	ErrMissingMain = errors.New("synlex: grammar has no \"main\" context")
	// ErrMalformedItem is returned when a context item is none of
	// meta_scope, meta_content_scope, meta_include_prototype,
	// clear_scopes, include, or match.
	ErrMalformedItem = errors.New("synlex: malformed context item")
	// ErrAmbiguousAction is returned, defensively, when a match item
	// defines more than one of push/set/pop. The compiler does not
	// actually reject this (see buildMatchPattern); the sentinel exists so
	// callers that want strict validation can opt into it.
	ErrAmbiguousAction = errors.New("synlex: match item defines more than one action")
)

// Grammar is a compiled, cross-referenced syntax definition: every context
// name referenced by an include or a push/set target has been resolved to
// a *Context, and every {{name}} in a match template has been confirmed to
// resolve (transitively) to a variable.
type Grammar struct {
	Name            string
	FileExtensions  []string
	Scope           string // root scope, prepended to every token if set
	FirstLineMatch  string // raw template; Compile compiles it into firstLineRe

	variables    map[string]string
	contexts     map[string]*Context
	contextOrder []string // insertion order, for deterministic iteration

	expandCache map[string]string      // memoized {{var}} expansion, keyed by raw template
	frameCache  map[*Context][]*Pattern // memoized flattened frame, keyed by context identity

	firstLineRe *rx.Regexp
}

// Context is a named, ordered list of patterns plus meta-scope attributes.
// See ParseState.currentScopes for how MetaScope and MetaContentScope
// combine as frames are pushed and popped.
type Context struct {
	Name string // empty for anonymous inline contexts defined at a push/set site

	MetaScope        string
	MetaContentScope string

	// IncludePrototype mirrors meta_include_prototype (default true): if
	// false, the grammar's prototype patterns are not prepended when this
	// context becomes a stack frame. The prototype context itself always
	// has this set to false.
	IncludePrototype bool

	// ClearScopes mirrors clear_scopes (int or bool in the source
	// document). It is parsed and stored but never applied - see
	// DESIGN.md for why truncating ancestor scopes was left unimplemented.
	ClearScopes ClearScopes

	Patterns []*Pattern
}

// ClearScopes records a parsed clear_scopes value without interpreting it.
type ClearScopes struct {
	Set bool // whether clear_scopes was present at all
	All bool // clear_scopes: true
	N   int  // clear_scopes: <integer>
}

// PatternKind tags which variant of Pattern is populated.
type PatternKind int

const (
	PatternMatch PatternKind = iota
	PatternInclude
)

// Pattern is a tagged union of MatchPattern and IncludePattern (see §3 of
// the grammar specification). Exactly the fields relevant to Kind are
// meaningful.
type Pattern struct {
	Kind PatternKind

	// IncludePattern fields.
	IncludeName string
	includeCtx  *Context // resolved by resolve()

	// MatchPattern fields.
	MatchTemplate string
	Scope         string
	Captures      map[int]string
	Action        *Action

	compiled *rx.Regexp // lazily compiled, expanded regex; see Grammar.compilePattern
}

// ActionKind tags which variant of Action is populated.
type ActionKind int

const (
	ActionPush ActionKind = iota
	ActionSet
	ActionPop
)

// Action is Push(target), Set(target), or Pop. Push and Set carry a
// Target that is either a late-bound context name or an inline context
// defined literally at the action site; Pop carries no target.
type Action struct {
	Kind ActionKind

	TargetName   string   // late-bound name, empty if TargetInline is set
	TargetInline *Context // anonymous inline context, nil if TargetName is set

	target *Context // resolved by resolve(); nil for ActionPop
}

// newGrammar allocates a Grammar with its lookup tables initialized.
func newGrammar() *Grammar {
	return &Grammar{
		variables:    make(map[string]string),
		contexts:     make(map[string]*Context),
		expandCache:  make(map[string]string),
		frameCache:   make(map[*Context][]*Pattern),
	}
}

// Context looks up a named context, reporting ErrUnknownContext if absent.
func (g *Grammar) Context(name string) (*Context, error) {
	ctx, ok := g.contexts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	return ctx, nil
}

// MainContext returns the grammar's entry-point context.
func (g *Grammar) MainContext() *Context {
	// guaranteed present: Compile rejects grammars without "main"
	return g.contexts["main"]
}

// prototype returns the grammar's prototype context, or nil if it has none.
func (g *Grammar) prototype() *Context {
	return g.contexts["prototype"]
}

// ContextNames returns context names in the order they were declared in the
// source document (Grammar's "ordered mapping" invariant).
func (g *Grammar) ContextNames() []string {
	out := make([]string, len(g.contextOrder))
	copy(out, g.contextOrder)
	return out
}
