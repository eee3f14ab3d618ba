package synlex

import (
	"fmt"
)

// GrammarDocument is the decode-time shape every Grammar Decoder (YAML,
// JSON, plist - see decode_*.go) produces. Compile turns a GrammarDocument
// into a cross-referenced *Grammar. This mirrors the original spec's "the
// core consumes already-parsed grammar trees": GrammarDocument is exactly
// that already-parsed tree, format-agnostic.
//
// ContextOrder records the declaration order of the keys in Contexts. Go
// maps have no iteration order, so a decoder that cares about the
// "ordered mapping" invariant (§3 of the grammar specification - it only
// affects deterministic iteration via Grammar.ContextNames, never lookup
// or tokenization) must populate it; decoders in this repository do. A
// caller that builds a GrammarDocument by hand and leaves ContextOrder nil
// gets contexts in map-iteration (unspecified) order from ContextNames.
type GrammarDocument struct {
	Name           string
	FileExtensions []string
	Scope          string
	FirstLineMatch string
	Variables      map[string]string
	Contexts       map[string][]ContextItemDocument
	ContextOrder   []string
}

// ContextItemDocument is one raw item in a context's item list: a tagged
// union over the six recognized shapes from §4.2 of the grammar
// specification. Which fields are meaningful is determined by which are
// non-nil/non-empty.
type ContextItemDocument struct {
	MetaScope            *string
	MetaContentScope     *string
	MetaIncludePrototype *bool
	ClearScopes          *ClearScopesDocument
	Include              string
	Match                string
	Scope                string
	Captures             map[int]string
	Push                 *TargetDocument
	Set                  *TargetDocument
	Pop                  bool
}

// TargetDocument is a push/set target: either a bare context name or an
// inline list of context items defining an anonymous context.
type TargetDocument struct {
	Name  string
	Items []ContextItemDocument
}

// ClearScopesDocument holds either a bare boolean or an integer, matching
// the source document's "clear_scopes: int|bool".
type ClearScopesDocument struct {
	IsBool bool
	Bool   bool
	N      int
}

// classify reports which of the three item families (meta-key, include,
// match) this item belongs to, for the precedence switch in buildContext.
func (it ContextItemDocument) classify() (isMeta, isInclude, isMatch bool) {
	isMeta = it.MetaScope != nil || it.MetaContentScope != nil || it.MetaIncludePrototype != nil || it.ClearScopes != nil
	isInclude = it.Include != ""
	isMatch = it.Match != ""
	return
}

// Compile builds a cross-referenced Grammar from a decoded document,
// running the validations described in §4.6: missing "main", unknown
// context names, and unknown variables are all reported here (variables
// are validated by eagerly expanding every match template once).
func Compile(doc GrammarDocument) (*Grammar, error) {
	g := newGrammar()
	g.Name = doc.Name
	g.FileExtensions = doc.FileExtensions
	g.Scope = doc.Scope
	g.FirstLineMatch = doc.FirstLineMatch
	for k, v := range doc.Variables {
		g.variables[k] = v
	}

	if _, ok := doc.Contexts["main"]; !ok {
		return nil, ErrMissingMain
	}

	order := doc.ContextOrder
	if len(order) != len(doc.Contexts) {
		// decoder did not supply (complete) ordering; fall back to
		// whatever order the map gives us rather than drop contexts.
		order = order[:0]
		seen := make(map[string]bool, len(doc.Contexts))
		for _, name := range doc.ContextOrder {
			if !seen[name] {
				order = append(order, name)
				seen[name] = true
			}
		}
		for name := range doc.Contexts {
			if !seen[name] {
				order = append(order, name)
				seen[name] = true
			}
		}
	}
	g.contextOrder = order

	for _, name := range order {
		ctx, err := buildContext(doc.Contexts[name])
		if err != nil {
			return nil, fmt.Errorf("context %q: %w", name, err)
		}
		ctx.Name = name
		if name == "prototype" {
			ctx.IncludePrototype = false
		}
		g.contexts[name] = ctx
	}

	if err := g.resolve(); err != nil {
		return nil, err
	}
	if err := g.validateVariables(); err != nil {
		return nil, err
	}
	if doc.FirstLineMatch != "" {
		re, err := g.compileTemplate(doc.FirstLineMatch)
		if err != nil {
			return nil, fmt.Errorf("first_line_match: %w", err)
		}
		g.firstLineRe = re
	}

	return g, nil
}

// buildContext applies the item rules from §4.2 to produce a Context.
func buildContext(items []ContextItemDocument) (*Context, error) {
	ctx := &Context{IncludePrototype: true}
	for _, item := range items {
		isMeta, isInclude, isMatch := item.classify()
		switch {
		case item.MetaScope != nil:
			ctx.MetaScope = *item.MetaScope
		case item.MetaContentScope != nil:
			ctx.MetaContentScope = *item.MetaContentScope
		case item.MetaIncludePrototype != nil:
			ctx.IncludePrototype = *item.MetaIncludePrototype
		case item.ClearScopes != nil:
			ctx.ClearScopes = ClearScopes{Set: true, All: item.ClearScopes.IsBool && item.ClearScopes.Bool, N: item.ClearScopes.N}
		case isInclude:
			ctx.Patterns = append(ctx.Patterns, &Pattern{Kind: PatternInclude, IncludeName: item.Include})
		case isMatch:
			pat, err := buildMatchPattern(item)
			if err != nil {
				return nil, err
			}
			ctx.Patterns = append(ctx.Patterns, pat)
		default:
			if !isMeta && !isInclude && !isMatch {
				return nil, ErrMalformedItem
			}
		}
	}
	return ctx, nil
}

// buildMatchPattern derives a MatchPattern and its Action from one item,
// using the pop > set > push precedence documented in §4.2 for the
// (supposedly never-occurring) case where a source document sets more than
// one of push/set/pop on the same item.
func buildMatchPattern(item ContextItemDocument) (*Pattern, error) {
	pat := &Pattern{
		Kind:          PatternMatch,
		MatchTemplate: item.Match,
		Scope:         item.Scope,
		Captures:      item.Captures,
	}

	var action *Action
	var err error
	if item.Push != nil {
		action, err = buildAction(ActionPush, item.Push)
	}
	if item.Set != nil {
		action, err = buildAction(ActionSet, item.Set)
	}
	if item.Pop {
		action = &Action{Kind: ActionPop}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	pat.Action = action
	return pat, nil
}

func buildAction(kind ActionKind, t *TargetDocument) (*Action, error) {
	a := &Action{Kind: kind}
	if len(t.Items) > 0 {
		ctx, err := buildContext(t.Items)
		if err != nil {
			return nil, fmt.Errorf("inline context: %w", err)
		}
		a.TargetInline = ctx
		return a, nil
	}
	a.TargetName = t.Name
	return a, nil
}
