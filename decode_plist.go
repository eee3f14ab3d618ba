package synlex

import (
	"fmt"
	"strconv"

	"howett.net/plist"
)

// tmLanguageDocument is the legacy TextMate grammar shape: begin/end/match
// rules nested under "patterns", with named reusable rules under
// "repository". This is a structurally different format from the
// contexts/push/set/pop shape DecodeYAML and DecodeJSON read - plist is
// kept as a source format because a lot of existing grammars are still
// shipped this way, and Sublime Text itself bridges the two formats by
// translating begin/end into a pushed context ending in a pop rule, which
// is exactly what translateRule does below.
type tmLanguageDocument struct {
	ScopeName      string            `plist:"scopeName"`
	FileTypes      []string          `plist:"fileTypes"`
	FirstLineMatch string            `plist:"firstLineMatch"`
	Patterns       []tmRule          `plist:"patterns"`
	Repository     map[string]tmRule `plist:"repository"`
}

type tmRule struct {
	Name          string            `plist:"name"`
	Include       string            `plist:"include"`
	Match         string            `plist:"match"`
	Begin         string            `plist:"begin"`
	End           string            `plist:"end"`
	Captures      map[string]tmRule `plist:"captures"`
	BeginCaptures map[string]tmRule `plist:"beginCaptures"`
	EndCaptures   map[string]tmRule `plist:"endCaptures"`
	Patterns      []tmRule          `plist:"patterns"`
}

// DecodePlist decodes a .tmLanguage plist document into a GrammarDocument
// by translating its begin/end/patterns/repository shape into contexts and
// push/pop actions.
//
// Repository entries here keep their declaration order about as well as
// Go's map type allows, which is to say not at all: plist.Unmarshal
// decodes "repository" into a Go map, so (unlike DecodeYAML/DecodeJSON)
// ContextOrder for repository-derived contexts falls back to map
// iteration order. This only affects Grammar.ContextNames() - never
// tokenization - so it is left unaddressed; see DESIGN.md.
func DecodePlist(data []byte) (GrammarDocument, error) {
	var tm tmLanguageDocument
	if _, err := plist.Unmarshal(data, &tm); err != nil {
		return GrammarDocument{}, fmt.Errorf("plist: %w", err)
	}
	return translateTMLanguage(tm)
}

func translateTMLanguage(tm tmLanguageDocument) (GrammarDocument, error) {
	doc := GrammarDocument{
		Name:           tm.ScopeName,
		Scope:          tm.ScopeName,
		FileExtensions: tm.FileTypes,
		FirstLineMatch: tm.FirstLineMatch,
		Contexts:       make(map[string][]ContextItemDocument),
	}

	mainItems, err := translateRules(tm.Patterns)
	if err != nil {
		return GrammarDocument{}, fmt.Errorf("plist: patterns: %w", err)
	}
	doc.Contexts["main"] = mainItems
	doc.ContextOrder = append(doc.ContextOrder, "main")

	for name, rule := range tm.Repository {
		items, err := translateRule(rule)
		if err != nil {
			return GrammarDocument{}, fmt.Errorf("plist: repository %q: %w", name, err)
		}
		ctxName := "repo:" + name
		doc.Contexts[ctxName] = items
		doc.ContextOrder = append(doc.ContextOrder, ctxName)
	}

	return doc, nil
}

func translateRules(rules []tmRule) ([]ContextItemDocument, error) {
	var items []ContextItemDocument
	for _, r := range rules {
		sub, err := translateRule(r)
		if err != nil {
			return nil, err
		}
		items = append(items, sub...)
	}
	return items, nil
}

// translateRule turns one TextMate rule into zero or more context items.
// include, match and begin/end rules each become a single item; a bare
// container (patterns only, no match/begin/include of its own) has no
// direct equivalent in the contexts model and is simply inlined, which is
// semantically identical since TextMate itself never pushes a stack frame
// for a plain pattern group.
func translateRule(r tmRule) ([]ContextItemDocument, error) {
	switch {
	case r.Include != "":
		name, err := resolveTMInclude(r.Include)
		if err != nil {
			return nil, err
		}
		return []ContextItemDocument{{Include: name}}, nil

	case r.Match != "":
		caps, err := translateCaptures(r.Captures)
		if err != nil {
			return nil, err
		}
		return []ContextItemDocument{{Match: r.Match, Scope: r.Name, Captures: caps}}, nil

	case r.Begin != "" && r.End != "":
		beginCaps, err := translateCaptures(r.BeginCaptures)
		if err != nil {
			return nil, err
		}
		if len(beginCaps) == 0 {
			if beginCaps, err = translateCaptures(r.Captures); err != nil {
				return nil, err
			}
		}
		endCaps, err := translateCaptures(r.EndCaptures)
		if err != nil {
			return nil, err
		}
		if len(endCaps) == 0 {
			if endCaps, err = translateCaptures(r.Captures); err != nil {
				return nil, err
			}
		}
		body, err := translateRules(r.Patterns)
		if err != nil {
			return nil, err
		}
		// The end pattern is listed first so it is checked with priority
		// over the region's own nested patterns at every offset, mirroring
		// how a begin/end region's end always takes precedence in the
		// original TextMate matcher.
		popItem := ContextItemDocument{Match: r.End, Scope: r.Name, Captures: endCaps, Pop: true}
		pushItems := append([]ContextItemDocument{popItem}, body...)
		return []ContextItemDocument{{
			Match:    r.Begin,
			Scope:    r.Name,
			Captures: beginCaps,
			Push:     &TargetDocument{Items: pushItems},
		}}, nil

	case r.Begin != "" || r.End != "":
		return nil, fmt.Errorf("plist: rule has begin or end without the other")

	default:
		return translateRules(r.Patterns)
	}
}

func resolveTMInclude(ref string) (string, error) {
	switch {
	case ref == "$self":
		return "main", nil
	case len(ref) > 0 && ref[0] == '#':
		return "repo:" + ref[1:], nil
	default:
		return "", fmt.Errorf("plist: cross-grammar include %q is not supported (embedded syntax is out of scope)", ref)
	}
}

func translateCaptures(caps map[string]tmRule) (map[int]string, error) {
	if len(caps) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(caps))
	for k, rule := range caps {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("capture group %q is not a number: %w", k, err)
		}
		out[n] = rule.Name
	}
	return out, nil
}
