package synlex

import (
	"fmt"
	"strconv"
)

// buildGrammarDocument turns a generically-decoded document (the
// map[string]any/[]any shape both YAML and JSON give you for an untyped
// target) into a GrammarDocument. Shared by decode_yaml.go and
// decode_json.go so the §4.2 item-shape rules are implemented exactly
// once; decode_plist.go deals with a structurally different source format
// (TextMate's begin/end/patterns/repository shape) and has its own
// translator in decode_plist.go.
func buildGrammarDocument(raw map[string]any, contextOrder []string) (GrammarDocument, error) {
	doc := GrammarDocument{
		Name:           asString(raw["name"]),
		Scope:          asString(raw["scope"]),
		FirstLineMatch: asString(raw["first_line_match"]),
		FileExtensions: stringSliceField(raw, "file_extensions"),
		Variables:      stringMapField(raw, "variables"),
		Contexts:       make(map[string][]ContextItemDocument),
	}

	contextsRaw, _ := raw["contexts"].(map[string]any)
	for name, v := range contextsRaw {
		items, err := buildItemList(v)
		if err != nil {
			return GrammarDocument{}, fmt.Errorf("context %q: %w", name, err)
		}
		doc.Contexts[name] = items
	}

	if len(contextOrder) == len(doc.Contexts) {
		doc.ContextOrder = contextOrder
	} else {
		for name := range doc.Contexts {
			doc.ContextOrder = append(doc.ContextOrder, name)
		}
	}
	return doc, nil
}

func buildItemList(v any) ([]ContextItemDocument, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a sequence of items, got %T", v)
	}
	items := make([]ContextItemDocument, 0, len(seq))
	for _, rawItem := range seq {
		m, ok := rawItem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a mapping item, got %T", rawItem)
		}
		item, err := buildItem(m)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func buildItem(m map[string]any) (ContextItemDocument, error) {
	var item ContextItemDocument

	if v, ok := m["meta_scope"]; ok {
		s := asString(v)
		item.MetaScope = &s
	}
	if v, ok := m["meta_content_scope"]; ok {
		s := asString(v)
		item.MetaContentScope = &s
	}
	if v, ok := m["meta_include_prototype"]; ok {
		b := asBool(v)
		item.MetaIncludePrototype = &b
	}
	if v, ok := m["clear_scopes"]; ok {
		cs := buildClearScopes(v)
		item.ClearScopes = &cs
	}
	if v, ok := m["include"]; ok {
		item.Include = asString(v)
	}
	if v, ok := m["match"]; ok {
		item.Match = asString(v)
	}
	if v, ok := m["scope"]; ok {
		item.Scope = asString(v)
	}
	if v, ok := m["captures"]; ok {
		caps, err := buildCaptures(v)
		if err != nil {
			return item, err
		}
		item.Captures = caps
	}
	if v, ok := m["push"]; ok {
		t, err := buildTarget(v)
		if err != nil {
			return item, err
		}
		item.Push = t
	}
	if v, ok := m["set"]; ok {
		t, err := buildTarget(v)
		if err != nil {
			return item, err
		}
		item.Set = t
	}
	if v, ok := m["pop"]; ok {
		item.Pop = asBool(v)
	}

	if item.MetaScope == nil && item.MetaContentScope == nil && item.MetaIncludePrototype == nil &&
		item.ClearScopes == nil && item.Include == "" && item.Match == "" {
		return item, ErrMalformedItem
	}
	return item, nil
}

func buildTarget(v any) (*TargetDocument, error) {
	switch t := v.(type) {
	case string:
		return &TargetDocument{Name: t}, nil
	case []any:
		items, err := buildItemList(t)
		if err != nil {
			return nil, err
		}
		return &TargetDocument{Items: items}, nil
	default:
		return nil, fmt.Errorf("push/set target must be a string or a sequence, got %T", v)
	}
}

func buildCaptures(v any) (map[int]string, error) {
	// yaml.v3 decodes a mapping with integer keys (captures: {1: ...}) as
	// map[any]any rather than map[string]any.
	if gm, ok := v.(map[any]any); ok {
		sm := make(map[string]any, len(gm))
		for k, raw := range gm {
			sm[fmt.Sprint(k)] = raw
		}
		v = sm
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("captures must be a mapping, got %T", v)
	}
	out := make(map[int]string, len(m))
	for k, raw := range m {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("capture group %q is not a number: %w", k, err)
		}
		out[n] = asString(raw)
	}
	return out, nil
}

func buildClearScopes(v any) ClearScopesDocument {
	switch t := v.(type) {
	case bool:
		return ClearScopesDocument{IsBool: true, Bool: t}
	case int:
		return ClearScopesDocument{N: t}
	case int64:
		return ClearScopesDocument{N: int(t)}
	case float64:
		return ClearScopesDocument{N: int(t)}
	default:
		return ClearScopesDocument{}
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func stringSliceField(raw map[string]any, key string) []string {
	seq, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, v := range seq {
		out = append(out, asString(v))
	}
	return out
}

func stringMapField(raw map[string]any, key string) map[string]string {
	m, ok := raw[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = asString(v)
	}
	return out
}
