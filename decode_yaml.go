package synlex

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a .sublime-syntax-style YAML document into a
// GrammarDocument. This is the primary source format: the grammar
// specification's examples are all written this way.
//
// yaml.v3's Node API exposes a mapping's keys in file order (unlike
// decoding straight into a Go map), so this is also where ContextOrder
// comes from - see contextOrderFromNode below.
func DecodeYAML(data []byte) (GrammarDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return GrammarDocument{}, fmt.Errorf("yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return GrammarDocument{}, fmt.Errorf("yaml: empty document")
	}
	top := root.Content[0]

	var raw map[string]any
	if err := top.Decode(&raw); err != nil {
		return GrammarDocument{}, fmt.Errorf("yaml: %w", err)
	}

	doc, err := buildGrammarDocument(raw, contextOrderFromNode(top))
	if err != nil {
		return GrammarDocument{}, fmt.Errorf("yaml: %w", err)
	}
	return doc, nil
}

// contextOrderFromNode walks the already-parsed yaml.Node tree (rather
// than the decoded map) to recover the "contexts:" mapping's key order.
func contextOrderFromNode(top *yaml.Node) []string {
	if top.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != "contexts" {
			continue
		}
		contexts := top.Content[i+1]
		if contexts.Kind != yaml.MappingNode {
			return nil
		}
		var order []string
		for j := 0; j+1 < len(contexts.Content); j += 2 {
			order = append(order, contexts.Content[j].Value)
		}
		return order
	}
	return nil
}
