package synlex

import (
	"bytes"
	"fmt"

	"github.com/segmentio/encoding/json"
)

// DecodeJSON decodes a JSON rendering of a sublime-syntax-shaped grammar
// (the same contexts/match/push/set/pop document shape as DecodeYAML, just
// serialized as JSON - some grammar toolchains emit this instead of YAML)
// into a GrammarDocument.
//
// segmentio/encoding/json is a drop-in, allocation-lean replacement for
// encoding/json; its Decoder exposes the same token-based streaming API,
// which is what contextOrderFromJSON uses below to recover key order that
// a plain Unmarshal into a map would lose.
func DecodeJSON(data []byte) (GrammarDocument, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return GrammarDocument{}, fmt.Errorf("json: %w", err)
	}

	doc, err := buildGrammarDocument(raw, contextOrderFromJSON(data))
	if err != nil {
		return GrammarDocument{}, fmt.Errorf("json: %w", err)
	}
	return doc, nil
}

// contextOrderFromJSON re-scans the raw bytes with a token-based Decoder
// to recover the "contexts" object's key declaration order. Returns nil on
// any shape it doesn't recognize; callers fall back to unordered iteration.
func contextOrderFromJSON(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		if key != "contexts" {
			if err := skipJSONValue(dec); err != nil {
				return nil
			}
			continue
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil
		}
		if d, ok := valTok.(json.Delim); !ok || d != '{' {
			return nil
		}
		keys, err := orderedObjectKeys(dec)
		if err != nil {
			return nil
		}
		return keys
	}
	return nil
}

// orderedObjectKeys reads keys off dec (positioned just after an object's
// opening '{') in declaration order, skipping over each value.
func orderedObjectKeys(dec *json.Decoder) ([]string, error) {
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		keys = append(keys, key)
		if err := skipJSONValue(dec); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return keys, nil
}

// skipJSONValue consumes one complete JSON value (scalar, array, or
// object) from dec without interpreting it.
func skipJSONValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil // scalar
	}
	for dec.More() {
		if d == '{' {
			if _, err := dec.Token(); err != nil { // key
				return err
			}
		}
		if err := skipJSONValue(dec); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing delim
	return err
}
