package synlex

import (
	"sort"

	rx "github.com/aldenbrook/synlex/regexp"
)

// Token is a scoped span: Text is a substring of the line it came from, and
// Scopes is the outer-to-inner list of active scope names (§3, §6). The
// concatenation of every Token.Text returned for a line always equals that
// line (§8's quantified invariant).
type Token struct {
	Text   string   `json:"text"`
	Scopes []string `json:"scopes"`
}

// ParseLine tokenizes one line of text against the current frame,
// mutating the parse stack as push/set/pop actions fire, and returns the
// ordered token list for that line (§4.5). Tokenization never errors on
// the content of line; an error return here means a grammar-level problem:
// a pattern whose expanded regex failed to compile. Compile expands every
// match template but compiles the regexes lazily, on first use here.
func (ps *ParseState) ParseLine(line string) ([]Token, error) {
	runes := []rune(line)
	var tokens []Token
	pos := 0

	for pos < len(runes) {
		snippet := runes[pos:]
		frame := ps.top()

		pat, match, err := ps.bestMatch(frame.patterns, snippet)
		if err != nil {
			return nil, err
		}
		if pat == nil {
			tokens = append(tokens, Token{Text: string(snippet), Scopes: ps.currentScopes(true)})
			break
		}

		whole := match.Group(0)

		// Defensive guard against a zero-width match exactly at the
		// cursor (§4.5 edge case / §9 open question): without this, a
		// pattern matching the empty string at offset 0 would never
		// advance pos. The source would loop; we skip one rune instead.
		if whole.Start == 0 && whole.Len() == 0 {
			tokens = append(tokens, Token{Text: string(runes[pos : pos+1]), Scopes: ps.currentScopes(true)})
			pos++
			continue
		}

		if whole.Start > 0 {
			tokens = append(tokens, Token{Text: string(snippet[:whole.Start]), Scopes: ps.currentScopes(true)})
		}

		scopes := ps.applyAction(pat)
		if pat.Scope != "" {
			scopes = append(scopes, pat.Scope)
		}

		tokens = append(tokens, decomposeCaptures(snippet, match, pat, scopes)...)

		pos += whole.End
	}

	return tokens, nil
}

// applyAction executes pat's action (if any), mutating ps.stack, and
// returns the scope list that applies to the span that triggered the
// match - which frame's meta_scope is visible depends on the action kind,
// per §4.5 step 5.
func (ps *ParseState) applyAction(pat *Pattern) []string {
	action := pat.Action
	if action == nil {
		return ps.currentScopes(true)
	}

	switch action.Kind {
	case ActionPush:
		scopes := ps.currentScopes(true)
		target := action.resolvedTarget()
		ps.pushContext(target)
		if target.MetaScope != "" {
			scopes = append(scopes, target.MetaScope)
		}
		return scopes
	case ActionSet:
		target := action.resolvedTarget()
		ps.setContext(target)
		return ps.currentScopes(true)
	case ActionPop:
		scopes := ps.currentScopes(false)
		ps.popContext()
		return scopes
	default:
		return ps.currentScopes(true)
	}
}

// bestMatch implements §4.5 step 2: search every pattern in frame order,
// preferring the first pattern that matches at offset 0 outright, else the
// match with the smallest start offset (first in list order on a tie).
func (ps *ParseState) bestMatch(patterns []*Pattern, snippet []rune) (*Pattern, *rx.Match, error) {
	var bestPat *Pattern
	var bestMatch *rx.Match

	for _, pat := range patterns {
		re, err := ps.grammar.compilePattern(pat)
		if err != nil {
			return nil, nil, err
		}
		m, err := re.FindRunesMatch(snippet)
		if err != nil {
			return nil, nil, err
		}
		if m == nil {
			continue
		}
		if m.Group(0).Start == 0 {
			return pat, m, nil
		}
		if bestMatch == nil || m.Group(0).Start < bestMatch.Group(0).Start {
			bestPat, bestMatch = pat, m
		}
	}
	return bestPat, bestMatch, nil
}

// decomposeCaptures implements §4.5 step 7: with no captures map, the
// whole match is one token; otherwise walk group numbers ascending,
// emitting an unscoped token for any gap between captures and a
// capture-scoped token for each non-empty, participating group.
func decomposeCaptures(snippet []rune, match *rx.Match, pat *Pattern, scopes []string) []Token {
	whole := match.Group(0)

	if len(pat.Captures) == 0 {
		return []Token{{Text: string(snippet[whole.Start:whole.End]), Scopes: cloneScopes(scopes)}}
	}

	groupNums := make([]int, 0, len(pat.Captures))
	for g := range pat.Captures {
		groupNums = append(groupNums, g)
	}
	sort.Ints(groupNums)

	var tokens []Token
	p := whole.Start
	for _, g := range groupNums {
		if g >= match.NumGroups() {
			continue
		}
		rng := match.Group(g)
		if !rng.Participated() || rng.Len() == 0 {
			continue
		}
		if rng.Start > p {
			tokens = append(tokens, Token{Text: string(snippet[p:rng.Start]), Scopes: cloneScopes(scopes)})
		}
		capScopes := append(cloneScopes(scopes), pat.Captures[g])
		tokens = append(tokens, Token{Text: string(snippet[rng.Start:rng.End]), Scopes: capScopes})
		p = rng.End
	}
	if p < whole.End {
		tokens = append(tokens, Token{Text: string(snippet[p:whole.End]), Scopes: cloneScopes(scopes)})
	}
	return tokens
}

func cloneScopes(scopes []string) []string {
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out
}
