package synlex

import (
	"fmt"
	"regexp"

	rx "github.com/aldenbrook/synlex/regexp"
)

// variableRef matches a {{name}} reference; name is [A-Za-z0-9_]+ per §4.1.
var variableRef = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// expand resolves every {{name}} in template to the (recursively expanded)
// text of the named variable, memoized per (grammar, template) as allowed
// by §4.1 ("Expansion is memoizable per (grammar, template) pair").
//
// Cycle detection is not implemented, matching §4.1's "Cycle detection is
// not required by source behavior" - a cyclic variable reference recurses
// until Go's stack overflows, which is an acceptable outcome for what §4.1
// calls a grammar-author error.
func (g *Grammar) expand(template string) (string, error) {
	if cached, ok := g.expandCache[template]; ok {
		return cached, nil
	}

	var expandErr error
	expanded := variableRef.ReplaceAllStringFunc(template, func(ref string) string {
		if expandErr != nil {
			return ref
		}
		name := ref[2 : len(ref)-2]
		value, ok := g.variables[name]
		if !ok {
			expandErr = fmt.Errorf("%w: %q", ErrUnknownVariable, name)
			return ref
		}
		value, err := g.expand(value)
		if err != nil {
			expandErr = err
			return ref
		}
		return value
	})
	if expandErr != nil {
		return "", expandErr
	}

	g.expandCache[template] = expanded
	return expanded, nil
}

// compileTemplate expands template and compiles the result into a regex.
func (g *Grammar) compileTemplate(template string) (*rx.Regexp, error) {
	expanded, err := g.expand(template)
	if err != nil {
		return nil, err
	}
	re, err := rx.Compile(expanded)
	if err != nil {
		return nil, fmt.Errorf("pattern %q (expanded from %q): %w", expanded, template, err)
	}
	return re, nil
}

// compilePattern lazily expands and compiles a MatchPattern's regex
// template, caching the result on the pattern itself. Per §4.1, "the
// expander does not compile the regex itself - it emits a string consumed
// by the regex engine"; this is that consumption point.
func (g *Grammar) compilePattern(p *Pattern) (*rx.Regexp, error) {
	if p.compiled != nil {
		return p.compiled, nil
	}
	re, err := g.compileTemplate(p.MatchTemplate)
	if err != nil {
		return nil, err
	}
	p.compiled = re
	return re, nil
}

// validateVariables eagerly expands every match template in the grammar
// (including inline push/set targets and the prototype) so that an unknown
// {{name}} reference is reported as a load-time error rather than
// surfacing only the first time a tokenizer happens to reach that pattern,
// per §4.6's "resolution error" surface.
func (g *Grammar) validateVariables() error {
	seen := make(map[*Context]bool)
	var walk func(ctx *Context) error
	walk = func(ctx *Context) error {
		if ctx == nil || seen[ctx] {
			return nil
		}
		seen[ctx] = true
		for _, pat := range ctx.Patterns {
			if pat.Kind != PatternMatch {
				continue
			}
			if _, err := g.expand(pat.MatchTemplate); err != nil {
				return fmt.Errorf("match %q: %w", pat.MatchTemplate, err)
			}
			if pat.Action != nil && pat.Action.target != nil {
				if err := walk(pat.Action.target); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, name := range g.contextOrder {
		if err := walk(g.contexts[name]); err != nil {
			return fmt.Errorf("context %q: %w", name, err)
		}
	}
	if g.FirstLineMatch != "" {
		if _, err := g.expand(g.FirstLineMatch); err != nil {
			return fmt.Errorf("first_line_match: %w", err)
		}
	}
	return nil
}
