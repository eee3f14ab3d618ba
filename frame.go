package synlex

// flattenFrame builds the ordered list of MatchPatterns visible when ctx
// becomes a stack frame (§4.3): the grammar's prototype (if ctx wants it
// and one exists), then ctx's own patterns with IncludePatterns expanded
// in place. Only MatchPatterns survive; the result order is the pattern
// priority order the tokenizer uses.
//
// Results are memoized per *Context on the grammar (frame-flattening
// determinism, §8, is then trivially true: the same slice is returned
// every time), matching §5's "Regex objects may be cached... without
// affecting observable semantics" allowance extended to flattened frames.
func (g *Grammar) flattenFrame(ctx *Context) []*Pattern {
	if cached, ok := g.frameCache[ctx]; ok {
		return cached
	}

	var out []*Pattern
	if ctx.IncludePrototype {
		if proto := g.prototype(); proto != nil {
			out = append(out, g.flattenPatterns(proto.Patterns)...)
		}
	}
	out = append(out, g.flattenPatterns(ctx.Patterns)...)

	g.frameCache[ctx] = out
	return out
}

// flattenPatterns walks an ordered pattern list, replacing each
// IncludePattern with the flattened expansion of the referenced context's
// own pattern list. The prototype is never re-prepended while expanding an
// include - it is only prepended once, at frame construction (§4.3 step 2
// vs step 3).
func (g *Grammar) flattenPatterns(patterns []*Pattern) []*Pattern {
	var out []*Pattern
	for _, pat := range patterns {
		switch pat.Kind {
		case PatternMatch:
			out = append(out, pat)
		case PatternInclude:
			target := pat.resolvedInclude()
			if target == nil {
				continue
			}
			out = append(out, g.flattenPatterns(target.Patterns)...)
		}
	}
	return out
}
