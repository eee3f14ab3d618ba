package synlex

// stackFrame is the runtime instance of a Context on the parse stack: a
// reference to the context plus its pre-flattened pattern list (§3 Frame).
type stackFrame struct {
	ctx      *Context
	patterns []*Pattern
}

// ParseState is a grammar handle plus a non-empty stack of frames. The
// stack is never empty: NewParseState seeds it with the main context, and
// pop is a no-op once only one frame remains (§3's "pop that would empty
// the stack... is a no-op").
type ParseState struct {
	grammar *Grammar
	stack   []*stackFrame
}

// NewParseState creates a ParseState for g with its stack initialized to
// a single frame for the main context.
func NewParseState(g *Grammar) *ParseState {
	ps := &ParseState{grammar: g}
	ps.stack = []*stackFrame{ps.newFrame(g.MainContext())}
	return ps
}

// Grammar returns the grammar this state was created from.
func (ps *ParseState) Grammar() *Grammar {
	return ps.grammar
}

// Depth returns the current stack depth (1 immediately after New).
func (ps *ParseState) Depth() int {
	return len(ps.stack)
}

func (ps *ParseState) newFrame(ctx *Context) *stackFrame {
	return &stackFrame{ctx: ctx, patterns: ps.grammar.flattenFrame(ctx)}
}

func (ps *ParseState) top() *stackFrame {
	return ps.stack[len(ps.stack)-1]
}

func (ps *ParseState) pushContext(ctx *Context) {
	ps.stack = append(ps.stack, ps.newFrame(ctx))
}

func (ps *ParseState) setContext(ctx *Context) {
	ps.stack[len(ps.stack)-1] = ps.newFrame(ctx)
}

func (ps *ParseState) popContext() {
	if len(ps.stack) <= 1 {
		return
	}
	ps.stack = ps.stack[:len(ps.stack)-1]
}

// currentScopes returns the outer-to-inner active scope list (§4.4).
// includeInnermostMetaScope controls whether the topmost frame's
// meta_scope is included - false is used exactly once, for the token that
// triggers a Pop out of that frame.
func (ps *ParseState) currentScopes(includeInnermostMetaScope bool) []string {
	var scopes []string
	if ps.grammar.Scope != "" {
		scopes = append(scopes, ps.grammar.Scope)
	}
	n := len(ps.stack)
	for i, f := range ps.stack {
		isTop := i == n-1
		if !isTop || includeInnermostMetaScope {
			if f.ctx.MetaScope != "" {
				scopes = append(scopes, f.ctx.MetaScope)
			}
		}
		if f.ctx.MetaContentScope != "" {
			scopes = append(scopes, f.ctx.MetaContentScope)
		}
	}
	return scopes
}
