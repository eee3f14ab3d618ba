package synlex

import "fmt"

// resolve walks every context reachable from the grammar (named contexts
// plus any anonymous inline contexts nested inside push/set targets) and
// converts late-bound context names on IncludePattern and Push/Set targets
// into resolved *Context pointers, reporting ErrUnknownContext for any name
// that doesn't exist. This is the "late name resolution" pass from §9 of
// the design notes, adapted to Go pointers instead of arena indices - the
// garbage collector makes the arena/ContextId indirection the design notes
// recommend for systems languages unnecessary here (see DESIGN.md).
func (g *Grammar) resolve() error {
	for _, name := range g.contextOrder {
		if err := g.resolveContext(g.contexts[name]); err != nil {
			return fmt.Errorf("context %q: %w", name, err)
		}
	}
	return nil
}

func (g *Grammar) resolveContext(ctx *Context) error {
	for _, pat := range ctx.Patterns {
		switch pat.Kind {
		case PatternInclude:
			target, err := g.Context(pat.IncludeName)
			if err != nil {
				return err
			}
			pat.includeCtx = target
		case PatternMatch:
			if pat.Action == nil || pat.Action.Kind == ActionPop {
				continue
			}
			if pat.Action.TargetInline != nil {
				pat.Action.target = pat.Action.TargetInline
				if err := g.resolveContext(pat.Action.TargetInline); err != nil {
					return err
				}
				continue
			}
			target, err := g.Context(pat.Action.TargetName)
			if err != nil {
				return err
			}
			pat.Action.target = target
		}
	}
	return nil
}

// resolvedTarget returns the context an action pushes/sets into.
func (a *Action) resolvedTarget() *Context {
	return a.target
}

// resolvedInclude returns the context an IncludePattern inlines.
func (p *Pattern) resolvedInclude() *Context {
	return p.includeCtx
}
