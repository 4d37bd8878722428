package step

// Unify attempts to make a and b equal under env's bindings, returning the
// trail extended with whatever bindings were needed and true on success,
// or the original trail and false on failure. It implements the five
// rules in order: deref both sides first; two identical variables succeed
// without binding anything; an unbound variable on either side binds to
// the other side; two tuples of equal arity unify elementwise, threading
// the trail through each element so earlier bindings are visible to
// later ones; anything else falls back to ground structural equality.
// There is no occurs check — a caller that unifies a variable with a
// tuple containing that same variable gets a binding cycle, not an error.
func Unify(a, b Term, env Env) (Trail, bool) {
	return unify(a, b, env, env.Local)
}

func unify(a, b Term, env Env, trail Trail) (Trail, bool) {
	env.Local = trail
	a = env.Resolve(a)
	b = env.Resolve(b)

	switch {
	case a.Kind == KindVar && b.Kind == KindVar && a.Var == b.Var:
		return trail, true
	case a.Kind == KindVar:
		return trail.Extend(a.Var, b), true
	case b.Kind == KindVar:
		return trail.Extend(b.Var, a), true
	case a.Kind == KindTuple && b.Kind == KindTuple:
		if len(a.Elems) != len(b.Elems) {
			return trail, false
		}
		next := trail
		for i := range a.Elems {
			var ok bool
			next, ok = unify(a.Elems[i], b.Elems[i], env, next)
			if !ok {
				return trail, false
			}
		}
		return next, true
	default:
		if a.Kind != b.Kind {
			return trail, false
		}
		if a.Kind == KindState {
			if a.State == b.State {
				return trail, true
			}
			return trail, false
		}
		if a.Kind == KindGround && a.G.Equal(b.G) {
			return trail, true
		}
		return trail, false
	}
}

// CopyTerm walks t, replacing every bound variable with its fully resolved
// value and recursing into tuples and list cells. An unbound variable
// (after mapping through the active frame) is returned as itself — the
// caller sees the same "still a variable" signal Resolve gives for a
// single term, just applied through the whole structure.
func CopyTerm(t Term, env Env) Term {
	t = env.Resolve(t)
	switch t.Kind {
	case KindTuple:
		elems := make([]Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = CopyTerm(e, env)
		}
		return TupleTerm(elems...)
	case KindGround:
		if t.G.Kind == GList {
			return Term{Kind: KindGround, G: Ground{Kind: GList, List: copyCell(t.G.List, env)}}
		}
		return t
	default:
		return t
	}
}

func copyCell(c *Cell, env Env) *Cell {
	if c == nil {
		return nil
	}
	return &Cell{Head: CopyTerm(c.Head, env), Tail: copyCell(c.Tail, env)}
}
