package step

// Env bundles the four pieces of context a step needs to run: the module
// it is executing against, the active call frame (for slot-addressed
// pattern variables and diagnostics), the local trail, and the dynamic
// state. It is deliberately a value, not a pointer — passing it down a
// step chain is a cheap copy, and Extend/BindState return a new Env
// instead of mutating the one they were given, so a continuation can keep
// a stale Env around across a backtrack without it changing underfoot.
type Env struct {
	Module  *Module
	Frame   *MethodCallFrame
	Local   Trail
	Dynamic State
}

// Extend returns an Env whose local trail additionally binds v to val.
func (e Env) Extend(v *LocalVar, val Term) Env {
	e.Local = e.Local.Extend(v, val)
	return e
}

// BindState returns an Env whose dynamic state additionally binds sv to
// val.
func (e Env) BindState(sv StateVar, val Term) Env {
	e.Dynamic = e.Dynamic.Extend(sv, val)
	return e
}

// instance maps a pattern-template variable (Slot >= 0) to the fresh
// instance variable the active frame allocated for that slot. A
// free-standing variable (Slot == -1) maps to itself.
func (e Env) instance(v *LocalVar) *LocalVar {
	if v.Slot < 0 {
		return v
	}
	if e.Frame == nil || v.Slot >= len(e.Frame.Locals) {
		panic("step: pattern variable slot out of range for active frame")
	}
	return e.Frame.Locals[v.Slot]
}

// Resolve dereferences t through the local trail, mapping any
// pattern-template variable to its frame instance first. The result is
// either a non-variable term, or an unbound instance variable — never a
// pattern-template variable, and never a variable bound further down the
// chain (dereferencing is exhaustive). Resolving an already-resolved term
// again yields the same term, matching the idempotence property (§8.1).
func (e Env) Resolve(t Term) Term {
	for t.Kind == KindVar {
		inst := e.instance(t.Var)
		val, ok := e.Local.Lookup(inst)
		if !ok {
			return VarTerm(inst)
		}
		t = val
	}
	return t
}

// ResolveList resolves every element of ts independently.
func (e Env) ResolveList(ts []Term) []Term {
	out := make([]Term, len(ts))
	for i, t := range ts {
		out[i] = e.Resolve(t)
	}
	return out
}

// ResolveState dereferences a state variable against the dynamic state,
// falling through to the module's own lookup chain (its own dictionary,
// its parent chain, and its bind hooks) when no dynamic binding exists.
func (e Env) ResolveState(sv StateVar) (Term, bool) {
	if val, ok := e.Dynamic.Lookup(sv); ok {
		return val, true
	}
	if e.Module != nil {
		return e.Module.Get(sv)
	}
	return Term{}, false
}
