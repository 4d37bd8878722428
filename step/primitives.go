package step

// The primitive ABI: a module author registers a Go function under a
// state-variable name, and calls to that name dispatch to it exactly like
// a call to a compound task (§6). The three shapes cover everything a
// primitive needs to do: produce text deterministically, test a condition,
// or drive the continuation itself.

// DeterministicTextGenerator produces zero or more tokens from its
// resolved arguments and always succeeds exactly once; the driver appends
// its tokens to the buffer and continues.
type DeterministicTextGenerator func(args []Term, buf *Buffer, env Env) []string

// Predicate tests its resolved arguments and either continues (true) or
// fails the call outright (false); it never produces text itself.
type Predicate func(args []Term, buf *Buffer, env Env) bool

// MetaTask receives the continuation directly, so it can call it zero,
// one, or many times — the shape every higher-order combinator and any
// primitive that needs its own control flow (e.g. a primitive performing
// its own internal backtracking) is built from.
type MetaTask func(args []Term, buf *Buffer, env Env, k Continuation) bool

// dispatchCall resolves target to a callable value and invokes it. target
// is expected to resolve to a GTaskRef (call by name, looked up against
// env.Module) or a GTaskVal (an already-resolved callable, e.g. one
// flowing through a variable after a higher-order bind). args are resolved
// against env before the callee ever sees them.
func dispatchCall(target Term, args []Term, buf *Buffer, env Env, k Continuation) bool {
	resolved := env.Resolve(target)
	resolvedArgs := env.ResolveList(args)

	var callable any
	switch {
	case resolved.Kind == KindGround && resolved.G.Kind == GTaskVal:
		callable = resolved.G.Task
	case resolved.Kind == KindGround && resolved.G.Kind == GTaskRef:
		c, err := env.Module.resolveCallable(resolved.G.Str, len(resolvedArgs))
		if err != nil {
			panic(err)
		}
		callable = c
	default:
		panic(&ArgumentTypeError{Task: "call", Pos: 0, Want: "task reference", Got: resolved})
	}

	return invoke(callable, resolvedArgs, buf, env, k)
}

func invoke(callable any, args []Term, buf *Buffer, env Env, k Continuation) bool {
	switch fn := callable.(type) {
	case *CompoundTask:
		return fn.Call(args, buf, env, CurrentFrame(), k)
	case DeterministicTextGenerator:
		toks := fn(args, buf, env)
		buf.Append(toks...)
		return k(buf, env)
	case Predicate:
		if !fn(args, buf, env) {
			return false
		}
		return k(buf, env)
	case MetaTask:
		return fn(args, buf, env, k)
	default:
		panic(&ArgumentTypeError{Task: "call", Pos: 0, Want: "callable", Got: Term{}})
	}
}
