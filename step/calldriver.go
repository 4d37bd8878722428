package step

// Call drives args through t's methods, in declared order or a weighted
// shuffle of it, until one of them reaches the end of its body and k
// accepts the result.
//
// The determinism cut works by tracking, per method attempted, whether k
// was ever invoked at all — not merely whether it returned true. A method
// whose body reaches its end hands a candidate result to k; if k rejects
// it (returns false, asking for another answer) the method may still try
// further internal alternatives, but once it is truly exhausted, a
// deterministic task stops there rather than asking the next method for a
// different candidate: the task already spent its one answer, it was
// just an answer nothing further up the chain wanted. A non-deterministic
// task (FlagMultipleSolutions) keeps going, since "try another method for
// another answer" is exactly what it promises callers.
func (t *CompoundTask) Call(args []Term, buf *Buffer, env Env, predecessor *MethodCallFrame, k Continuation) bool {
	if len(args) != t.Arity {
		panic(&ArgumentCountError{Task: t.Name, Want: t.Arity, Got: len(args)})
	}

	methods := t.orderedMethods(env)
	deterministic := t.Deterministic()
	anyInvoked := false

	for _, m := range methods {
		invoked := false
		wrapped := func(buf2 *Buffer, env2 Env) bool {
			invoked = true
			return k(buf2, env2)
		}
		if m.Try(args, buf, env, predecessor, wrapped) {
			return true
		}
		if invoked {
			anyInvoked = true
		}
		if deterministic && anyInvoked {
			break
		}
	}

	hook := env.Module.traceHook()
	emitTrace(hook, TraceCallFail, predecessor)

	if !anyInvoked && t.MustSucceed() {
		panic(newCallFailed(t.Name, args, predecessor))
	}
	return false
}

// orderedMethods returns the methods in call order: declared order unless
// Shuffle is set, in which case it returns a weighted (equal-weight)
// Plackett-Luce permutation drawn from the module's RNG.
func (t *CompoundTask) orderedMethods(env Env) []*Method {
	if !t.Flags.Has(FlagShuffle) || len(t.Methods) < 2 {
		return t.Methods
	}
	weights := make([]float64, len(t.Methods))
	for i := range weights {
		weights[i] = 1
	}
	return weightedShuffleMethods(t.Methods, weights, env.Module.rng())
}
