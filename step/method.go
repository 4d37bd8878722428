package step

import "github.com/google/uuid"

// Method is one clause of a CompoundTask: a pattern (one term per declared
// argument, built from slot-indexed template variables) and a body step
// chain built from the same template variables. Pattern and Body are
// immutable and shared across every call — Try allocates a fresh instance
// variable per declared local slot on each activation instead of mutating
// anything in the method itself, which is what lets the same Method be
// active on many goroutines, or many times on the same goroutine's call
// stack, at once.
type Method struct {
	Task       *CompoundTask
	Pattern    []Term
	Body       Step
	LocalNames []string
}

// NumLocals is the number of fresh instance variables Try must allocate
// per call: one per declared local slot, addressed by Pattern and Body
// through LocalVar.Slot.
func (m *Method) NumLocals() int { return len(m.LocalNames) }

// Try allocates a fresh activation, unifies args against the pattern, and
// on success drives Body with a continuation that hands control back to k
// once CurrentFrame has been restored to predecessor — matching the
// method-exit step of the call driver (§4.E): once this method's body has
// produced a result, the diagnostic notion of "current frame" belongs to
// the caller again, even though Go's own call stack is still nested here.
func (m *Method) Try(args []Term, buf *Buffer, env Env, predecessor *MethodCallFrame, k Continuation) bool {
	locals := make([]*LocalVar, len(m.LocalNames))
	for i, name := range m.LocalNames {
		locals[i] = &LocalVar{Slot: -1, Name: name}
	}
	frame := &MethodCallFrame{ID: uuid.New(), Method: m, Locals: locals, Predecessor: predecessor}

	trail := env.Local
	patEnv := env
	patEnv.Frame = frame
	for i, pat := range m.Pattern {
		t2, ok := unify(pat, args[i], patEnv, trail)
		if !ok {
			return false
		}
		trail = t2
	}

	bodyEnv := Env{Module: env.Module, Frame: frame, Local: trail, Dynamic: env.Dynamic}
	frame.Args = bodyEnv.ResolveList(args)

	hook := env.Module.traceHook()
	var ok bool
	setCurrentFrame(frame, func() {
		emitTrace(hook, TraceEnter, frame)
		ok = continueNext(m.Body, buf, bodyEnv, func(buf2 *Buffer, env2 Env) bool {
			var inner bool
			setCurrentFrame(predecessor, func() {
				emitTrace(hook, TraceSucceed, frame)
				inner = k(buf2, env2)
			})
			return inner
		})
		if !ok {
			emitTrace(hook, TraceMethodFail, frame)
		}
	})
	return ok
}
