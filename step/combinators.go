package step

import "github.com/shopspring/decimal"

// CombinatorKind selects which higher-order combinator a HigherOrderStep
// implements.
type CombinatorKind uint8

const (
	CombDoAll CombinatorKind = iota
	CombOnce
	CombExactlyOnce
	CombMax
	CombMin
)

// CallSpec is one call tuple inside a combinator's body.
type CallSpec struct {
	Task Term
	Args []Term
}

// BuildBody chains specs right-to-left into a Step, the same way a method
// body is built from its call tuples at parse time.
func BuildBody(specs []CallSpec) Step {
	var head Step
	for i := len(specs) - 1; i >= 0; i-- {
		head = &CallStep{Task: specs[i].Task, Args: specs[i].Args, Next: head}
	}
	return head
}

// HigherOrderStep drives Body with a combinator-specific continuation
// instead of simply chaining to Next. Score is only meaningful for
// CombMax/CombMin: a term (typically a variable bound somewhere inside
// Body) resolved and compared as a number at each of Body's successes.
type HigherOrderStep struct {
	Kind  CombinatorKind
	Body  Step
	Score Term
	Next  Step
}

func (s *HigherOrderStep) Try(buf *Buffer, env Env, k Continuation) bool {
	switch s.Kind {
	case CombDoAll:
		return s.doAll(buf, env, k)
	case CombOnce:
		return s.once(buf, env, k)
	case CombExactlyOnce:
		return s.exactlyOnce(buf, env, k)
	case CombMax:
		return s.extreme(buf, env, k, true)
	case CombMin:
		return s.extreme(buf, env, k, false)
	default:
		panic("step: unknown combinator kind")
	}
}

// doAll enumerates every solution of Body, replays their output in the
// order found, and always continues — a body with zero solutions emits
// nothing but does not fail the combinator itself.
func (s *HigherOrderStep) doAll(buf *Buffer, env Env, k Continuation) bool {
	mark := buf.Len()
	var solutions [][]string
	continueNext(s.Body, buf, env, func(buf2 *Buffer, env2 Env) bool {
		solutions = append(solutions, buf2.Difference(mark))
		return false
	})
	buf.Truncate(mark)
	for _, sol := range solutions {
		buf.AppendSlice(sol)
	}
	if continueNext(s.Next, buf, env, k) {
		return true
	}
	buf.Truncate(mark)
	return false
}

// once commits to Body's first solution and never lets it try a second,
// even if the rest of the chain subsequently rejects that first solution.
// That commitment is the one thing an ordinary false-returning
// continuation cannot express — returning false here would invite Body's
// own internal choice points to look for a second solution — so once
// raises a NonLocalExit tagged to this activation the instant the first
// solution is attempted, unwinding Body's search unconditionally.
func (s *HigherOrderStep) once(buf *Buffer, env Env, k Continuation) bool {
	mark := buf.Len()
	tag := new(int)
	accepted := false
	func() {
		defer func() {
			if r := recover(); r == nil {
				return
			} else if nle, ok := r.(*NonLocalExit); ok && nle.Tag == tag {
				accepted = nle.Payload.(bool)
			} else {
				panic(r)
			}
		}()
		continueNext(s.Body, buf, env, func(buf2 *Buffer, env2 Env) bool {
			result := continueNext(s.Next, buf2, env2, k)
			panic(&NonLocalExit{Tag: tag, Payload: result})
		})
	}()
	if !accepted {
		buf.Truncate(mark)
	}
	return accepted
}

// exactlyOnce commits to Body's first solution exactly like once — the
// same NonLocalExit unwind, the same refusal to let Body look for a second
// solution once the rest of the chain has accepted the first. The one
// thing that sets it apart from once is what happens when Body has no
// solution at all: once simply fails, but exactlyOnce raises CallFailed
// naming Body's first call, since a body that is supposed to always
// produce exactly one answer finding none is a hard failure, not a normal
// backtracking dead end.
func (s *HigherOrderStep) exactlyOnce(buf *Buffer, env Env, k Continuation) bool {
	mark := buf.Len()
	tag := new(int)
	accepted := false
	found := false
	func() {
		defer func() {
			if r := recover(); r == nil {
				return
			} else if nle, ok := r.(*NonLocalExit); ok && nle.Tag == tag {
				accepted = nle.Payload.(bool)
			} else {
				panic(r)
			}
		}()
		continueNext(s.Body, buf, env, func(buf2 *Buffer, env2 Env) bool {
			found = true
			result := continueNext(s.Next, buf2, env2, k)
			panic(&NonLocalExit{Tag: tag, Payload: result})
		})
	}()
	if !found {
		buf.Truncate(mark)
		panic(newCallFailed(firstCallName(s.Body), nil, CurrentFrame()))
	}
	if !accepted {
		buf.Truncate(mark)
	}
	return accepted
}

// firstCallName walks past the leading non-call steps of a body chain
// (emitted text, bindings) to name the first actual task call in it, for
// CallFailed's error message. A body with no call at all (pure text and
// bindings) reports as "<body>".
func firstCallName(s Step) string {
	for {
		switch v := s.(type) {
		case *EmitStep:
			s = v.Next
		case *EmitTermStep:
			s = v.Next
		case *BindStep:
			s = v.Next
		case *StateBindStep:
			s = v.Next
		case *CallStep:
			if v.Task.Kind == KindGround && v.Task.G.Kind == GTaskRef {
				return v.Task.G.Str
			}
			return "<body>"
		case *HigherOrderStep:
			s = v.Body
		default:
			return "<body>"
		}
	}
}

// extreme enumerates every solution of Body and keeps the one whose
// resolved Score is greatest (wantMax) or least, replaying only that
// solution's output before continuing with its environment.
func (s *HigherOrderStep) extreme(buf *Buffer, env Env, k Continuation, wantMax bool) bool {
	mark := buf.Len()
	var bestDiff []string
	var bestEnv Env
	var bestScore decimal.Decimal
	have := false

	continueNext(s.Body, buf, env, func(buf2 *Buffer, env2 Env) bool {
		v := env2.Resolve(s.Score)
		if v.Kind == KindVar {
			panic(&ArgumentInstantiationError{Task: "Max/Min", Pos: 0})
		}
		if v.Kind != KindGround || v.G.Kind != GNumber {
			panic(&ArgumentTypeError{Task: "Max/Min", Pos: 0, Want: "number", Got: v})
		}
		if !have || (wantMax && v.G.Num.GreaterThan(bestScore)) || (!wantMax && v.G.Num.LessThan(bestScore)) {
			bestDiff = buf2.Difference(mark)
			bestEnv = env2
			bestScore = v.G.Num
			have = true
		}
		return false
	})
	buf.Truncate(mark)
	if !have {
		return false
	}
	buf.AppendSlice(bestDiff)
	if continueNext(s.Next, buf, bestEnv, k) {
		return true
	}
	buf.Truncate(mark)
	return false
}
