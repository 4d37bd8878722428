package step

import "math/rand"

// Continuation is the success callback threaded through a step chain: it
// receives the buffer and environment at the point of success and
// reports whether the caller accepts that outcome. Returning false asks
// the step that called it to look for another way to succeed — another
// branch, another method, another binding — which is how backtracking
// happens without any explicit search stack.
type Continuation func(buf *Buffer, env Env) bool

// Step is one link in a step chain. Try attempts this step; on success it
// must have called k exactly as many times as needed to let k's return
// value decide the final result, and on any path where it ultimately
// returns false it must have left buf exactly as it found it (watermark
// in equals watermark out).
type Step interface {
	Try(buf *Buffer, env Env, k Continuation) bool
}

// continueNext hands control to next, or straight to k if next is nil —
// the "null step means do nothing and continue" convention used both at
// the tail of a chain and for a null branch inside a BranchStep.
func continueNext(next Step, buf *Buffer, env Env, k Continuation) bool {
	if next == nil {
		return k(buf, env)
	}
	return next.Try(buf, env, k)
}

// EmitStep appends literal tokens to the buffer and continues.
type EmitStep struct {
	Tokens []string
	Next   Step
}

func (s *EmitStep) Try(buf *Buffer, env Env, k Continuation) bool {
	mark := buf.Len()
	buf.Append(s.Tokens...)
	if continueNext(s.Next, buf, env, k) {
		return true
	}
	buf.Truncate(mark)
	return false
}

// EmitTermStep resolves Term against the current environment and appends
// its textual rendering as a single token — the form a bare ?variable
// takes in a method body, as opposed to EmitStep's static literal text.
type EmitTermStep struct {
	Term Term
	Next Step
}

func (s *EmitTermStep) Try(buf *Buffer, env Env, k Continuation) bool {
	mark := buf.Len()
	buf.Append(env.Resolve(s.Term).String())
	if continueNext(s.Next, buf, env, k) {
		return true
	}
	buf.Truncate(mark)
	return false
}

// BindStep unifies two terms against the local trail and continues with
// the extended environment. It never touches the buffer itself, so there
// is nothing for it to truncate on failure — any buffer state left behind
// was appended (and will be cleaned up) by steps further down the chain.
type BindStep struct {
	A, B Term
	Next Step
}

func (s *BindStep) Try(buf *Buffer, env Env, k Continuation) bool {
	trail, ok := Unify(s.A, s.B, env)
	if !ok {
		return false
	}
	env.Local = trail
	return continueNext(s.Next, buf, env, k)
}

// StateBindStep assigns a module-global state variable, used by
// `initially` bodies and by explicit state-variable assignment in method
// bodies. Unlike BindStep it writes into the dynamic state, not the
// local trail, so the binding can outlive this one call.
type StateBindStep struct {
	SV    StateVar
	Value Term
	Next  Step
}

func (s *StateBindStep) Try(buf *Buffer, env Env, k Continuation) bool {
	val := CopyTerm(s.Value, env)
	env = env.BindState(s.SV, val)
	return continueNext(s.Next, buf, env, k)
}

// CallStep invokes a task by name (or by an already-resolved task value)
// with a resolved argument list, then continues into the rest of this
// chain once the callee succeeds.
type CallStep struct {
	Task Term
	Args []Term
	Next Step
}

func (s *CallStep) Try(buf *Buffer, env Env, k Continuation) bool {
	mark := buf.Len()
	ok := dispatchCall(s.Task, s.Args, buf, env, func(buf2 *Buffer, env2 Env) bool {
		return continueNext(s.Next, buf2, env2, k)
	})
	if !ok {
		buf.Truncate(mark)
	}
	return ok
}

// BranchStep tries each of its alternatives in turn (optionally shuffled),
// threading the environment that alternative left behind into this step's
// own Next before calling k. A nil entry in Branches is a null branch:
// "do nothing and continue" straight through to Next.
type BranchStep struct {
	Branches []Step
	Shuffle  bool
	Next     Step
}

func (s *BranchStep) Try(buf *Buffer, env Env, k Continuation) bool {
	order := s.Branches
	if s.Shuffle {
		order = make([]Step, len(s.Branches))
		copy(order, s.Branches)
		rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	for _, branch := range order {
		mark := buf.Len()
		ok := continueNext(branch, buf, env, func(buf2 *Buffer, env2 Env) bool {
			return continueNext(s.Next, buf2, env2, k)
		})
		if ok {
			return true
		}
		buf.Truncate(mark)
	}
	return false
}
