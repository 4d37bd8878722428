package step

import (
	"github.com/google/uuid"
	"github.com/jtolds/gls"
)

// MethodCallFrame records one active method activation: which method it
// is, the fresh local variables allocated for this call, the resolved
// argument values at call time (for stack traces), and the predecessor
// frame it was entered from. It exists purely for diagnostics — proof
// search correctness never reads a frame's Predecessor chain, only
// CurrentFrame readers (trace hooks, error payloads) do.
type MethodCallFrame struct {
	ID          uuid.UUID
	Method      *Method
	Locals      []*LocalVar
	Args        []Term
	Predecessor *MethodCallFrame
}

// Stack returns the frame chain from this frame back to the root, closest
// first, for rendering a step-language stack trace.
func (f *MethodCallFrame) Stack() []*MethodCallFrame {
	var out []*MethodCallFrame
	for cur := f; cur != nil; cur = cur.Predecessor {
		out = append(out, cur)
	}
	return out
}

var glsMgr = gls.NewContextManager()

const frameKey = "step.currentFrame"

// setCurrentFrame scopes CurrentFrame to f for the duration of fn, using
// goroutine-local storage rather than a bare package global so that two
// goroutines each driving their own top-level call never see each other's
// frame (§5: no shared mutable frame pointer across concurrent calls).
func setCurrentFrame(f *MethodCallFrame, fn func()) {
	glsMgr.SetValues(gls.Values{frameKey: f}, fn)
}

// CurrentFrame returns the frame currently executing on this goroutine, or
// nil outside of any method call. It is a diagnostics convenience only —
// nothing in the call driver or unifier consults it.
func CurrentFrame() *MethodCallFrame {
	v, ok := glsMgr.GetValue(frameKey)
	if !ok || v == nil {
		return nil
	}
	f, _ := v.(*MethodCallFrame)
	return f
}
