package step

// Flags are the per-task behavior switches named by the data model:
// Shuffle randomizes method order per call, MultipleSolutions opts out of
// the single-answer determinism cut, Fallible permits a call to come up
// empty without raising CallFailedError, and Main marks a task as a
// possible program entry point for tooling. The engine itself never reads
// Main.
type Flags uint8

const (
	FlagShuffle Flags = 1 << iota
	FlagMultipleSolutions
	FlagFallible
	FlagMain
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// CompoundTask is a named, fixed-arity collection of methods tried in
// order (or shuffled) until one succeeds. Flags accumulate monotonically
// across AddMethod calls — a task becomes shuffled, multi-solution,
// fallible, or main the moment any added method asks for it, and stays
// that way until EraseMethods resets it to a blank slate.
type CompoundTask struct {
	Name    string
	Arity   int
	Methods []*Method
	Flags   Flags
}

// AddMethod appends m to the task's method list and unions flags into the
// task's own flag set. It panics with ArgumentCountError if m's pattern
// arity does not match the task's declared arity.
func (t *CompoundTask) AddMethod(m *Method, flags Flags) {
	if len(m.Pattern) != t.Arity {
		panic(&ArgumentCountError{Task: t.Name, Want: t.Arity, Got: len(m.Pattern)})
	}
	m.Task = t
	t.Methods = append(t.Methods, m)
	t.Flags |= flags
}

// EraseMethods clears every method this task has and resets its flags to
// empty, so a subsequent AddMethod starts the task's behavior from
// scratch rather than inheriting stale Shuffle/MultipleSolutions/Fallible
// state from a previous definition. This is the resolution of the open
// question left implicit by method-replacement semantics: redefining a
// task from nothing should not be able to observe flags set by the
// definition it is replacing.
func (t *CompoundTask) EraseMethods() {
	t.Methods = nil
	t.Flags = 0
}

func (t *CompoundTask) Deterministic() bool { return !t.Flags.Has(FlagMultipleSolutions) }
func (t *CompoundTask) MustSucceed() bool   { return !t.Flags.Has(FlagFallible) }
