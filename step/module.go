package step

import (
	"math/rand"
	"sync"

	"github.com/google/btree"
	"golang.org/x/text/cases"
)

// BindHook resolves a state-variable name against something outside the
// module tree entirely — a SQL table, a remote service, a config file.
// A value a hook finds is cached into the *initiating* module (the one
// Get was first called on), not into the hook's owner, so a hook backed
// by a slow lookup only ever pays that cost once per name per call chain
// that actually needed it.
type BindHook interface {
	Lookup(name string) (Term, bool)
}

type taskKey struct {
	name  string
	arity int
}

type dictEntry struct {
	sv  StateVar
	val Term
}

func dictLess(a, b dictEntry) bool { return a.sv.Name() < b.sv.Name() }

// Module is the mapping from state-variable identity to value, plus the
// task dictionary, a parent chain for lookups that fall through, and the
// bind hooks and default-binding table consulted once everything else
// misses.
type Module struct {
	Parent *Module

	mu    sync.RWMutex
	dict  *btree.BTreeG[dictEntry]
	tasks map[taskKey]*CompoundTask

	BindHooks       []BindHook
	defaultBindings map[string]func(*Module) Term

	hook     TraceHook
	Formatter cases.Caser
	hasFmt   bool

	randMu sync.Mutex
	random *rand.Rand
}

// NewModule creates a module with no parent and no tasks. Write is seeded
// into its dictionary, and Mention (resolving to the same Write primitive)
// is the one entry of its default-binding table.
func NewModule() *Module {
	m := &Module{
		dict:            btree.NewG(32, dictLess),
		tasks:           map[taskKey]*CompoundTask{},
		defaultBindings: map[string]func(*Module) Term{},
	}
	write := TaskVal(DeterministicTextGenerator(defaultWrite))
	m.dict.ReplaceOrInsert(dictEntry{sv: InternStateVar("Write"), val: write})
	m.defaultBindings["Mention"] = func(mod *Module) Term { return write }
	return m
}

// NewChildModule creates a module whose lookups fall through to parent
// when its own dictionary and tasks have nothing for a given name.
func NewChildModule(parent *Module) *Module {
	m := NewModule()
	m.Parent = parent
	return m
}

func defaultWrite(args []Term, buf *Buffer, env Env) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = env.Resolve(a).String()
	}
	return out
}

// SetTraceHook installs hook as the receiver of every TraceEvent this
// module's methods emit. A nil hook silences tracing again.
func (m *Module) SetTraceHook(hook TraceHook) { m.hook = hook }

func (m *Module) traceHook() TraceHook {
	if m == nil {
		return nil
	}
	return m.hook
}

// SetFormatter installs a golang.org/x/text caser applied to a call's
// final output before it is handed back to the caller — the "tokenised
// to string via a formatter" step of the top-level call sequence.
func (m *Module) SetFormatter(c cases.Caser) {
	m.Formatter = c
	m.hasFmt = true
}

func (m *Module) format(s string) string {
	if !m.hasFmt {
		return s
	}
	return m.Formatter.String(s)
}

// SetSeed fixes the module's RNG, making Shuffle-flagged tasks produce a
// reproducible method order across runs — useful for tests and for
// replaying a generation deterministically.
func (m *Module) SetSeed(seed int64) {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	m.random = rand.New(rand.NewSource(seed))
}

func (m *Module) rng() *rand.Rand {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	if m.random == nil {
		m.random = rand.New(rand.NewSource(1))
	}
	return m.random
}

func (m *Module) dictGet(sv StateVar) (Term, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.dict.Get(dictEntry{sv: sv})
	if !ok {
		return Term{}, false
	}
	return item.val, true
}

func (m *Module) dictSet(sv StateVar, v Term) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dict.ReplaceOrInsert(dictEntry{sv: sv, val: v})
}

// Get resolves sv against this module's own dictionary, then its parent
// chain, then its bind hooks, then its default-binding table. Whichever
// of those produces a value gets cached back into m (the initiating
// module), so a later lookup of the same name on m is O(log n) against
// its own dictionary rather than repeating the whole chain.
func (m *Module) Get(sv StateVar) (Term, bool) { return m.getFor(sv, m) }

func (m *Module) getFor(sv StateVar, initiator *Module) (Term, bool) {
	if v, ok := m.dictGet(sv); ok {
		return v, true
	}
	if m.Parent != nil {
		if v, ok := m.Parent.getFor(sv, initiator); ok {
			initiator.dictSet(sv, v)
			return v, true
		}
	}
	for _, h := range m.BindHooks {
		if v, ok := h.Lookup(sv.Name()); ok {
			initiator.dictSet(sv, v)
			return v, true
		}
	}
	if fn, ok := m.defaultBindings[sv.Name()]; ok {
		v := fn(m)
		initiator.dictSet(sv, v)
		return v, true
	}
	return Term{}, false
}

// Set assigns sv directly in this module's own dictionary, bypassing
// bind hooks and the parent chain. Used by `initially` method bodies
// whose surviving dynamic bindings become module state (§6).
func (m *Module) Set(sv StateVar, v Term) { m.dictSet(sv, v) }

// Dump returns every entry in this module's own dictionary, ordered by
// name — deterministic, unlike a map range, which is what the btree
// buys here over a plain map[StateVar]Term.
func (m *Module) Dump() []struct {
	Name  string
	Value Term
} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []struct {
		Name  string
		Value Term
	}
	m.dict.Ascend(func(e dictEntry) bool {
		out = append(out, struct {
			Name  string
			Value Term
		}{Name: e.sv.Name(), Value: e.val})
		return true
	})
	return out
}

// FindTask looks up the task named name with the given arity, optionally
// creating it (with no methods yet) if absent.
func (m *Module) FindTask(name string, arity int, createIfNeeded bool) (*CompoundTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := taskKey{name: name, arity: arity}
	t, ok := m.tasks[key]
	if !ok && m.Parent != nil {
		if pt, pok := m.Parent.FindTask(name, arity, false); pok {
			return pt, true
		}
	}
	if !ok && createIfNeeded {
		t = &CompoundTask{Name: name, Arity: arity}
		m.tasks[key] = t
		ok = true
	}
	return t, ok
}

func (m *Module) resolveCallable(name string, arity int) (any, error) {
	if t, ok := m.FindTask(name, arity, false); ok {
		return t, nil
	}
	sv := InternStateVar(name)
	if v, ok := m.Get(sv); ok {
		if v.Kind == KindGround && v.G.Kind == GTaskVal {
			return v.G.Task, nil
		}
		return nil, &ArgumentTypeError{Task: name, Pos: 0, Want: "callable", Got: v}
	}
	return nil, &UndefinedVariableError{Name: name}
}

// Definition is one parsed method definition, as handed to AddDefinitions
// by the external method-definition front end (package parse / loader).
type Definition struct {
	TaskName   string
	Pattern    []Term
	Body       Step
	LocalNames []string
	Flags      Flags
}

// AddDefinitions registers each definition as a method on its named task,
// creating the task on first use. Flags accumulate monotonically — see
// CompoundTask.AddMethod — so redefining a task without first calling
// EraseMethods only ever adds methods, never removes or resets flags.
func (m *Module) AddDefinitions(defs []Definition) error {
	for _, d := range defs {
		task, _ := m.FindTask(d.TaskName, len(d.Pattern), true)
		method := &Method{Pattern: d.Pattern, Body: d.Body, LocalNames: d.LocalNames}
		task.AddMethod(method, d.Flags)
	}
	return nil
}

func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	panic(r)
}

// Call invokes the named task as a top-level entry point: it resolves the
// task, drives it with a continuation that accepts the first solution and
// captures the dynamic state left behind, and renders the buffer through
// this module's formatter. ok is false, with no error, when the task is
// Fallible and genuinely found nothing; err carries a hard failure (a
// must-succeed task with no method ever reaching its body's end, an
// undefined task, a wrong argument count). Raised engine errors are
// recovered here and returned as an ordinary Go error rather than left to
// propagate as a panic — this is the API boundary idiomatic Go error
// handling applies at.
func (m *Module) Call(taskName string, args []Term, state State) (text string, ok bool, newState State, err error) {
	newState = state
	defer func() {
		if r := recover(); r != nil {
			err = toError(r)
		}
	}()
	task, found := m.FindTask(taskName, len(args), false)
	if !found {
		return "", false, state, &UndefinedVariableError{Name: taskName}
	}
	buf := NewBuffer()
	env := Env{Module: m, Dynamic: state}
	ok = task.Call(args, buf, env, CurrentFrame(), func(buf2 *Buffer, env2 Env) bool {
		newState = env2.Dynamic
		return true
	})
	if !ok {
		return "", false, state, nil
	}
	return m.format(buf.String()), true, newState, nil
}

// CallPredicate invokes a task purely for its success/failure, discarding
// any text it produced.
func (m *Module) CallPredicate(taskName string, args []Term, state State) (ok bool, newState State, err error) {
	newState = state
	defer func() {
		if r := recover(); r != nil {
			err = toError(r)
		}
	}()
	task, found := m.FindTask(taskName, len(args), false)
	if !found {
		return false, state, &UndefinedVariableError{Name: taskName}
	}
	buf := NewBuffer()
	env := Env{Module: m, Dynamic: state}
	ok = task.Call(args, buf, env, CurrentFrame(), func(buf2 *Buffer, env2 Env) bool {
		newState = env2.Dynamic
		return true
	})
	return ok, newState, nil
}

// CallFunction invokes a task as a logic function: it appends one fresh
// result variable to args, calls the task, and extracts a Go value of
// type T out of whatever that variable resolved to on success.
func CallFunction[T any](m *Module, taskName string, args []Term, state State, extract func(Term) (T, bool)) (result T, ok bool, newState State, err error) {
	newState = state
	defer func() {
		if r := recover(); r != nil {
			err = toError(r)
		}
	}()
	resultVar := NewLocalVar("result")
	full := append(append([]Term{}, args...), VarTerm(resultVar))
	task, found := m.FindTask(taskName, len(full), false)
	if !found {
		return result, false, state, &UndefinedVariableError{Name: taskName}
	}
	buf := NewBuffer()
	env := Env{Module: m, Dynamic: state}
	ok = task.Call(full, buf, env, CurrentFrame(), func(buf2 *Buffer, env2 Env) bool {
		val := env2.Resolve(VarTerm(resultVar))
		if val.Kind == KindVar {
			panic(&ArgumentInstantiationError{Task: taskName, Pos: len(full) - 1})
		}
		r, extracted := extract(val)
		if !extracted {
			return false
		}
		result = r
		newState = env2.Dynamic
		return true
	})
	return result, ok, newState, nil
}
