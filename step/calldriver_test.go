package step

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func taskWithMethods(m *Module, name string, arity int, flags Flags, methods ...*Method) *CompoundTask {
	task, _ := m.FindTask(name, arity, true)
	for _, meth := range methods {
		task.AddMethod(meth, flags)
	}
	return task
}

func TestDeterministicTaskTriesOnlyFirstMatchingMethod(t *testing.T) {
	m := NewModule()
	var tried []string
	method := func(lit, label string) *Method {
		return &Method{
			Pattern: []Term{Str(lit)},
			Body: &EmitStep{Tokens: []string{label}, Next: &CallStep{
				Task: TaskVal(DeterministicTextGenerator(func(args []Term, buf *Buffer, env Env) []string {
					tried = append(tried, label)
					return nil
				})),
			}},
		}
	}
	taskWithMethods(m, "greet", 1, 0, method("x", "first"), method("x", "second"))

	text, ok, _, err := m.Call("greet", []Term{Str("x")}, State{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "first", text)
	require.Equal(t, []string{"first"}, tried)
}

func TestMultipleSolutionsFlagAllowsSecondMethod(t *testing.T) {
	m := NewModule()
	methodA := &Method{Pattern: []Term{Str("x")}, Body: &EmitStep{Tokens: []string{"A"}}}
	methodB := &Method{Pattern: []Term{Str("x")}, Body: &EmitStep{Tokens: []string{"B"}}}
	task := taskWithMethods(m, "pick", 1, FlagMultipleSolutions, methodA, methodB)
	require.True(t, task.Flags.Has(FlagMultipleSolutions))

	var seen []string
	buf := NewBuffer()
	env := Env{Module: m}
	task.Call([]Term{Str("x")}, buf, env, nil, func(buf2 *Buffer, env2 Env) bool {
		seen = append(seen, buf2.String())
		return false // keep asking for more
	})
	require.Equal(t, []string{"A", "B"}, seen)
}

func TestMustSucceedTaskRaisesCallFailed(t *testing.T) {
	m := NewModule()
	taskWithMethods(m, "exact", 1, 0, &Method{Pattern: []Term{Str("only")}, Body: &EmitStep{Tokens: []string{"ok"}}})

	_, ok, _, err := m.Call("exact", []Term{Str("nope")}, State{})
	require.False(t, ok)
	require.Error(t, err)
	var cf *CallFailedError
	require.ErrorAs(t, err, &cf)
}

func TestFallibleTaskFailsWithoutError(t *testing.T) {
	m := NewModule()
	taskWithMethods(m, "maybe", 1, FlagFallible, &Method{Pattern: []Term{Str("only")}, Body: &EmitStep{Tokens: []string{"ok"}}})

	_, ok, _, err := m.Call("maybe", []Term{Str("nope")}, State{})
	require.False(t, ok)
	require.NoError(t, err)
}

func TestEraseMethodsResetsFlags(t *testing.T) {
	m := NewModule()
	task := taskWithMethods(m, "task", 1, FlagShuffle|FlagFallible, &Method{Pattern: []Term{Str("a")}, Body: &EmitStep{Tokens: []string{"a"}}})
	require.NotZero(t, task.Flags)

	task.EraseMethods()
	require.Zero(t, task.Flags)
	require.Empty(t, task.Methods)
}

func TestArgumentCountMismatchPanics(t *testing.T) {
	m := NewModule()
	task, _ := m.FindTask("solo", 1, true)
	task.AddMethod(&Method{Pattern: []Term{Str("a")}, Body: &EmitStep{Tokens: []string{"a"}}}, 0)

	require.Panics(t, func() {
		task.Call([]Term{Str("a"), Str("b")}, NewBuffer(), Env{Module: m}, nil, func(*Buffer, Env) bool { return true })
	})
}
