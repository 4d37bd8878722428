package step

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func freshEnv() Env { return Env{Module: NewModule()} }

func TestUnifyIdenticalVariables(t *testing.T) {
	v := NewLocalVar("x")
	env := freshEnv()
	trail, ok := Unify(VarTerm(v), VarTerm(v), env)
	require.True(t, ok)
	require.Equal(t, 0, trail.Len())
}

func TestUnifyBindsUnboundVariable(t *testing.T) {
	v := NewLocalVar("x")
	env := freshEnv()
	trail, ok := Unify(VarTerm(v), Str("hello"), env)
	require.True(t, ok)
	env.Local = trail
	require.Equal(t, Str("hello"), env.Resolve(VarTerm(v)))
}

func TestUnifyTupleElementwise(t *testing.T) {
	x := NewLocalVar("x")
	y := NewLocalVar("y")
	env := freshEnv()
	a := TupleTerm(VarTerm(x), Str("b"))
	b := TupleTerm(Str("a"), VarTerm(y))
	trail, ok := Unify(a, b, env)
	require.True(t, ok)
	env.Local = trail
	require.Equal(t, Str("a"), env.Resolve(VarTerm(x)))
	require.Equal(t, Str("b"), env.Resolve(VarTerm(y)))
}

func TestUnifyTupleArityMismatchFails(t *testing.T) {
	env := freshEnv()
	_, ok := Unify(TupleTerm(Str("a")), TupleTerm(Str("a"), Str("b")), env)
	require.False(t, ok)
}

func TestUnifyGroundStructuralEquality(t *testing.T) {
	env := freshEnv()
	_, ok := Unify(NumInt(3), NumInt(3), env)
	require.True(t, ok)
	_, ok = Unify(NumInt(3), NumInt(4), env)
	require.False(t, ok)
}

func TestUnifyLaterBindingsVisibleToLaterElements(t *testing.T) {
	x := NewLocalVar("x")
	env := freshEnv()
	a := TupleTerm(VarTerm(x), VarTerm(x))
	b := TupleTerm(Str("same"), Str("same"))
	trail, ok := Unify(a, b, env)
	require.True(t, ok)
	env.Local = trail
	require.Equal(t, Str("same"), env.Resolve(VarTerm(x)))

	c := TupleTerm(VarTerm(x), VarTerm(x))
	d := TupleTerm(Str("same"), Str("different"))
	_, ok = Unify(c, d, env)
	require.False(t, ok)
}

func TestResolveIdempotent(t *testing.T) {
	v := NewLocalVar("x")
	env := freshEnv()
	trail, ok := Unify(VarTerm(v), NumInt(5), env)
	require.True(t, ok)
	env.Local = trail
	once := env.Resolve(VarTerm(v))
	twice := env.Resolve(once)
	require.Equal(t, once, twice)
}

func TestUnifySymmetry(t *testing.T) {
	v := NewLocalVar("x")
	env := freshEnv()
	t1, ok1 := Unify(VarTerm(v), Str("z"), env)
	t2, ok2 := Unify(Str("z"), VarTerm(v), env)
	require.Equal(t, ok1, ok2)
	e1 := env
	e1.Local = t1
	e2 := env
	e2.Local = t2
	require.Equal(t, e1.Resolve(VarTerm(v)), e2.Resolve(VarTerm(v)))
}

func TestCopyTermSubstitutesBoundVariables(t *testing.T) {
	x := NewLocalVar("x")
	env := freshEnv()
	trail, ok := Unify(VarTerm(x), NumInt(7), env)
	require.True(t, ok)
	env.Local = trail
	copied := CopyTerm(TupleTerm(VarTerm(x), Str("lit")), env)
	require.Equal(t, TupleTerm(NumInt(7), Str("lit")), copied)
}

func TestCopyTermLeavesUnboundVariableAsItself(t *testing.T) {
	y := NewLocalVar("y")
	env := freshEnv()
	copied := CopyTerm(VarTerm(y), env)
	require.True(t, copied.IsVar())
}
