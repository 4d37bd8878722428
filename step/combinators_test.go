package step

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// choiceBody builds a BranchStep offering one alternative per token list,
// each alternative emitting its tokens and nothing else — enough
// scaffolding to exercise the combinators without needing the external
// parser.
func choiceBody(alts [][]string) Step {
	branches := make([]Step, len(alts))
	for i, toks := range alts {
		branches[i] = &EmitStep{Tokens: toks}
	}
	return &BranchStep{Branches: branches}
}

func TestDoAllCollectsEverySolutionInOrder(t *testing.T) {
	m := NewModule()
	body := choiceBody([][]string{{"a"}, {"b"}, {"c"}})
	h := &HigherOrderStep{Kind: CombDoAll, Body: body}

	buf := NewBuffer()
	env := Env{Module: m}
	ok := h.Try(buf, env, func(*Buffer, Env) bool { return true })
	require.True(t, ok)
	require.Equal(t, "abc", buf.String())
}

func TestOnceCommitsToFirstSolutionOnly(t *testing.T) {
	m := NewModule()
	var attempts int
	branches := []Step{
		&EmitStep{Tokens: []string{"first"}, Next: &CallStep{Task: TaskVal(DeterministicTextGenerator(func(args []Term, buf *Buffer, env Env) []string {
			attempts++
			return nil
		}))}},
		&EmitStep{Tokens: []string{"second"}},
	}
	h := &HigherOrderStep{Kind: CombOnce, Body: &BranchStep{Branches: branches}}

	buf := NewBuffer()
	env := Env{Module: m}
	// Reject whatever Once offers, to prove it does not fall through to
	// the second branch.
	ok := h.Try(buf, env, func(*Buffer, Env) bool { return false })
	require.False(t, ok)
	require.Equal(t, 1, attempts)
	require.Equal(t, 0, buf.Len())
}

func TestExactlyOnceRaisesCallFailedOnZeroSolutions(t *testing.T) {
	m := NewModule()
	task, _ := m.FindTask("never", 0, true)
	task.Flags |= FlagFallible
	h := &HigherOrderStep{Kind: CombExactlyOnce, Body: &CallStep{Task: TaskRef("never")}}
	buf := NewBuffer()

	defer func() {
		r := recover()
		cf, ok := r.(*CallFailedError)
		require.True(t, ok, "expected a *CallFailedError panic, got %v", r)
		require.Equal(t, "never", cf.Task)
	}()
	h.Try(buf, Env{Module: m}, func(*Buffer, Env) bool { return true })
	t.Fatal("expected exactlyOnce to panic")
}

func TestExactlyOnceCommitsToFirstSolutionLikeOnce(t *testing.T) {
	m := NewModule()
	body := choiceBody([][]string{{"a"}, {"b"}})
	h := &HigherOrderStep{Kind: CombExactlyOnce, Body: body}
	buf := NewBuffer()
	ok := h.Try(buf, Env{Module: m}, func(*Buffer, Env) bool { return true })
	require.True(t, ok)
	require.Equal(t, "a", buf.String())
}

func TestExactlyOnceSucceedsOnASingleSolution(t *testing.T) {
	m := NewModule()
	body := choiceBody([][]string{{"only"}})
	h := &HigherOrderStep{Kind: CombExactlyOnce, Body: body}
	buf := NewBuffer()
	ok := h.Try(buf, Env{Module: m}, func(*Buffer, Env) bool { return true })
	require.True(t, ok)
	require.Equal(t, "only", buf.String())
}

func TestMaxPicksHighestScoringSolution(t *testing.T) {
	m := NewModule()
	score := NewLocalVar("score")
	branches := []Step{
		&BindStep{A: VarTerm(score), B: NumInt(1), Next: &EmitStep{Tokens: []string{"low"}}},
		&BindStep{A: VarTerm(score), B: NumInt(9), Next: &EmitStep{Tokens: []string{"high"}}},
		&BindStep{A: VarTerm(score), B: NumInt(5), Next: &EmitStep{Tokens: []string{"mid"}}},
	}
	h := &HigherOrderStep{Kind: CombMax, Body: &BranchStep{Branches: branches}, Score: VarTerm(score)}
	buf := NewBuffer()
	ok := h.Try(buf, Env{Module: m}, func(*Buffer, Env) bool { return true })
	require.True(t, ok)
	require.Equal(t, "high", buf.String())
}

func TestMinPicksLowestScoringSolution(t *testing.T) {
	m := NewModule()
	score := NewLocalVar("score")
	branches := []Step{
		&BindStep{A: VarTerm(score), B: NumInt(3), Next: &EmitStep{Tokens: []string{"three"}}},
		&BindStep{A: VarTerm(score), B: NumInt(-2), Next: &EmitStep{Tokens: []string{"neg"}}},
	}
	h := &HigherOrderStep{Kind: CombMin, Body: &BranchStep{Branches: branches}, Score: VarTerm(score)}
	buf := NewBuffer()
	ok := h.Try(buf, Env{Module: m}, func(*Buffer, Env) bool { return true })
	require.True(t, ok)
	require.Equal(t, "neg", buf.String())
}
