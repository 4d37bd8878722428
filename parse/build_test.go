package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caelum-lang/stepweave/step"
)

func buildOne(t *testing.T, src string) step.Definition {
	toks, err := Lex(src)
	require.NoError(t, err)
	forms, err := Parse(toks)
	require.NoError(t, err)
	defs, _, err := Build(forms)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	return defs[0]
}

func TestBuildAssignsPatternSlotsLeftToRight(t *testing.T) {
	def := buildOne(t, `(greet ?name -> "hi " ?name)`)
	require.Equal(t, "greet", def.TaskName)
	require.Equal(t, []string{"name"}, def.LocalNames)
	require.True(t, def.Pattern[0].IsVar())
	require.Equal(t, 0, def.Pattern[0].Var.Slot)
}

func TestBuildReusesSlotForRepeatedVariable(t *testing.T) {
	def := buildOne(t, `(echo ?x -> ?x ?x)`)
	require.Equal(t, []string{"x"}, def.LocalNames)
}

func TestBuildParsesFlags(t *testing.T) {
	def := buildOne(t, `(pick ?x -> @shuffle @multi "chosen")`)
	require.True(t, def.Flags.Has(step.FlagShuffle))
	require.True(t, def.Flags.Has(step.FlagMultipleSolutions))
}

func TestBuildNestedCallBecomesCallStep(t *testing.T) {
	def := buildOne(t, `(wrapper -> (inner "x"))`)
	call, ok := def.Body.(*step.CallStep)
	require.True(t, ok)
	require.Equal(t, "inner", call.Task.G.Str)
	require.Equal(t, "x", call.Args[0].G.Str)
}

func TestBuildStateAssignmentBecomesStateBindStep(t *testing.T) {
	def := buildOne(t, `(count -> (:= counter 1))`)
	bind, ok := def.Body.(*step.StateBindStep)
	require.True(t, ok)
	require.Equal(t, "counter", bind.SV.Name())
}

func TestBuildInitiallyFormIsReturnedSeparately(t *testing.T) {
	toks, err := Lex(`(initially -> (:= ready true))`)
	require.NoError(t, err)
	forms, err := Parse(toks)
	require.NoError(t, err)
	defs, initially, err := Build(forms)
	require.NoError(t, err)
	require.Empty(t, defs)
	require.Len(t, initially, 1)
}

func TestBuildHigherOrderCombinator(t *testing.T) {
	def := buildOne(t, `(pick -> (doall (a) (b)))`)
	h, ok := def.Body.(*step.HigherOrderStep)
	require.True(t, ok)
	require.Equal(t, step.CombDoAll, h.Kind)
}

func TestBuildMaxCombinatorCarriesScore(t *testing.T) {
	def := buildOne(t, `(best -> (max ?score (a)))`)
	h, ok := def.Body.(*step.HigherOrderStep)
	require.True(t, ok)
	require.Equal(t, step.CombMax, h.Kind)
	require.True(t, h.Score.IsVar())
}
