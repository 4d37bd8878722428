package sqlstate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewMySQLBindHook requires a live server to Ping against, so these tests
// exercise only the pure value-coercion logic; the hook's Lookup wiring is
// not tested here.
func TestToTermRecognizesNumbers(t *testing.T) {
	term := toTerm("42.5")
	require.True(t, term.IsGround())
	require.Equal(t, "42.5", term.String())
}

func TestToTermRecognizesBooleans(t *testing.T) {
	require.Equal(t, "true", toTerm("true").String())
	require.Equal(t, "false", toTerm("false").String())
}

func TestToTermFallsBackToString(t *testing.T) {
	term := toTerm("hello world")
	require.Equal(t, "hello world", term.String())
}
