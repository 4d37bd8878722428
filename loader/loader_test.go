package loader

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/caelum-lang/stepweave/step"
)

func TestLoadDefinitionsRegistersMethods(t *testing.T) {
	m := step.NewModule()
	l := &Loader{}
	err := l.LoadDefinitions(m, `(greet "x" -> "hello")`, "<test>")
	require.NoError(t, err)

	text, ok, _, err := m.Call("greet", []step.Term{step.Str("x")}, step.State{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", text)
}

func TestLoadDefinitionsRunsInitiallyBlockAgainstModuleState(t *testing.T) {
	m := step.NewModule()
	l := &Loader{}
	err := l.LoadDefinitions(m, `(initially -> (:= ready true))`, "<test>")
	require.NoError(t, err)

	v, ok := m.Get(step.InternStateVar("ready"))
	require.True(t, ok)
	require.True(t, v.G.Bit)
}

func TestLoadDirectoryWalksLocalStepFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.step"), []byte(`(a "x" -> "A")`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.step"), []byte(`(b "x" -> "B")`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte(`not step source`), 0o644))

	m := step.NewModule()
	l := &Loader{}
	require.NoError(t, l.LoadDirectory(m, dir, false))

	textA, okA, _, _ := m.Call("a", []step.Term{step.Str("x")}, step.State{})
	textB, okB, _, _ := m.Call("b", []step.Term{step.Str("x")}, step.State{})
	require.True(t, okA)
	require.True(t, okB)
	require.Equal(t, "A", textA)
	require.Equal(t, "B", textB)
}

func TestLoadDirectoryBundle(t *testing.T) {
	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "src.tar.lz4")
	f, err := os.Create(bundlePath)
	require.NoError(t, err)
	lz := lz4.NewWriter(f)
	tw := tar.NewWriter(lz)
	content := []byte(`(fromBundle "x" -> "bundled")`)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "defs.step", Size: int64(len(content)), Typeflag: tar.TypeReg}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, lz.Close())
	require.NoError(t, f.Close())

	m := step.NewModule()
	l := &Loader{}
	require.NoError(t, l.LoadDirectory(m, bundlePath, false))

	text, ok, _, err := m.Call("fromBundle", []step.Term{step.Str("x")}, step.State{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bundled", text)
}

func TestParseAndExecuteDefinesAndRunsTopLevelCall(t *testing.T) {
	m := step.NewModule()
	text, _, err := ParseAndExecute(m, `(TopLevelCall -> "done")`)
	require.NoError(t, err)
	require.Equal(t, "done", text)
}
