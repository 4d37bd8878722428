// Package loader is the source-tree front end: it turns .step files on a
// local disk, an S3 prefix, or a .tar.lz4 bundle into method definitions
// registered on a step.Module, and it is the only package that knows how
// to re-run a top-level call from raw source text.
//
// Grounded on main.go's getImport/getLoad/getWatch closures in the teacher
// repo, generalized from a Scheme-flavored import/load/watch trio of
// global functions into methods on a Loader value with no package-level
// mutable state.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caelum-lang/stepweave/parse"
	"github.com/caelum-lang/stepweave/step"
)

// Loader loads .step source into a step.Module. The zero value is usable;
// Logger, if set, receives one line per file loaded or reloaded. S3Creds,
// if set, pins the access key pair used by LoadDirectory against an
// s3:// URI instead of the default AWS credential chain.
type Loader struct {
	Logger  func(msg string, fields ...any)
	S3Creds S3Credentials
}

func (l *Loader) logf(msg string, fields ...any) {
	if l.Logger != nil {
		l.Logger(msg, fields...)
	}
}

// LoadDefinitions lexes and parses src (one file's contents), builds
// step.Definition values out of it, and registers them on module. path is
// used in error messages and the log line, and to namespace the task names
// of the file's initially blocks.
func (l *Loader) LoadDefinitions(module *step.Module, src string, path string) error {
	toks, err := parse.Lex(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	forms, err := parse.Parse(toks)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defs, initially, err := parse.Build(forms)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := module.AddDefinitions(defs); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := runInitially(module, namespaceInitially(path, initially)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	l.logf("loaded .step source", "path", path, "methods", len(defs))
	return nil
}

// namespaceInitially gives each initially block's synthetic task name a
// per-path prefix, so Build's own per-call numbering ("$initially$0", ...)
// can't collide across two different files loaded into the same module.
func namespaceInitially(path string, blocks []step.Definition) []step.Definition {
	for i := range blocks {
		blocks[i].TaskName = fmt.Sprintf("$initially$%s$%s", path, blocks[i].TaskName)
	}
	return blocks
}

// runInitially registers each `initially` block as a throwaway zero-arity
// task and calls it once, flattening whatever dynamic state its body left
// behind into the module's own dictionary — the mechanism by which an
// `initially` body's bindings "become module state" (§6).
func runInitially(module *step.Module, blocks []step.Definition) error {
	if len(blocks) == 0 {
		return nil
	}
	if err := module.AddDefinitions(blocks); err != nil {
		return err
	}
	for _, block := range blocks {
		_, ok, newState, err := module.Call(block.TaskName, nil, step.State{})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s did not succeed", block.TaskName)
		}
		newState.Walk(func(sv step.StateVar, v step.Term) {
			module.Set(sv, v)
		})
	}
	return nil
}

// LoadDirectory walks path, loading every .step file it finds. path may be
// a local filesystem directory, an s3:// URI (delegated to s3.go), or a
// path ending in .tar.lz4 (delegated to bundle.go). recursive controls
// whether subdirectories of a local tree are descended into; an S3 prefix
// is always listed in full, whatever recursive says.
func (l *Loader) LoadDirectory(module *step.Module, path string, recursive bool) error {
	switch {
	case strings.HasPrefix(path, "s3://"):
		return l.loadS3Directory(module, path, recursive)
	case strings.HasSuffix(path, ".tar.lz4"):
		return l.loadBundle(module, path)
	default:
		return l.loadLocalDirectory(module, path, recursive)
	}
}

func (l *Loader) loadLocalDirectory(module *step.Module, path string, recursive bool) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".step" {
			return nil
		}
		bytes, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return l.LoadDefinitions(module, string(bytes), p)
	})
}

// ParseAndExecute defines (or redefines) the well-known TopLevelCall task
// from code and immediately calls it with no arguments and empty dynamic
// state, matching the top-level "paste a snippet and run it" API surface.
func ParseAndExecute(module *step.Module, code string) (string, step.State, error) {
	task, _ := module.FindTask("TopLevelCall", 0, true)
	task.EraseMethods()

	l := &Loader{}
	if err := l.LoadDefinitions(module, code, "<inline>"); err != nil {
		return "", step.State{}, err
	}

	text, ok, newState, err := module.Call("TopLevelCall", nil, step.State{})
	if err != nil {
		return "", step.State{}, err
	}
	if !ok {
		return "", step.State{}, fmt.Errorf("TopLevelCall did not succeed")
	}
	return text, newState, nil
}
