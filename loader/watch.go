package loader

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/caelum-lang/stepweave/step"
)

// Watch loads path once and then keeps reloading it on every write event,
// matching the teacher's getWatch: a single file is watched, its methods
// are re-added on every save (monotonically, per AddDefinitions' flag
// semantics — a caller wanting a clean redefinition must EraseMethods the
// target task itself before triggering a reload). The returned stop
// function closes the underlying watcher and ends the goroutine.
func (l *Loader) Watch(module *step.Module, path string) (stop func(), err error) {
	reread := func() error {
		bytes, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return l.LoadDefinitions(module, string(bytes), path)
	}
	if err := reread(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				// debounce: editors commonly emit a burst of events for one save
				time.Sleep(10 * time.Millisecond)
				func() {
					defer func() { recover() }()
					if err := reread(); err != nil {
						l.logf("reload failed", "path", path, "error", err)
					}
				}()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
