package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"todoboard/internal/model"
)

// Store is the persistence boundary of the board. Commit applies a batch
// atomically: every mutation lands or none do.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Commit(ctx context.Context, b model.Batch) error
	Subscribe(fn func(Snapshot)) (cancel func())
}

// Normalizer is implemented by stores that can persist load-time order fixups.
type Normalizer interface {
	Normalize(ctx context.Context) (model.Batch, error)
}

// Watchers fans a snapshot out to subscribers. The zero value is ready to use.
type Watchers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Snapshot)
}

func (w *Watchers) Add(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fns == nil {
		w.fns = map[int]func(Snapshot){}
	}
	id := w.next
	w.next++
	w.fns[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.fns, id)
	}
}

// Notify calls every subscriber with s. Subscribers run on the caller's
// goroutine, outside the lock, so they may unsubscribe themselves.
func (w *Watchers) Notify(s Snapshot) {
	w.mu.Lock()
	fns := make([]func(Snapshot), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(s.Clone())
	}
}

// DiscoverDir walks up from start looking for a .todoboard directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".todoboard")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, ".todoboard"), nil
}

func Ensure(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
