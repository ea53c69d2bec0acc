package store

import (
	"context"
	"sync"

	"todoboard/internal/model"
)

// Memory is an in-process Store. It backs tests and the terminal board's
// offline mode.
type Memory struct {
	mu       sync.Mutex
	snap     Snapshot
	watchers Watchers
}

func NewMemory(seed Snapshot) *Memory {
	return &Memory{snap: seed.Clone()}
}

func (m *Memory) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone(), nil
}

func (m *Memory) Commit(ctx context.Context, b model.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}
	m.mu.Lock()
	next, err := m.snap.Apply(b)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.snap = next
	m.mu.Unlock()

	m.watchers.Notify(next)
	return nil
}

func (m *Memory) Subscribe(fn func(Snapshot)) func() {
	return m.watchers.Add(fn)
}
