package replica

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"todoboard/internal/model"
	"todoboard/internal/store"

	"github.com/automerge/automerge-go"
	"github.com/sirupsen/logrus"
)

const fileName = "board.automerge"

// Replica is a Store backed by an automerge document. Every entity field is a
// separate root key ("todo/<id>/order"), so concurrent writes to different
// fields of one entity merge cleanly and writes to the same field resolve
// last-writer-wins on every replica alike.
type Replica struct {
	mu       sync.Mutex
	doc      *automerge.Doc
	path     string
	watchers store.Watchers
	log      logrus.FieldLogger
}

// New returns an in-memory replica with an empty board.
func New(log logrus.FieldLogger) *Replica {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Replica{doc: automerge.New(), log: log}
}

// Open loads board.automerge from dir, or starts an empty document there.
func Open(dir string, log logrus.FieldLogger) (*Replica, error) {
	if err := store.Ensure(dir); err != nil {
		return nil, err
	}
	r := New(log)
	r.path = filepath.Join(dir, fileName)
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := automerge.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.path, err)
	}
	r.doc = doc
	return r, nil
}

// Load builds an in-memory replica from saved bytes.
func Load(raw []byte, log logrus.FieldLogger) (*Replica, error) {
	doc, err := automerge.Load(raw)
	if err != nil {
		return nil, err
	}
	r := New(log)
	r.doc = doc
	return r, nil
}

func (r *Replica) Path() string { return r.path }

func (r *Replica) ActorID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.ActorID()
}

// Heads identifies the document state; converged replicas report equal heads.
func (r *Replica) Heads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return headStrings(r.doc.Heads())
}

func headStrings(hs []automerge.ChangeHash) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.String())
	}
	sort.Strings(out)
	return out
}

func (r *Replica) Save() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Save()
}

func (r *Replica) Subscribe(fn func(store.Snapshot)) func() { return r.watchers.Add(fn) }

func (r *Replica) Snapshot(ctx context.Context) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, missing, err := readBoard(r.doc)
	if err != nil {
		return store.Snapshot{}, err
	}
	_ = store.NormalizeOrders(&snap, missing)
	return snap, nil
}

func (r *Replica) Normalize(ctx context.Context) (model.Batch, error) {
	r.mu.Lock()
	snap, missing, err := readBoard(r.doc)
	r.mu.Unlock()
	if err != nil {
		return model.Batch{}, err
	}
	fix := store.NormalizeOrders(&snap, missing)
	if fix.Empty() {
		return fix, nil
	}
	if err := r.Commit(ctx, fix); err != nil {
		return model.Batch{}, err
	}
	return fix, nil
}

// Commit applies b to a fork of the document and merges the fork back only if
// every mutation applied, so a batch is never half visible to peers. Order
// fixups for entities stored without a key go into the same change, ahead of b.
func (r *Replica) Commit(ctx context.Context, b model.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}

	r.mu.Lock()
	cur, missing, err := readBoard(r.doc)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	fix := store.NormalizeOrders(&cur, missing)
	next, err := cur.Apply(b)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	fork, err := r.doc.Fork()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	fix.Append(b)
	for _, m := range fix.Mutations {
		if err := writeMutation(fork, m); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("%s %s %s: %w", m.Op, m.Kind, m.EntityID, err)
		}
	}
	if _, err := fork.Commit(fmt.Sprintf("batch of %d", len(fix.Mutations)), automerge.CommitOptions{AllowEmpty: true}); err != nil {
		r.mu.Unlock()
		return err
	}
	if _, err := r.doc.Merge(fork); err != nil {
		r.mu.Unlock()
		return err
	}
	err = r.persistLocked()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.watchers.Notify(next)
	return nil
}

// Merge folds another replica's changes into this one.
func (r *Replica) Merge(other *Replica) error {
	if other == r {
		return nil
	}
	raw := other.Save()
	doc, err := automerge.Load(raw)
	if err != nil {
		return err
	}
	return r.mergeDoc(doc)
}

// MergeFile folds a saved replica file into this one.
func (r *Replica) MergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := automerge.Load(raw)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return r.mergeDoc(doc)
}

func (r *Replica) mergeDoc(doc *automerge.Doc) error {
	r.mu.Lock()
	before := strings.Join(headStrings(r.doc.Heads()), ",")
	if _, err := r.doc.Merge(doc); err != nil {
		r.mu.Unlock()
		return err
	}
	changed := strings.Join(headStrings(r.doc.Heads()), ",") != before
	var err error
	if changed {
		err = r.persistLocked()
	}
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		r.notifyCurrent()
	}
	return nil
}

func (r *Replica) notifyCurrent() {
	snap, err := r.Snapshot(context.Background())
	if err != nil {
		r.log.WithError(err).Warn("read replica after merge")
		return
	}
	r.watchers.Notify(snap)
}

func (r *Replica) persistLocked() error {
	if r.path == "" {
		return nil
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, r.doc.Save(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
