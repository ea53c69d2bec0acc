package dragdrop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todoboard/internal/model"
	"todoboard/internal/order"
	"todoboard/internal/store"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidDragSource = errors.New("invalid drag source")
	ErrNotDragging       = errors.New("no drag in progress")
)

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Box is the vertical extent of one rendered sibling.
type Box struct {
	ID     string
	Top    float64
	Height float64
}

func (b Box) Mid() float64 { return b.Top + b.Height/2 }

// Candidate is where the dragged entity would land if dropped now.
type Candidate struct {
	Scope string
	Index int
}

type SnapshotSource interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
}

type Committer interface {
	Emit(ctx context.Context, plans ...order.Plan) error
}

// Tracker follows one drag gesture at a time: Idle -> Dragging -> Idle.
// Hover events only move the candidate; nothing is planned or committed until
// Drop, and Cancel leaves the board exactly as it was.
type Tracker struct {
	snaps  SnapshotSource
	commit Committer
	log    logrus.FieldLogger

	state     State
	kind      model.Kind
	sourceID  string
	candidate *Candidate
}

func NewTracker(snaps SnapshotSource, commit Committer, log logrus.FieldLogger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{snaps: snaps, commit: commit, log: log}
}

func (t *Tracker) State() State { return t.state }

// Source returns the entity being dragged.
func (t *Tracker) Source() (model.Kind, string, bool) {
	if t.state != Dragging {
		return "", "", false
	}
	return t.kind, t.sourceID, true
}

// Start begins dragging kind/id. A Start during a drag replaces the previous
// gesture without committing it.
func (t *Tracker) Start(ctx context.Context, kind model.Kind, id string) error {
	id = strings.TrimSpace(id)
	if err := t.validSource(ctx, kind, id); err != nil {
		t.log.WithError(err).WithFields(logrus.Fields{"kind": kind, "id": id}).Warn("drag aborted")
		return err
	}
	t.reset()
	t.state = Dragging
	t.kind = kind
	t.sourceID = id
	t.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Debug("drag start")
	return nil
}

func (t *Tracker) validSource(ctx context.Context, kind model.Kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDragSource)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDragSource, kind)
	}
	snap, err := t.snaps.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, err := snap.Source(kind, id); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDragSource, err)
	}
	return nil
}

// Over updates the candidate from the pointer's y position over scope. boxes
// are the scope's rendered siblings; the candidate index counts the boxes
// (other than the source) whose midpoint lies above y, so a pointer exactly on
// a midpoint lands before that box.
func (t *Tracker) Over(scope string, boxes []Box, y float64) {
	if t.state != Dragging {
		return
	}
	idx := 0
	for _, b := range boxes {
		if b.ID == t.sourceID {
			continue
		}
		if b.Mid() < y {
			idx++
		}
	}
	t.Hover(scope, idx)
}

// Hover sets the candidate directly.
func (t *Tracker) Hover(scope string, index int) {
	if t.state != Dragging {
		return
	}
	t.candidate = &Candidate{Scope: t.scopeFor(scope), Index: index}
}

// Leave drops the candidate when the pointer leaves scope.
func (t *Tracker) Leave(scope string) {
	if t.candidate != nil && t.candidate.Scope == t.scopeFor(scope) {
		t.candidate = nil
	}
}

// scopeFor maps a zone to the scope the dragged kind is ordered in; lists
// always reorder across the whole board.
func (t *Tracker) scopeFor(scope string) string {
	if t.kind == model.KindList {
		return model.BoardScope
	}
	return strings.TrimSpace(scope)
}

func (t *Tracker) Target() (Candidate, bool) {
	if t.state != Dragging || t.candidate == nil {
		return Candidate{}, false
	}
	return *t.candidate, true
}

func (t *Tracker) Cancel() {
	if t.state == Dragging {
		t.log.WithField("id", t.sourceID).Debug("drag cancelled")
	}
	t.reset()
}

// Drop plans the move against a fresh snapshot and commits it once. The
// tracker is Idle afterwards whatever the outcome. Dropping with no candidate
// is a cancel.
func (t *Tracker) Drop(ctx context.Context) (order.Plan, error) {
	if t.state != Dragging {
		return order.Plan{}, ErrNotDragging
	}
	kind, id, cand := t.kind, t.sourceID, t.candidate
	t.reset()
	if cand == nil {
		t.log.WithField("id", id).Debug("drop without target")
		return order.Plan{}, nil
	}

	snap, err := t.snaps.Snapshot(ctx)
	if err != nil {
		return order.Plan{}, err
	}
	src, err := snap.Source(kind, id)
	if err != nil {
		// Deleted by another client mid-drag.
		err = fmt.Errorf("%w: %v", ErrInvalidDragSource, err)
		t.log.WithError(err).Warn("drop aborted")
		return order.Plan{}, err
	}
	if kind == model.KindTodo {
		if _, ok := snap.FindList(cand.Scope); !ok {
			return order.Plan{}, model.NotFoundError{Kind: string(model.KindList), ID: cand.Scope}
		}
	}

	plan, err := order.PlanMove(src, cand.Scope, cand.Index, snap.Siblings(kind, cand.Scope))
	if err != nil {
		return order.Plan{}, err
	}
	if err := t.commit.Emit(ctx, plan); err != nil {
		return order.Plan{}, err
	}
	t.log.WithFields(logrus.Fields{
		"id":         id,
		"scope":      cand.Scope,
		"index":      cand.Index,
		"changes":    len(plan.Assignments),
		"renumbered": plan.Renumbered,
	}).Debug("drop committed")
	return plan, nil
}

func (t *Tracker) reset() {
	t.state = Idle
	t.kind = ""
	t.sourceID = ""
	t.candidate = nil
}
