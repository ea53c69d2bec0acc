package store

import (
	"context"
	"errors"
	"testing"

	"todoboard/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakePublisher struct {
	batches []model.Batch
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, b model.Batch) error {
	f.batches = append(f.batches, b)
	return f.err
}

func TestPublishing_BroadcastsCommittedBatches(t *testing.T) {
	pub := &fakePublisher{}
	s := Publishing{Store: NewMemory(seedBoard()), Pub: pub}

	var b model.Batch
	b.Add(model.UpdateMutation(model.KindTodo, "t1", model.Fields{Done: model.BoolPtr(false)}))
	if err := s.Commit(context.Background(), b); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(pub.batches) != 1 {
		t.Fatalf("expected one publish; got %d", len(pub.batches))
	}

	// A rejected batch is never broadcast.
	var bad model.Batch
	bad.Add(model.DeleteMutation(model.KindList, "ghost"))
	if err := s.Commit(context.Background(), bad); err == nil {
		t.Fatalf("expected error")
	}
	if len(pub.batches) != 1 {
		t.Fatalf("expected failed commit not to publish; got %d", len(pub.batches))
	}
}

func TestPublishing_PublishFailureIsLoggedNotReturned(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pub := &fakePublisher{err: errors.New("redis down")}
	s := Publishing{Store: NewMemory(seedBoard()), Pub: pub, Log: logger}

	var b model.Batch
	b.Add(model.UpdateMutation(model.KindTodo, "t1", model.Fields{Done: model.BoolPtr(false)}))
	if err := s.Commit(context.Background(), b); err != nil {
		t.Fatalf("expected commit to succeed; got %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning to be logged; got %+v", entry)
	}
}
