package store

import (
	"context"

	"todoboard/internal/model"

	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, b model.Batch) error
}

// Publishing broadcasts every committed batch. A failed publish is logged and
// does not fail the commit: the batch is already durable.
type Publishing struct {
	Store
	Pub Publisher
	Log logrus.FieldLogger
}

func (p Publishing) Commit(ctx context.Context, b model.Batch) error {
	if err := p.Store.Commit(ctx, b); err != nil {
		return err
	}
	if p.Pub == nil || b.Empty() {
		return nil
	}
	if err := p.Pub.Publish(ctx, b); err != nil && p.Log != nil {
		p.Log.WithError(err).WithField("mutations", len(b.Mutations)).Warn("publish batch")
	}
	return nil
}
