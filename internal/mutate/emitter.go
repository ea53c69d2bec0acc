package mutate

import (
	"context"

	"todoboard/internal/model"
	"todoboard/internal/order"
	"todoboard/internal/store"

	"github.com/sirupsen/logrus"
)

// Emitter turns plans into one atomic batch and commits it.
type Emitter struct {
	Store store.Store
	Log   logrus.FieldLogger
}

func NewEmitter(s store.Store, log logrus.FieldLogger) *Emitter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Emitter{Store: s, Log: log}
}

// Emit commits plans as a single batch. Nothing is committed when every plan
// is empty.
func (e *Emitter) Emit(ctx context.Context, plans ...order.Plan) error {
	return e.EmitWith(ctx, model.Batch{}, plans...)
}

// EmitWith commits base followed by the plans' assignments in one batch, so a
// new entity and the renumber that made room for it land together.
func (e *Emitter) EmitWith(ctx context.Context, base model.Batch, plans ...order.Plan) error {
	b := base
	b.Append(BatchFromPlans(plans...))
	if b.Empty() {
		return nil
	}
	if err := e.Store.Commit(ctx, b); err != nil {
		e.Log.WithError(err).WithField("mutations", len(b.Mutations)).Error("commit batch")
		return CommitError{Mutations: len(b.Mutations), Err: err}
	}
	e.Log.WithField("mutations", len(b.Mutations)).Debug("committed batch")
	return nil
}

// BatchFromPlans converts assignments into field updates. When several plans
// touch the same entity the later assignment wins and the entity keeps its
// first position in the batch.
func BatchFromPlans(plans ...order.Plan) model.Batch {
	var b model.Batch
	pos := map[string]int{}
	for _, p := range plans {
		for _, a := range p.Assignments {
			f := model.Fields{Order: model.FloatPtr(a.NewOrder)}
			if a.NewListID != nil {
				f.ListID = model.StrPtr(*a.NewListID)
			}
			key := string(a.Kind) + "/" + a.EntityID
			if i, ok := pos[key]; ok {
				b.Mutations[i].Fields = b.Mutations[i].Fields.Merge(f)
				continue
			}
			pos[key] = len(b.Mutations)
			b.Add(model.UpdateMutation(a.Kind, a.EntityID, f))
		}
	}
	return b
}
