package replica

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"todoboard/internal/model"
	"todoboard/internal/store"

	"github.com/automerge/automerge-go"
)

// Field names under "<kind>/<id>/". createdAt doubles as the existence marker:
// an entity whose createdAt key is gone (deleted, or only partially written by a
// concurrent update that raced a delete) is not part of the board.
const (
	fText      = "text"
	fDone      = "done"
	fListID    = "listId"
	fName      = "name"
	fOrder     = "order"
	fCreatedAt = "createdAt"
)

var todoFields = []string{fText, fDone, fListID, fOrder, fCreatedAt}
var listFields = []string{fName, fOrder, fCreatedAt}

func key(kind model.Kind, id, field string) string {
	return string(kind) + "/" + id + "/" + field
}

func splitKey(k string) (model.Kind, string, string, bool) {
	first := strings.Index(k, "/")
	last := strings.LastIndex(k, "/")
	if first <= 0 || last <= first+1 || last == len(k)-1 {
		return "", "", "", false
	}
	kind := model.Kind(k[:first])
	if !kind.Valid() {
		return "", "", "", false
	}
	return kind, k[first+1 : last], k[last+1:], true
}

// readBoard decodes the document. missing holds ids whose order key is absent
// or unreadable.
func readBoard(doc *automerge.Doc) (store.Snapshot, map[string]bool, error) {
	keys, err := doc.RootMap().Keys()
	if err != nil {
		return store.Snapshot{}, nil, err
	}

	type entity struct {
		kind   model.Kind
		fields map[string]any
	}
	byID := map[string]*entity{}
	for _, k := range keys {
		kind, id, field, ok := splitKey(k)
		if !ok {
			continue
		}
		v, err := doc.Path(k).Get()
		if err != nil {
			return store.Snapshot{}, nil, fmt.Errorf("read %s: %w", k, err)
		}
		ek := string(kind) + "/" + id
		e := byID[ek]
		if e == nil {
			e = &entity{kind: kind, fields: map[string]any{}}
			byID[ek] = e
		}
		e.fields[field] = v.Interface()
	}

	ids := make([]string, 0, len(byID))
	for ek := range byID {
		ids = append(ids, ek)
	}
	sort.Strings(ids)

	var snap store.Snapshot
	missing := map[string]bool{}
	for _, ek := range ids {
		e := byID[ek]
		created, ok := asTime(e.fields[fCreatedAt])
		if !ok {
			continue
		}
		id := ek[len(e.kind)+1:]
		ord, hasOrder := asFloat(e.fields[fOrder])
		if !hasOrder {
			missing[id] = true
		}
		switch e.kind {
		case model.KindList:
			name, _ := e.fields[fName].(string)
			snap.Lists = append(snap.Lists, model.List{ID: id, Name: name, CreatedAt: created, Order: ord})
		case model.KindTodo:
			text, _ := e.fields[fText].(string)
			done, _ := e.fields[fDone].(bool)
			listID, _ := e.fields[fListID].(string)
			snap.Todos = append(snap.Todos, model.Todo{ID: id, Text: text, Done: done, CreatedAt: created, ListID: listID, Order: ord})
		}
	}
	return snap, missing, nil
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case int64:
		return time.UnixMilli(x).UTC(), true
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func writeMutation(doc *automerge.Doc, m model.Mutation) error {
	id := strings.TrimSpace(m.EntityID)
	if m.Op == model.OpDelete {
		names := todoFields
		if m.Kind == model.KindList {
			names = listFields
		}
		for _, f := range names {
			if err := deleteKey(doc, key(m.Kind, id, f)); err != nil {
				return err
			}
		}
		return nil
	}

	f := m.Fields
	if m.Op == model.OpCreate && f.CreatedAt == nil {
		f.CreatedAt = model.TimePtr(time.Now().UTC())
	}
	set := func(field string, v any) error {
		return doc.Path(key(m.Kind, id, field)).Set(v)
	}
	if f.Order != nil {
		if err := set(fOrder, *f.Order); err != nil {
			return err
		}
	}
	if f.CreatedAt != nil {
		if err := set(fCreatedAt, f.CreatedAt.UTC()); err != nil {
			return err
		}
	}
	switch m.Kind {
	case model.KindList:
		if f.Name != nil {
			if err := set(fName, *f.Name); err != nil {
				return err
			}
		}
	case model.KindTodo:
		if f.Text != nil {
			if err := set(fText, *f.Text); err != nil {
				return err
			}
		}
		if f.Done != nil {
			if err := set(fDone, *f.Done); err != nil {
				return err
			}
		}
		if f.ListID != nil {
			if err := set(fListID, strings.TrimSpace(*f.ListID)); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteKey(doc *automerge.Doc, k string) error {
	v, err := doc.Path(k).Get()
	if err != nil {
		return err
	}
	if v.Interface() == nil {
		return nil
	}
	return doc.Path(k).Delete()
}
