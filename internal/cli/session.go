package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todoboard/internal/config"
	"todoboard/internal/model"
	"todoboard/internal/mutate"
	"todoboard/internal/notify"
	"todoboard/internal/replica"
	"todoboard/internal/store"

	"github.com/redis/go-redis/v9"
)

// session is one opened board: the backend store, the optional realtime
// publisher wrapped around it, and the operations that commit through them.
type session struct {
	dir        string
	store      store.Store
	sqlite     *store.SQLite
	replica    *replica.Replica
	notifier   *notify.Notifier
	emitter    *mutate.Emitter
	board      *mutate.Board
	normalized model.Batch

	closers []func() error
}

func openSession(ctx context.Context, app *App) (*session, error) {
	dir, err := resolveDir(app.Cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Ensure(dir); err != nil {
		return nil, err
	}

	s := &session{dir: dir}
	var base store.Store
	origin := ""
	switch app.Cfg.Backend {
	case config.BackendAutomerge:
		r, err := replica.Open(dir, app.Log)
		if err != nil {
			return nil, err
		}
		s.replica = r
		base = r
		origin = r.ActorID()
	default:
		db, err := store.OpenSQLite(ctx, dir)
		if err != nil {
			return nil, err
		}
		s.sqlite = db
		s.closers = append(s.closers, db.Close)
		base = db
		origin = store.UUIDGen{}.NewID()
	}

	// Persist load-time order fixups before anything plans against the board.
	if n, ok := base.(store.Normalizer); ok {
		fix, err := n.Normalize(ctx)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("normalize orders: %w", err)
		}
		s.normalized = fix
		if !fix.Empty() {
			app.Log.WithField("fixups", len(fix.Mutations)).Info("normalized missing orders")
		}
	}

	s.store = base
	if url := strings.TrimSpace(app.Cfg.RedisURL); url != "" {
		rc, err := notify.Dial(ctx, url)
		if err != nil {
			app.Log.WithError(err).Warn("realtime push disabled")
		} else {
			s.closers = append(s.closers, rc.Close)
			s.notifier = notify.New(rc, notify.Channel(app.Cfg.Board), origin, app.Log)
			s.store = store.Publishing{Store: base, Pub: s.notifier, Log: app.Log}
		}
	}

	s.emitter = mutate.NewEmitter(s.store, app.Log)
	s.board = mutate.NewBoard(s.store, s.emitter, store.UUIDGen{})
	return s, nil
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func resolveDir(cfg config.Config) (string, error) {
	if d := strings.TrimSpace(cfg.Dir); d != "" {
		return d, nil
	}
	return store.DefaultDir()
}

// withSession opens the board for one command and closes it afterwards.
func withSession(ctx context.Context, app *App, fn func(*session) error) error {
	s, err := openSession(ctx, app)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
