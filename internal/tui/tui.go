package tui

import (
	"context"
	"errors"

	"todoboard/internal/mutate"
	"todoboard/internal/notify"
	"todoboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Deps is what the board needs from an opened session. Notifier is optional;
// when set, batches pushed by other clients trigger a reload.
type Deps struct {
	Store    store.Store
	Board    *mutate.Board
	Emitter  *mutate.Emitter
	Notifier *notify.Notifier
	Log      logrus.FieldLogger
}

func Run(ctx context.Context, deps Deps) error {
	if deps.Store == nil || deps.Board == nil || deps.Emitter == nil {
		return errors.New("tui: missing store")
	}
	applyColorProfilePreference()
	applyThemePreference()

	m, err := newBoardModel(ctx, deps)
	if err != nil {
		return err
	}
	unsubscribe := deps.Store.Subscribe(m.push)
	defer unsubscribe()

	if deps.Notifier != nil {
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			_ = deps.Notifier.Listen(lctx, true, func(notify.Message) {
				snap, err := deps.Store.Snapshot(lctx)
				if err != nil {
					m.log.WithError(err).Warn("reload after remote batch")
					return
				}
				m.push(snap)
			})
		}()
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
