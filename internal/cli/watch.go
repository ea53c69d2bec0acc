package cli

import (
	"context"
	"strings"

	"todoboard/internal/notify"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var count int
	var showBoard bool
	var includeOwn bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print batches other clients commit, as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(app.Cfg.RedisURL) == "" {
				return writeErr(cmd, errMissingSetting("redis url", "--redis-url"))
			}
			return withSession(cmd.Context(), app, func(s *session) error {
				if s.notifier == nil {
					return writeErr(cmd, errMissingSetting("reachable redis", "--redis-url"))
				}
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()

				seen := 0
				var outErr error
				err := s.notifier.Listen(ctx, !includeOwn, func(m notify.Message) {
					var meta any
					if showBoard {
						if snap, err := s.store.Snapshot(ctx); err == nil {
							meta = map[string]any{"board": newBoardView(snap, true)}
						} else {
							app.Log.WithError(err).Warn("read board")
						}
					}
					if err := writeOutMeta(cmd, app, m, meta); err != nil {
						outErr = err
						cancel()
						return
					}
					seen++
					if count > 0 && seen >= count {
						cancel()
					}
				})
				if err != nil {
					return writeErr(cmd, err)
				}
				return outErr
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many batches (0 = run until interrupted)")
	cmd.Flags().BoolVar(&showBoard, "show-board", false, "Include the board as read after each batch")
	cmd.Flags().BoolVar(&includeOwn, "include-own", false, "Also print batches this process published")
	return cmd
}
