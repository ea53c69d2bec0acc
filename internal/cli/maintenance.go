package cli

import (
	"todoboard/internal/config"
	"todoboard/internal/model"

	"github.com/spf13/cobra"
)

func newRenumberCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "renumber <list-id|board>",
		Short: "Rewrite a scope's orders to 0, 1, 2, ... keeping visual order",
		Long:  "Renumber a list's todos, or pass \"" + model.BoardScope + "\" to renumber the lists themselves.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				plan, err := s.board.Renumber(cmd.Context(), args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, plan)
			})
		},
	}
}

func newNormalizeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Give every entity without an order one at the end of its scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the board persists the fixups; report what was written.
			return withSession(cmd.Context(), app, func(s *session) error {
				return writeOutMeta(cmd, app, s.normalized, map[string]any{"fixups": len(s.normalized.Mutations)})
			})
		},
	}
}

func newMergeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <file>",
		Short: "Merge another board.automerge replica into this board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Cfg.Backend != config.BackendAutomerge {
				return writeErr(cmd, errBackend("merge", config.BackendAutomerge, app.Cfg.Backend))
			}
			return withSession(cmd.Context(), app, func(s *session) error {
				before := s.replica.Heads()
				if err := s.replica.MergeFile(args[0]); err != nil {
					return writeErr(cmd, err)
				}
				after := s.replica.Heads()
				return writeOut(cmd, app, map[string]any{
					"file":    args[0],
					"heads":   after,
					"changed": !sameHeads(before, after),
				})
			})
		},
	}
}

func sameHeads(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
