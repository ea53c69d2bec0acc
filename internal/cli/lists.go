package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newListsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lists",
		Aliases: []string{"list"},
		Short:   "Board lists (columns)",
	}
	cmd.AddCommand(newListsAddCmd(app))
	cmd.AddCommand(newListsLsCmd(app))
	cmd.AddCommand(newListsMoveCmd(app))
	cmd.AddCommand(newListsRenameCmd(app))
	cmd.AddCommand(newListsRmCmd(app))
	return cmd
}

func newListsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Append a list to the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				l, err := s.board.AddList(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, l)
			})
		},
	}
}

func newListsLsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List lists in board order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				snap, err := s.store.Snapshot(cmd.Context())
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, newBoardView(snap, false))
			})
		},
	}
}

func newListsMoveCmd(app *App) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <list-id>",
		Short: "Move a list to a position on the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				plan, err := s.board.MoveList(cmd.Context(), args[0], index)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, plan)
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Destination position (0 = first; past the end appends)")
	return cmd
}

func newListsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				name := strings.Join(args[1:], " ")
				if err := s.board.RenameList(cmd.Context(), args[0], name); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"id": args[0], "name": strings.TrimSpace(name)})
			})
		},
	}
}

func newListsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <list-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a list and its todos",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				n, err := s.board.DeleteList(cmd.Context(), args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"id": args[0], "deletedTodos": n})
			})
		},
	}
}
