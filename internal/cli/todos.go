package cli

import (
	"strings"

	"todoboard/internal/model"

	"github.com/spf13/cobra"
)

func newTodosCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Todos within lists",
	}
	cmd.AddCommand(newTodosAddCmd(app))
	cmd.AddCommand(newTodosLsCmd(app))
	cmd.AddCommand(newTodosMoveCmd(app))
	cmd.AddCommand(newTodosInsertAfterCmd(app))
	cmd.AddCommand(newTodosToggleCmd(app))
	cmd.AddCommand(newTodosToggleAllCmd(app))
	cmd.AddCommand(newTodosRmCmd(app))
	cmd.AddCommand(newTodosClearCompletedCmd(app))
	return cmd
}

func newTodosAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <list-id> <text>",
		Short: "Append a todo to a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				t, err := s.board.AddTodo(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, t)
			})
		},
	}
}

func newTodosLsCmd(app *App) *cobra.Command {
	var listID string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List todos in visual order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				snap, err := s.store.Snapshot(cmd.Context())
				if err != nil {
					return writeErr(cmd, err)
				}
				listID = strings.TrimSpace(listID)
				if listID == "" {
					view := newBoardView(snap, true)
					remaining := 0
					for _, l := range view.Lists {
						remaining += l.Remaining
					}
					return writeOutMeta(cmd, app, view, map[string]any{"remaining": remaining})
				}
				if _, ok := snap.FindList(listID); !ok {
					return writeErr(cmd, model.NotFoundError{Kind: string(model.KindList), ID: listID})
				}
				todos := snap.TodosIn(listID)
				if todos == nil {
					todos = []model.Todo{}
				}
				return writeOutMeta(cmd, app, todosView(todos), map[string]any{
					"list":      listID,
					"remaining": snap.Remaining(listID),
				})
			})
		},
	}
	cmd.Flags().StringVar(&listID, "list", "", "Only this list")
	return cmd
}

func newTodosMoveCmd(app *App) *cobra.Command {
	var to string
	var index int
	cmd := &cobra.Command{
		Use:   "move <todo-id>",
		Short: "Move a todo to a position in its list or another list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				plan, err := s.board.MoveTodo(cmd.Context(), args[0], to, index)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, plan)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Destination list id (default: the todo's own list)")
	cmd.Flags().IntVar(&index, "index", 0, "Destination position (0 = top; past the end appends)")
	return cmd
}

func newTodosInsertAfterCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "insert-after <todo-id> <text>",
		Short: "Create a todo directly below another",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				t, err := s.board.InsertTodoAfter(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, t)
			})
		},
	}
}

func newTodosToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <todo-id>",
		Short: "Flip a todo between done and not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				t, err := s.board.ToggleDone(cmd.Context(), args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, t)
			})
		},
	}
}

func newTodosToggleAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all <list-id>",
		Short: "Mark every todo in a list done (or undone if all are done)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				done, err := s.board.ToggleAll(cmd.Context(), args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"list": args[0], "done": done})
			})
		},
	}
}

func newTodosRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <todo-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				if err := s.board.DeleteTodo(cmd.Context(), args[0]); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"id": args[0], "deleted": true})
			})
		},
	}
}

func newTodosClearCompletedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed <list-id>",
		Short: "Delete every done todo in a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				n, err := s.board.DeleteCompleted(cmd.Context(), args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"list": args[0], "deleted": n})
			})
		},
	}
}
