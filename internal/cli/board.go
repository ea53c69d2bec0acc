package cli

import (
	"os"
	"path/filepath"

	"todoboard/internal/tui"

	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the terminal board (drag todos with the mouse or J/K/H/L)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, app)
		},
	}
}

func runBoard(cmd *cobra.Command, app *App) error {
	return withSession(cmd.Context(), app, func(s *session) error {
		// The board owns the terminal; send logs to a file next to the data.
		f, err := os.OpenFile(filepath.Join(s.dir, "board.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return writeErr(cmd, err)
		}
		defer f.Close()
		app.Log.SetOutput(f)
		defer app.Log.SetOutput(cmd.ErrOrStderr())

		err = tui.Run(cmd.Context(), tui.Deps{
			Store:    s.store,
			Board:    s.board,
			Emitter:  s.emitter,
			Notifier: s.notifier,
			Log:      app.Log,
		})
		if err != nil {
			return writeErr(cmd, err)
		}
		return nil
	})
}
