package cli

import (
	"path/filepath"

	"todoboard/internal/config"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var saveConfig bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and an empty board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), app, func(s *session) error {
				path := ""
				switch {
				case s.sqlite != nil:
					path = s.sqlite.Path()
				case s.replica != nil:
					path = s.replica.Path()
				}
				abs, err := filepath.Abs(s.dir)
				if err != nil {
					return writeErr(cmd, err)
				}

				// Remember this board so later commands find it from anywhere.
				if saveConfig {
					cfg := app.Cfg
					cfg.Dir = abs
					if err := config.Save(app.ConfigPath, cfg); err != nil {
						return writeErr(cmd, err)
					}
				}

				return writeOut(cmd, app, map[string]any{
					"dir":     abs,
					"backend": app.Cfg.Backend,
					"path":    path,
					"config":  map[string]any{"path": app.ConfigPath, "saved": saveConfig},
				})
			})
		},
	}
	cmd.Flags().BoolVar(&saveConfig, "save-config", false, "Write dir and backend to the config file")
	return cmd
}
