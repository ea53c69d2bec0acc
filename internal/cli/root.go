package cli

import (
	"fmt"
	"strings"

	"todoboard/internal/config"
	"todoboard/internal/format"
	"todoboard/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	Cfg        config.Config
	PrettyJSON bool
	Log        *logrus.Logger

	flags flagValues
}

// flagValues hold persistent flags; they override the config file and env
// only when set on the command line.
type flagValues struct {
	dir, backend, board, redisURL, format, logLevel, logFormat string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "todoboard",
		Short:        "Multi-list todo board with drag reordering",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the terminal board
  todoboard

  # Scriptable commands
  todoboard lists add "Inbox"
  todoboard todos add <list-id> "buy milk"
  todoboard todos move <todo-id> --to <list-id> --index 0
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => terminal board.
			if len(args) == 0 {
				return runBoard(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.configure(cmd)
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigPath, "config", config.Path(), "Path to config.toml (env TODOBOARD_CONFIG)")
	pf.StringVar(&app.flags.dir, "dir", "", "Data directory (env TODOBOARD_DIR; default: nearest .todoboard)")
	pf.StringVar(&app.flags.backend, "backend", "", "Store backend (sqlite|automerge)")
	pf.StringVar(&app.flags.board, "board", "", "Board name used for the realtime channel")
	pf.StringVar(&app.flags.redisURL, "redis-url", "", "Redis URL for realtime push (empty disables)")
	pf.StringVar(&app.flags.format, "format", "", "Output format (json|edn|text)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	pf.StringVar(&app.flags.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&app.flags.logFormat, "log-format", "", "Log format (text|json)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newTodosCmd(app))
	cmd.AddCommand(newRenumberCmd(app))
	cmd.AddCommand(newNormalizeCmd(app))
	cmd.AddCommand(newMergeCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newBoardCmd(app))

	return cmd
}

// configure resolves config file < env < flags and builds the logger.
func (app *App) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return writeErr(cmd, err)
	}
	cfg = config.ApplyEnv(cfg)

	pf := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if pf.Changed(name) {
			*dst = strings.TrimSpace(v)
		}
	}
	override("dir", &cfg.Dir, app.flags.dir)
	override("backend", &cfg.Backend, app.flags.backend)
	override("board", &cfg.Board, app.flags.board)
	override("redis-url", &cfg.RedisURL, app.flags.redisURL)
	override("format", &cfg.Format, app.flags.format)
	override("log-level", &cfg.LogLevel, app.flags.logLevel)
	override("log-format", &cfg.LogFormat, app.flags.logFormat)

	if err := cfg.Validate(); err != nil {
		return writeErr(cmd, err)
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return writeErr(cmd, fmt.Errorf("log level: %w", err))
	}
	app.Cfg = cfg
	app.Log = logger
	return nil
}

// envelope is the output shape of every command: data plus optional meta.
type envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

func (e envelope) Text() string {
	if t, ok := e.Data.(format.Texter); ok {
		return t.Text()
	}
	return fmt.Sprintf("%v\n", e.Data)
}

func writeOut(cmd *cobra.Command, app *App, data any) error {
	return format.Write(cmd.OutOrStdout(), envelope{Data: data}, app.Cfg.Format, app.PrettyJSON)
}

func writeOutMeta(cmd *cobra.Command, app *App, data, meta any) error {
	return format.Write(cmd.OutOrStdout(), envelope{Data: data, Meta: meta}, app.Cfg.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
