package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"todoboard/internal/config"
	"todoboard/internal/syncserver"

	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replica sync between automerge boards",
	}
	cmd.AddCommand(newSyncServeCmd(app))
	cmd.AddCommand(newSyncJoinCmd(app))
	return cmd
}

func newSyncServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve this replica to peers over websocket",
		Example: strings.TrimSpace(`
# Serve on localhost
todoboard --backend automerge sync serve --addr 127.0.0.1:7474

# From another machine
todoboard --backend automerge sync join 192.168.1.10:7474
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Cfg.Backend != config.BackendAutomerge {
				return writeErr(cmd, errBackend("sync serve", config.BackendAutomerge, app.Cfg.Backend))
			}
			if !cmd.Flags().Changed("addr") {
				addr = app.Cfg.SyncAddr
			}
			return withSession(cmd.Context(), app, func(s *session) error {
				srv, err := syncserver.NewServer(syncserver.ServerConfig{Addr: addr}, s.replica, app.Log)
				if err != nil {
					return writeErr(cmd, err)
				}
				hs := &http.Server{Addr: srv.Addr(), Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

				_ = writeOut(cmd, app, map[string]any{
					"addr":      srv.Addr(),
					"dir":       s.dir,
					"actor":     s.replica.ActorID(),
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				})
				fmt.Fprintf(cmd.ErrOrStderr(), "todoboard sync serving at ws://%s/sync\n", srv.Addr())

				errCh := make(chan error, 1)
				go func() { errCh <- hs.ListenAndServe() }()
				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return writeErr(cmd, err)
				case <-cmd.Context().Done():
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return hs.Shutdown(ctx)
				}
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.Defaults().SyncAddr, "Bind address (host:port or :port)")
	return cmd
}

func newSyncJoinCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "join [addr]",
		Short: "Sync this replica with a serving peer until both converge",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Cfg.Backend != config.BackendAutomerge {
				return writeErr(cmd, errBackend("sync join", config.BackendAutomerge, app.Cfg.Backend))
			}
			addr := app.Cfg.SyncAddr
			if len(args) == 1 {
				addr = args[0]
			}
			return withSession(cmd.Context(), app, func(s *session) error {
				res, err := syncserver.Join(cmd.Context(), addr, s.replica, app.Log)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOutMeta(cmd, app, res, map[string]any{"heads": s.replica.Heads()})
			})
		},
	}
}
