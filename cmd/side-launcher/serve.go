package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/elpatron68/side-launcher/internal/auth"
	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/dispatch"
	applog "github.com/elpatron68/side-launcher/internal/log"
	"github.com/elpatron68/side-launcher/internal/message"
	"github.com/elpatron68/side-launcher/internal/server"
	"github.com/elpatron68/side-launcher/internal/task"
)

var (
	listenFlag string
	noWatch    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the launcher web UI and watch task sources for changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ready, err := dispatch.EnsureReady(a.cfg)
		if err != nil {
			return fmt.Errorf("startup check failed: %w", err)
		}
		if ready.TerminalErr != nil {
			applog.Warnf("interactive tasks disabled: %v", ready.TerminalErr)
		}

		store, err := auth.NewStoreFromConfig(a.cfg.Users)
		if err != nil {
			return fmt.Errorf("invalid user in config: %w", err)
		}
		addr := resolveListenAddress(a.cfg, listenFlag)
		if store.Len() == 0 && !isLoopback(addr) {
			return fmt.Errorf("refusing to serve on %s without users; add users to the config or listen on 127.0.0.1", addr)
		}

		srv := server.NewServer(store, a.cfg, a.engine)
		httpSrv := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			applog.Infof("side-launcher web UI listening on %s", addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			srv.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
		if a.cfg.Watch && !noWatch {
			g.Go(func() error {
				return a.engine.Watch(ctx, func(res task.Resolution) {
					applog.Infof("task sources changed: %d task(s)", len(res.Tasks))
					srv.Broadcast(message.TasksUpdated{Tasks: res.Tasks})
				})
			})
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "listen address (overrides config and SIDELAUNCHER_LISTEN)")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch task sources for changes")
}

// resolveListenAddress picks flag, then SIDELAUNCHER_LISTEN, then config,
// then the default.
func resolveListenAddress(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("SIDELAUNCHER_LISTEN"); env != "" {
		return env
	}
	if cfg.Listen != "" {
		return cfg.Listen
	}
	return config.Default().Listen
}
