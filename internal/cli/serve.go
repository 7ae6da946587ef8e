package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/diegobridge/internal/completion"
	"github.com/me/diegobridge/internal/reconciler"
	"github.com/me/diegobridge/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the completion callback API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Listen
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			a.logger.Info("database ready", "path", a.cfg.DBPath)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opts []server.Option
			if c, err := a.client(); err != nil {
				a.logger.Warn("bbs client unavailable; health and reconciliation disabled", "error", err)
			} else {
				opts = append(opts, server.WithBBS(c))
				if a.cfg.Reconcile.Interval > 0 {
					loop := reconciler.NewLoop(st, c,
						completion.NewStagingHandler(st, a.logger),
						completion.NewTaskHandler(st, a.logger),
						a.cfg.Reconciler(), a.logger)
					go loop.Start(ctx)
					defer loop.Stop()
				}
			}
			srv := server.New(st, a.logger, opts...)

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server starting", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
