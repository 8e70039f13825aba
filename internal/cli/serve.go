package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/craftrealm/realm-api/internal/app"
	"github.com/craftrealm/realm-api/internal/catalog"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var seed string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Open(ctx, rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if seed != "" {
				items, err := catalog.LoadFile(seed)
				if err != nil {
					return err
				}
				if _, err := a.Importer().Import(ctx, items); err != nil {
					return err
				}
			}

			handler, stopLimiter := a.Handler()
			defer stopLimiter()

			srv := &http.Server{
				Addr:         ":" + rt.cfg.Port,
				Handler:      handler,
				ReadTimeout:  rt.cfg.ReadTimeout,
				WriteTimeout: rt.cfg.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				rt.log.WithField("port", rt.cfg.Port).Info("realmd listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return errors.Wrap(err, "serve")
			case <-ctx.Done():
			}

			rt.log.Info("shutting down")
			shutCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
			defer cancel()
			return errors.Wrap(srv.Shutdown(shutCtx), "shutdown")
		},
	}

	cmd.Flags().StringVar(&seed, "catalog", "", "Catalog file (JSON or YAML) to import before serving")

	return cmd
}
