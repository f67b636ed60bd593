package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"product_catalog/server"
	"product_catalog/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newHTTPServer(cmd.Context())
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("catalog API listening", "addr", srv.Addr, "route_prefix", viper.GetString("route-prefix"))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				viper.GetDuration("shutdown-timeout"),
				map[string]gfshutdown.Operation{
					"http-server": func(ctx context.Context) error {
						slog.Info("graceful shutdown initiated")
						return srv.Shutdown(ctx)
					},
				},
			)

			select {
			case err := <-errCh:
				return fmt.Errorf("serve: %w", err)
			case code := <-wait:
				slog.Info("catalog API stopped", "exit_code", code)
				if code != 0 {
					return fmt.Errorf("shutdown finished with exit code %d", code)
				}
				return nil
			}
		},
	}

	cmd.Flags().String("addr", ":3002", "listen address")
	cmd.Flags().String("route-prefix", "/bp", "prefix of the product routes")
	cmd.Flags().String("cors-origin", "http://localhost:4200", "allowed browser origin, empty to disable CORS")
	cmd.Flags().Bool("seed", true, "load the built-in catalog at startup")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")

	viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	viper.BindPFlag("route-prefix", cmd.Flags().Lookup("route-prefix"))
	viper.BindPFlag("cors-origin", cmd.Flags().Lookup("cors-origin"))
	viper.BindPFlag("seed", cmd.Flags().Lookup("seed"))
	viper.BindPFlag("shutdown-timeout", cmd.Flags().Lookup("shutdown-timeout"))
	return cmd
}

// newHTTPServer builds the repository and the HTTP server from the
// current configuration without starting it.
func newHTTPServer(ctx context.Context) (*http.Server, error) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, err := store.NewStore(ctx, viper.GetBool("seed"))
	if err != nil {
		return nil, err
	}
	api := server.New(repo, server.Config{
		RoutePrefix: viper.GetString("route-prefix"),
		CORSOrigin:  viper.GetString("cors-origin"),
	}, slog.Default())

	return &http.Server{
		Addr:              viper.GetString("addr"),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}
