package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/scriptor"
	httpAdapter "github.com/aretw0/scriptor/pkg/adapters/http"
	"github.com/aretw0/scriptor/pkg/runner"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Exposes scripts, runs, reload events and Prometheus metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		handler := httpAdapter.NewHandler(app.Engine,
			httpAdapter.WithSessions(app.Sessions),
			httpAdapter.WithGatherer(app.Registry),
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithVersion(scriptor.Version),
		)
		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := runner.SignalContext(cmd.Context())
		defer stop()

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting server", "address", srv.Addr, "scripts", app.Config.ScriptsDir())
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			app.Logger.Info("Start shutdown")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			app.Logger.Info("Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
