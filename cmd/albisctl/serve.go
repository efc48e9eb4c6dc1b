package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-albis-sdk/internal/config"
	"github.com/jrsteele09/go-albis-sdk/internal/fakeprovider"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) serveFakeCommand() *cobra.Command {
	var addr, stage string
	var expiresIn int64
	cmd := &cobra.Command{
		Use:   "serve-fake",
		Short: "Run a local stand-in for the leasing API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			setLogLevel(cfg.Log.Level)
			displayAppname(a.stderr, appName)

			provider := fakeprovider.New(
				fakeprovider.WithStage(stage),
				fakeprovider.WithExpiresIn(expiresIn),
				fakeprovider.WithLogger(log.Logger),
			)
			if !cfg.Credentials.IsZero() {
				if err := provider.AddAccount(cfg.Credentials); err != nil {
					return errors.Wrap(err, "registering configured credentials")
				}
			} else {
				log.Warn().Msg("no credentials configured, the token endpoint will reject every request")
			}

			server := &http.Server{Addr: addr, Handler: provider, ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() {
				errCh <- listenAndServe(server)
			}()
			if err := waitForStopSignal(cmd.Context(), errCh); err != nil {
				return err
			}
			return shutdown(server)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8089", "listen address")
	cmd.Flags().StringVar(&stage, "stage", fakeprovider.DefaultStage, "API stage to mount routes under")
	cmd.Flags().Int64Var(&expiresIn, "expires-in", fakeprovider.DefaultExpiresIn, "lifetime of issued tokens in seconds")
	return cmd
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("fake provider listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

// waitForStopSignal blocks until a signal arrives, ctx ends or the server fails.
func waitForStopSignal(ctx context.Context, serverErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case <-ctx.Done():
	case err := <-serverErr:
		return err
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	log.Info().Msg("fake provider stopped")
	return nil
}
