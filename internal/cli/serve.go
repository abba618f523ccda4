package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"corkboard-cli/internal/config"
	"corkboard-cli/internal/identity"
	"corkboard-cli/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured store over HTTP for remote clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if cfg.Store.Driver == config.DriverRemote {
				return writeErr(cmd, errors.New("serve needs a local store (sqlite or postgres), not remote"))
			}
			if cfg.Server.JWTSecret == "" {
				return writeErr(cmd, errors.New("server.jwt_secret is not set (config or CORKBOARD_JWT_SECRET)"))
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx := cmd.Context()
			st, closers, err := openStore(ctx, cfg, app.logger, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() {
				for i := len(closers) - 1; i >= 0; i-- {
					_ = closers[i]()
				}
			}()

			e := server.New(st, identity.NewTokens(cfg.Server.JWTSecret, 0), app.logger)
			errCh := make(chan error, 1)
			go func() {
				app.logger.WithFields(log.Fields{"addr": addr, "driver": cfg.Store.Driver}).Info("serving")
				errCh <- e.Start(addr)
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return writeErr(cmd, err)
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return writeErr(cmd, err)
			}
			app.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	return cmd
}
