package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"corkboard-cli/internal/config"
	"corkboard-cli/internal/identity"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in and out",
	}
	cmd.AddCommand(newAuthLoginCmd(app))
	cmd.AddCommand(newAuthWhoamiCmd(app))
	cmd.AddCommand(newAuthLogoutCmd(app))
	cmd.AddCommand(newAuthTokenCmd(app))
	return cmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an email address",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := identityProvider()
			if err != nil {
				return writeErr(cmd, err)
			}
			who, err := p.SignIn(email)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger.WithField("user_id", who.UserID).Info("signed in")
			return writeOut(cmd, app, map[string]any{"data": who})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newAuthWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := identityProvider()
			if err != nil {
				return writeErr(cmd, err)
			}
			who, err := p.Current()
			if errors.Is(err, identity.ErrSignedOut) {
				return writeErr(cmd, errSignedOut)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": who})
		},
	}
}

func newAuthLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := identityProvider()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := p.SignOut(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"signed_out": true}})
		},
	}
}

func newAuthTokenCmd(app *App) *cobra.Command {
	var ttl time.Duration
	var save bool
	var server string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for `corkboard serve`",
		Long: strings.TrimSpace(`
Issues a bearer token for the signed-in user, signed with server.jwt_secret.
With --save the token (and --server, when given) is written to the config file
and the store driver is switched to remote.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := app.cfg.Server.JWTSecret
			if secret == "" {
				return writeErr(cmd, errors.New("server.jwt_secret is not set (config or CORKBOARD_JWT_SECRET)"))
			}
			p, err := identityProvider()
			if err != nil {
				return writeErr(cmd, err)
			}
			who, err := p.Current()
			if errors.Is(err, identity.ErrSignedOut) {
				return writeErr(cmd, errSignedOut)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			tok, err := identity.NewTokens(secret, ttl).Issue(who)
			if err != nil {
				return writeErr(cmd, err)
			}
			if save {
				path, err := config.ConfigPath()
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg, err := config.Load(path)
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.Store.Driver = config.DriverRemote
				cfg.Store.Token = tok
				if server != "" {
					cfg.Store.ServerURL = server
				}
				if err := config.Save(path, cfg); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"token": tok, "user_id": who.UserID, "saved": save},
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", identity.DefaultTokenTTL, "Token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "Store the token in the config file")
	cmd.Flags().StringVar(&server, "server", "", "Server URL to save alongside the token")
	return cmd
}
