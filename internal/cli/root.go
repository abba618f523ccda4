package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"corkboard-cli/internal/config"
	"corkboard-cli/internal/format"
	"corkboard-cli/internal/perm"
	"corkboard-cli/internal/tui"
)

type App struct {
	Format     string
	PrettyJSON bool
	Driver     string
	DSN        string
	BoardID    string

	cfg       config.Config
	logger    *log.Logger
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "corkboard",
		Short:        "Kanban boards in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive board picker
  corkboard

  # Open one board directly
  corkboard --board <board-id>

  # Scriptable commands
  corkboard boards list
  corkboard cards move <card-id> --over <card-or-list-id>
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd.ErrOrStderr())
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Driver, "store", "", "Store driver (sqlite|postgres|remote); overrides config")
	cmd.PersistentFlags().StringVar(&app.DSN, "dsn", "", "SQLite path or Postgres DSN; overrides config")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CORKBOARD_FORMAT", "json"), "Output format (json|edn)")
	cmd.Flags().StringVar(&app.BoardID, "board", "", "Open this board instead of the picker")

	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newBoardsCmd(app))
	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newCardsCmd(app))
	cmd.AddCommand(newInvitesCmd(app))
	cmd.AddCommand(newMembersCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup resolves configuration (.env, config file, environment, then flags)
// and builds the logger.
func (app *App) setup(stderr io.Writer) error {
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	if app.Driver != "" {
		cfg.Store.Driver = app.Driver
	}
	if app.DSN != "" {
		cfg.Store.DSN = app.DSN
	}
	if _, err := format.Parse(app.Format); err != nil {
		return err
	}
	app.cfg = cfg
	logger, closer, err := config.Logger(cfg, stderr)
	if err != nil {
		return err
	}
	app.logger, app.logCloser = logger, closer
	return nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	// The TUI owns the terminal; logs go to a file.
	if app.cfg.LogFile == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return writeErr(cmd, err)
		}
		cfg := app.cfg
		cfg.LogFile = filepath.Join(dir, "corkboard.log")
		logger, closer, err := config.Logger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return writeErr(cmd, err)
		}
		_ = app.logCloser.Close()
		app.logger, app.logCloser = logger, closer
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer b.Close()
	me, err := b.me()
	if err != nil {
		return writeErr(cmd, err)
	}
	if app.BoardID != "" {
		if err := b.require(ctx, app.BoardID, perm.Member); err != nil {
			return writeErr(cmd, err)
		}
	}
	return tui.Run(ctx, tui.Options{
		Service:   b.boards,
		Identity:  me,
		Logger:    app.logger,
		Threshold: app.cfg.Drag.Threshold,
		BoardID:   app.BoardID,
		Refresh:   app.cfg.TUI.Refresh,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
