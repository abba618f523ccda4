package cli

import (
	"time"

	"github.com/spf13/cobra"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/perm"
)

func newInvitesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "Share boards with invite codes",
	}
	cmd.AddCommand(newInvitesCreateCmd(app))
	cmd.AddCommand(newInvitesShowCmd(app))
	cmd.AddCommand(newInvitesJoinCmd(app))
	return cmd
}

func newInvitesCreateCmd(app *App) *cobra.Command {
	var maxUses int
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "create <board-id>",
		Short: "Create an invite code for a board you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			var expiresAt time.Time
			if expiresIn > 0 {
				expiresAt = time.Now().Add(expiresIn)
			}
			inv, err := b.invites.Create(cmd.Context(), args[0], maxUses, expiresAt)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   inv,
				"_hints": []string{"corkboard invites join " + inv.InviteCode},
			})
		},
	}
	cmd.Flags().IntVar(&maxUses, "max-uses", 0, "Maximum number of joins (0 = unlimited)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Expire after this long (0 = never)")
	return cmd
}

func newInvitesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show the board's latest invite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if err := b.require(cmd.Context(), args[0], perm.Owner); err != nil {
				return writeErr(cmd, err)
			}
			inv, err := b.invites.Latest(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": inv})
		},
	}
}

func newInvitesJoinCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a board with an invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if _, err := b.me(); err != nil {
				return writeErr(cmd, err)
			}
			if dryRun {
				info, err := b.invites.Inspect(cmd.Context(), args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": info})
			}
			info, err := b.invites.Redeem(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   info,
				"_hints": []string{"corkboard --board " + info.BoardID},
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only check the code and show the board it opens")
	return cmd
}

func newMembersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Board membership",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list <board-id>",
		Short: "List a board's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if err := b.require(cmd.Context(), args[0], perm.Member); err != nil {
				return writeErr(cmd, err)
			}
			ms, err := b.invites.Members(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if ms == nil {
				ms = []model.Member{}
			}
			return writeOut(cmd, app, map[string]any{
				"data": ms,
				"meta": map[string]any{"count": len(ms)},
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <board-id> <member-id>",
		Short: "Remove a member from a board you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if err := b.invites.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"removed": args[1]}})
		},
	})
	return cmd
}
