package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/reconcile"
)

func newCardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Card commands",
	}
	cmd.AddCommand(newCardsAddCmd(app))
	cmd.AddCommand(newCardsShowCmd(app))
	cmd.AddCommand(newCardsEditCmd(app))
	cmd.AddCommand(newCardsDeleteCmd(app))
	cmd.AddCommand(newCardsMoveCmd(app))
	return cmd
}

func newCardsAddCmd(app *App) *cobra.Command {
	var listID, title, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a card to a list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return writeErr(cmd, errMissing("title"))
			}
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.stateForList(cmd.Context(), listID)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, _, err := b.boards.AddCard(cmd.Context(), st, listID, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(description) != "" {
				if c, _, err = b.boards.EditCard(cmd.Context(), st, c.ID, description); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": c})
		},
	}
	cmd.Flags().StringVar(&listID, "list", "", "List id")
	cmd.Flags().StringVar(&title, "title", "", "Card title")
	cmd.Flags().StringVar(&description, "description", "", "Card notes (markdown)")
	_ = cmd.MarkFlagRequired("list")
	return cmd
}

func newCardsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <card-id>",
		Short: "Show a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.stateForCard(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, _ := st.FindCard(args[0])
			l, _ := st.FindList(c.ListID)
			return writeOut(cmd, app, map[string]any{
				"data": c,
				"meta": map[string]any{"board_id": st.Board.ID, "list_title": l.Title},
			})
		},
	}
}

func newCardsEditCmd(app *App) *cobra.Command {
	var title, description string
	var clearDesc bool

	cmd := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Change a card's title or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setTitle := cmd.Flags().Changed("title")
			setDesc := cmd.Flags().Changed("description") || clearDesc
			if !setTitle && !setDesc {
				return writeErr(cmd, errors.New("nothing to change: pass --title, --description or --clear-description"))
			}
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			ctx := cmd.Context()
			st, err := b.stateForCard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			var changed []string
			if setTitle {
				_, ok, err := b.boards.RenameCard(ctx, st, args[0], title)
				if err != nil {
					return writeErr(cmd, err)
				}
				if ok {
					changed = append(changed, "title")
				}
			}
			if setDesc {
				if clearDesc {
					description = ""
				}
				_, ok, err := b.boards.EditCard(ctx, st, args[0], description)
				if err != nil {
					return writeErr(cmd, err)
				}
				if ok {
					changed = append(changed, "description")
				}
			}
			c, _ := st.FindCard(args[0])
			if changed == nil {
				changed = []string{}
			}
			return writeOut(cmd, app, map[string]any{
				"data": c,
				"meta": map[string]any{"changed": changed},
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New notes (markdown)")
	cmd.Flags().BoolVar(&clearDesc, "clear-description", false, "Remove the notes")
	return cmd
}

func newCardsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <card-id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.stateForCard(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := b.boards.DeleteCard(cmd.Context(), st, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
		},
	}
}

type moveOutput struct {
	Card         model.Card `json:"card"`
	Kind         string     `json:"kind"`
	SourceListID string     `json:"source_list_id"`
	TargetListID string     `json:"target_list_id"`
	Applied      int        `json:"applied"`
	Failed       []string   `json:"failed"`
}

func newCardsMoveCmd(app *App) *cobra.Command {
	var over string

	cmd := &cobra.Command{
		Use:   "move <card-id>",
		Short: "Move a card onto another card's slot, or to the end of a list",
		Long: strings.TrimSpace(`
Moves a card exactly as a drop in the board view does: --over a card takes that
card's slot (in its list), --over a list appends to it. Sibling positions are
renumbered and written before the command exits.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			ctx := cmd.Context()
			st, err := b.stateForCard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			res, rep, err := b.boards.Move(ctx, st, args[0], over)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, _ := st.FindCard(args[0])
			out := moveOutput{
				Card:         c,
				Kind:         res.Kind.String(),
				SourceListID: res.SourceListID,
				TargetListID: res.TargetListID,
				Applied:      len(rep.Applied),
				Failed:       failedIDs(rep),
			}
			if err := writeOut(cmd, app, map[string]any{"data": out}); err != nil {
				return err
			}
			if !rep.OK() {
				return writeErr(cmd, fmt.Errorf("%d position update(s) failed: %w", len(rep.Failed), rep.Failed[0].Err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&over, "over", "", "Target card id or list id")
	_ = cmd.MarkFlagRequired("over")
	return cmd
}

func failedIDs(rep reconcile.Report) []string {
	out := []string{}
	for _, f := range rep.Failed {
		out = append(out, f.Update.CardID)
	}
	return out
}
