package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newListsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "List (column) commands",
	}
	cmd.AddCommand(newListsAddCmd(app))
	cmd.AddCommand(newListsRenameCmd(app))
	cmd.AddCommand(newListsDeleteCmd(app))
	return cmd
}

func newListsAddCmd(app *App) *cobra.Command {
	var boardID, title string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a list to a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return writeErr(cmd, errMissing("title"))
			}
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.load(cmd.Context(), boardID)
			if err != nil {
				return writeErr(cmd, err)
			}
			l, _, err := b.boards.AddList(cmd.Context(), st, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": l})
		},
	}
	cmd.Flags().StringVar(&boardID, "board", "", "Board id")
	cmd.Flags().StringVar(&title, "title", "", "List title")
	_ = cmd.MarkFlagRequired("board")
	return cmd
}

func newListsRenameCmd(app *App) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "rename <list-id>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.stateForList(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			_, changed, err := b.boards.RenameList(cmd.Context(), st, args[0], title)
			if err != nil {
				return writeErr(cmd, err)
			}
			l, _ := st.FindList(args[0])
			return writeOut(cmd, app, map[string]any{
				"data": l,
				"meta": map[string]any{"changed": changed},
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newListsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list and its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.stateForList(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := b.boards.DeleteList(cmd.Context(), st, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": viewOf(st)})
		},
	}
}
