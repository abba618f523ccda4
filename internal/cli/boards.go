package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/perm"
)

func newBoardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "Board commands",
	}
	cmd.AddCommand(newBoardsListCmd(app))
	cmd.AddCommand(newBoardsCreateCmd(app))
	cmd.AddCommand(newBoardsRenameCmd(app))
	cmd.AddCommand(newBoardsDeleteCmd(app))
	cmd.AddCommand(newBoardsShowCmd(app))
	return cmd
}

// listView is one list with its cards in display order.
type listView struct {
	model.List
	Cards []model.Card `json:"cards"`
}

type boardView struct {
	Board model.Board `json:"board"`
	Lists []listView  `json:"lists"`
}

func viewOf(st *board.State) boardView {
	v := boardView{Board: st.Board, Lists: []listView{}}
	for _, l := range st.SortedLists() {
		v.Lists = append(v.Lists, listView{List: l, Cards: st.CardsIn(l.ID)})
	}
	return v
}

func newBoardsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the boards you own or belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			me, err := b.me()
			if err != nil {
				return writeErr(cmd, err)
			}
			boards, err := b.boards.Boards(cmd.Context(), me.UserID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if boards == nil {
				boards = []model.Board{}
			}
			return writeOut(cmd, app, map[string]any{
				"data": boards,
				"meta": map[string]any{"count": len(boards)},
			})
		},
	}
}

func newBoardsCreateCmd(app *App) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return writeErr(cmd, errMissing("title"))
			}
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			me, err := b.me()
			if err != nil {
				return writeErr(cmd, err)
			}
			created, _, err := b.boards.CreateBoard(cmd.Context(), me, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": created})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Board title")
	return cmd
}

func newBoardsRenameCmd(app *App) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "rename <board-id>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.load(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			_, changed, err := b.boards.RenameBoard(cmd.Context(), st, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": st.Board,
				"meta": map[string]any{"changed": changed},
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newBoardsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id>",
		Short: "Delete a board with its lists, cards, members and invites",
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
			st, err := b.boards.Load(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := b.boards.DeleteBoard(cmd.Context(), st.Board.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": st.Board.ID}})
		},
	}
}

func newBoardsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board with its lists and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.load(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": viewOf(st),
				"meta": map[string]any{"lists": len(st.Lists), "cards": len(st.Cards)},
			})
		},
	}
}
