package cli

import (
	"github.com/spf13/cobra"

	"corkboard-cli/internal/gitrepo"
	"corkboard-cli/internal/publish"
)

func newPublishCmd(app *App) *cobra.Command {
	var toDir, message string
	var overwrite, html, commit bool

	cmd := &cobra.Command{
		Use:   "publish <board-id>",
		Short: "Export a board as Markdown (and optionally HTML)",
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
			res, err := publish.WriteBoard(st, toDir, publish.WriteOptions{Overwrite: overwrite, HTML: html})
			if err != nil {
				return writeErr(cmd, err)
			}
			if !commit {
				return writeOut(cmd, app, map[string]any{
					"data": res,
					"_hints": []string{
						"corkboard publish " + st.Board.ID + " --to " + toDir + " --overwrite --commit",
					},
				})
			}
			if message == "" {
				message = "Publish: " + st.Board.Title
			}
			committed, err := gitrepo.CommitPaths(cmd.Context(), toDir, res.Written, message)
			if err != nil {
				return writeErr(cmd, err)
			}
			meta := map[string]any{"committed": committed}
			if committed {
				if head, err := gitrepo.Head(cmd.Context(), toDir); err == nil {
					meta["head"] = head
				}
			}
			app.logger.WithField("board_id", st.Board.ID).WithField("committed", committed).Info("board published")
			return writeOut(cmd, app, map[string]any{"data": res, "meta": meta})
		},
	}
	cmd.Flags().StringVar(&toDir, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&html, "html", false, "Also write index.html")
	cmd.Flags().BoolVar(&commit, "commit", false, "Commit the written files when --to is inside a git repository")
	cmd.Flags().StringVar(&message, "message", "", "Commit message (default \"Publish: <board title>\")")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
