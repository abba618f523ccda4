package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"corkboard-cli/internal/board"
)

var errDoctorIssuesFound = errors.New("doctor found position issues")

func newDoctorCmd(app *App) *cobra.Command {
	var fail, fix bool

	cmd := &cobra.Command{
		Use:   "doctor <board-id>",
		Short: "Check that list and card positions are numbered 0..n-1",
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
			issues := st.Check()
			if issues == nil {
				issues = []board.Issue{}
			}
			repaired := 0
			if fix && len(issues) > 0 {
				if repaired, err = b.boards.Repair(cmd.Context(), st); err != nil {
					return writeErr(cmd, err)
				}
			}
			hints := []string{}
			if len(issues) > 0 && !fix {
				hints = append(hints, "corkboard doctor --fix "+st.Board.ID)
			}
			if err := writeOut(cmd, app, map[string]any{
				"data":   issues,
				"meta":   map[string]any{"issues": len(issues), "repaired": repaired},
				"_hints": hints,
			}); err != nil {
				return err
			}
			if fail && len(issues) > 0 && !fix {
				return errDoctorIssuesFound
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if issues are found")
	cmd.Flags().BoolVar(&fix, "fix", false, "Renumber positions, keeping the current order")
	return cmd
}
