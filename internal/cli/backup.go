package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"corkboard-cli/internal/backup"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy boards to and from the configured S3 bucket",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the bucket is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := openBucket(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := bucket.Check(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"bucket": app.cfg.S3.Bucket, "ok": true}})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "push <board-id>",
		Short: "Upload a board snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bucket, err := openBucket(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := openBackend(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			st, err := b.load(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			key, err := bucket.Push(ctx, backup.NewSnapshot(st, time.Now()))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"key": key, "lists": len(st.Lists), "cards": len(st.Cards)},
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pull <board-id>",
		Short: "Print a stored board snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := openBucket(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := bucket.Pull(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": snap})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "restore <board-id>",
		Short: "Recreate a stored board as a new board you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bucket, err := openBucket(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := bucket.Pull(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := openBackend(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			me, err := b.me()
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := backup.Restore(ctx, b.store, me, snap)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": viewOf(st),
				"meta": map[string]any{"restored_from": args[0]},
			})
		},
	})
	return cmd
}

// openBucket is a var so tests can swap in an in-memory bucket.
var openBucket = func(ctx context.Context, app *App) (*backup.Bucket, error) {
	if app.cfg.S3.Bucket == "" {
		return nil, backup.ErrNoBucket
	}
	client, err := backup.NewS3Client(ctx, app.cfg.S3)
	if err != nil {
		return nil, err
	}
	return backup.NewBucket(client, app.cfg.S3)
}
