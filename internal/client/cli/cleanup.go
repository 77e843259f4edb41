package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/refgate/internal/client/ui"
	"github.com/dmitrijs2005/refgate/internal/common"
)

func newCleanupCmd(app func() *App) *cobra.Command {
	var bucket, path string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Ask the gateway to remove an uploaded object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Cleanup(cmd.Context(), bucket, path)
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket holding the object")
	cmd.Flags().StringVar(&path, "path", "", "object path, e.g. uploads/<id>/file.pdf")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (a *App) Cleanup(ctx context.Context, bucket, path string) error {
	if err := a.client.Cleanup(ctx, bucket, path); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	fmt.Fprintln(a.out, ui.FormatSuccess(common.MessageCleanupAttempted))
	return nil
}
