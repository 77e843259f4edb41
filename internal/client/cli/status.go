package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/refgate/internal/client/ui"
)

func newStatusCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <requestId>",
		Short: "Show the recorded analysis attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Status(cmd.Context(), args[0])
		},
	}
}

func (a *App) Status(ctx context.Context, requestID string) error {
	sp := a.newSpinner()
	defer sp.Stop()

	sp.Start("fetching analysis")
	job, err := a.client.Analysis(ctx, requestID)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	sp.Stop()

	backendStatus := ""
	if job.BackendStatus != 0 {
		backendStatus = strconv.Itoa(job.BackendStatus)
	}

	fmt.Fprintln(a.out, ui.FormatTitle("Analysis "+job.RequestID))
	fmt.Fprint(a.out, ui.RenderFields([]ui.Field{
		{Key: "status", Value: job.Status},
		{Key: "failedStage", Value: job.FailedStage},
		{Key: "code", Value: job.Code},
		{Key: "backendStatus", Value: backendStatus},
		{Key: "file", Value: job.FileName},
		{Key: "location", Value: job.Provider + "://" + job.Bucket + "/" + job.Path},
		{Key: "sha256", Value: job.SHA256},
		{Key: "compensated", Value: strconv.FormatBool(job.Compensated)},
		{Key: "attempts", Value: strconv.Itoa(job.Attempts)},
		{Key: "updated", Value: job.UpdatedAt.Local().Format(time.RFC3339)},
	}))
	return nil
}
