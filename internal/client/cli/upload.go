package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newUploadCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Let the gateway store the file and start the analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Upload(cmd.Context(), args[0])
		},
	}
}

func (a *App) Upload(ctx context.Context, path string) error {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	sp := a.newSpinner()
	defer sp.Stop()

	sp.Start(fmt.Sprintf("uploading %s", doc.name))
	res, err := a.client.UploadFile(ctx, doc.name, doc.mimeType, doc.data)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	sp.Stop()
	a.printEnvelope(&res.Envelope)
	return nil
}
