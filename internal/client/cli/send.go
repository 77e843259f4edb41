package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/refgate/internal/client/client"
	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

const cleanupTimeout = 10 * time.Second

func newSendCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "send <file>",
		Short: "Upload a PDF or DOCX straight to storage and start the analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Send(cmd.Context(), args[0])
		},
	}
}

// Send runs the direct-upload flow. The spinner is stopped before Send
// returns, so callers may print right away.
func (a *App) Send(ctx context.Context, path string) (err error) {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	sp := a.newSpinner()
	defer sp.Stop()

	sp.Start("requesting upload credential")
	cred, err := a.client.RequestUploadCredential(ctx, doc.name, doc.mimeType)
	if err != nil {
		return fmt.Errorf("request credential: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			sp.Stop()
			a.cleanup(ctx, cred)
			panic(r)
		}
		if err != nil {
			sp.SetLabel("cleaning up")
			a.cleanup(ctx, cred)
		}
	}()

	sp.SetLabel(fmt.Sprintf("uploading %s", doc.name))
	if err := a.client.PutObject(ctx, cred, doc.data); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	sp.SetLabel("starting analysis")
	env, err := a.client.StartAnalysis(ctx, &validation.Payload{
		RequestID:   cred.RequestID,
		ExtractMode: common.ExtractModeBackendReferences,
		Document: validation.Document{
			SourceType: doc.sourceType,
			FileName:   doc.name,
			MimeType:   doc.mimeType,
		},
		Storage: validation.Storage{
			Provider: a.config.Provider,
			Bucket:   cred.Bucket,
			Path:     cred.Path,
		},
	})
	if err != nil {
		return fmt.Errorf("start analysis: %w", err)
	}

	sp.Stop()
	a.printEnvelope(env)
	return nil
}

// cleanup asks the gateway to remove the object. The outcome is ignored.
func (a *App) cleanup(ctx context.Context, cred *client.Credential) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	_ = a.client.Cleanup(ctx, cred.Bucket, cred.Path)
}
