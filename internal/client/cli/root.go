package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/refgate/internal/client/client"
	"github.com/dmitrijs2005/refgate/internal/client/config"
	"github.com/dmitrijs2005/refgate/internal/client/ui"
)

type rootOptions struct {
	configPath string
	server     string
	timeout    time.Duration
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "refgate", "config.yaml")
}

// NewRootCmd builds the command tree. The App is created once flags are
// parsed, in PersistentPreRunE.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var app *App

	root := &cobra.Command{
		Use:   "refgate",
		Short: "Send documents to the reference analysis gateway",
		Long: ui.FormatTitle("refgate") + " - reference analysis gateway client\n\n" +
			"Uploads PDF and DOCX documents and starts a backend reference analysis.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerURL = opts.server
			}
			if cmd.Flags().Changed("timeout") {
				cfg.RequestTimeout = opts.timeout
			}
			ui.SetTheme(cfg.Theme)
			app = NewApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", defaultConfigPath(), "path to the YAML config file")
	pf.StringVarP(&opts.server, "server", "a", "", "gateway base URL (overrides config)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "timeout for gateway API calls (overrides config)")

	appFn := func() *App { return app }
	root.AddCommand(
		newSendCmd(appFn),
		newUploadCmd(appFn),
		newStatusCmd(appFn),
		newCleanupCmd(appFn),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), ui.FormatError(describe(err)))
		return 1
	}
	return 0
}

func describe(err error) string {
	if errors.Is(err, client.ErrUnavailable) {
		return "gateway unreachable: " + err.Error()
	}
	return err.Error()
}
