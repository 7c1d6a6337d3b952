package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varsilias/researchpaper/internal/logging"
	"github.com/varsilias/researchpaper/internal/relay"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the API key and model against the completion API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogJSON)

			client, live := newUpstream(cfg, logger)
			if !live {
				logger.Warn("OPENROUTER_API_KEY is not set; checking the echo client")
			}
			svc := relay.NewService(logger, client, cfg.Upstream.Model, cfg.SystemPrompt)

			d, err := svc.Diagnose(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, d)
			}
			fmt.Fprintf(out, "Models available: %d\n", d.ModelCount)
			if d.Probe.Success {
				fmt.Fprintf(out, "Probe (%s): ok\n%s\n", svc.Model(), d.Probe.Response)
				return nil
			}
			fmt.Fprintf(out, "Probe (%s): failed: %s\n", svc.Model(), d.Probe.Error)
			return errors.New("probe completion failed")
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diagnostics as JSON")
	return cmd
}
